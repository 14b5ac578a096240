package positions

import (
	"context"
	"errors"

	a "evote-node/modules/aggregate"

	"evote-node/modules/db/evote/tallies"
)

// ErrDuplicateEntry is returned when the unique (vote, level) index rejects
// an insert, i.e. this vote's contribution at that level was already
// recorded.
var ErrDuplicateEntry = errors.New("position entry already recorded")

type Positions interface {
	a.Plugin
	Record(ctx context.Context, entry PositionEntry) error
	Exists(ctx context.Context, voteId string, level tallies.Level) (bool, error)
	ListByVoter(voterId string, electionId string) ([]PositionEntry, error)
	DeleteForElection(electionId string) error
}
