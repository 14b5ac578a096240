package tallies

import (
	"context"

	a "evote-node/modules/aggregate"
)

type Tallies interface {
	a.Plugin
	// Increment bumps one counter and returns the running count after the
	// bump, which doubles as the incremented vote's rank at that level.
	// The context carries the caller's transaction when there is one.
	Increment(ctx context.Context, electionId string, level Level, unitId string, candidateId string) (uint64, error)
	Breakdown(electionId string, level Level, unitId string) ([]TallyRow, error)
	Leading(electionId string, level Level, unitId string) (*TallyRow, error)
	DeleteForElection(electionId string) error
}
