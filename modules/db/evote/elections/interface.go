package elections

import (
	"context"

	a "evote-node/modules/aggregate"
)

// Elections is read-only from the casting pipeline's point of view; the
// vote-count mutators exist solely for the tally aggregator's denormalized
// per-contestant counts.
type Elections interface {
	a.Plugin
	StoreElection(election ElectionRecord) error
	GetElection(electionId string) (*ElectionRecord, error)
	IncrementContestantVotes(ctx context.Context, electionId string, contestantId string) error
	ResetVoteCounts(electionId string) error
}
