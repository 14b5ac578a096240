package tally

import (
	"context"
	"fmt"

	"evote-node/lib/logger"
	"evote-node/lib/utils"
	a "evote-node/modules/aggregate"
	"evote-node/modules/db"
	"evote-node/modules/db/evote/elections"
	"evote-node/modules/db/evote/positions"
	"evote-node/modules/db/evote/tallies"
	"evote-node/modules/db/evote/votes"

	"github.com/chebyrash/promise"
	"github.com/moznion/go-optional"
)

// Aggregator maintains the five hierarchical views over success vote
// records: polling unit, ward, LGA, state and national. Counts are pure
// denormalizations — Recompute rebuilds any election's rows from the vote
// records alone.
type Aggregator struct {
	tallies   tallies.Tallies
	positions positions.Positions
	votes     votes.Votes
	elections elections.Elections
	tx        db.Transactor

	log logger.Logger
}

var _ a.Plugin = &Aggregator{}

func New(
	tallyDb tallies.Tallies,
	positionDb positions.Positions,
	voteDb votes.Votes,
	electionDb elections.Elections,
	tx db.Transactor,
) *Aggregator {
	return &Aggregator{
		tallies:   tallyDb,
		positions: positionDb,
		votes:     voteDb,
		elections: electionDb,
		tx:        tx,
		log:       logger.NewPrefixedLogger("tally"),
	}
}

// Init implements aggregate.Plugin.
func (t *Aggregator) Init() error {
	return nil
}

// Start implements aggregate.Plugin.
func (t *Aggregator) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

// Stop implements aggregate.Plugin.
func (t *Aggregator) Stop() error {
	return nil
}

// ApplyVote counts one confirmed vote at every level of its geographic
// snapshot. The counter bumps, position-log inserts, election counts and
// the tallied flag commit inside one transaction, so an interruption at
// any point rolls the whole contribution back instead of leaving counters
// ahead of the position log. Safe to re-run for the same record: each
// level's contribution is keyed by (vote, level) in the position log and
// skipped once present.
func (t *Aggregator) ApplyVote(ctx context.Context, record votes.VoteRecord) error {
	if record.Status != votes.VoteStatusSuccess {
		return fmt.Errorf("vote %s is %s, refusing to count", record.VoteId, record.Status)
	}

	units := tallies.LevelUnits(record.Geo)
	return t.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for _, level := range tallies.Levels {
			counted, err := t.positions.Exists(ctx, record.VoteId, level)
			if err != nil {
				return err
			}
			if counted {
				continue
			}

			rank, err := t.tallies.Increment(ctx, record.ElectionId, level, units[level], record.CandidateId)
			if err != nil {
				return err
			}
			err = t.positions.Record(ctx, positions.PositionEntry{
				VoteId:     record.VoteId,
				VoterId:    record.VoterId,
				ElectionId: record.ElectionId,
				Level:      level,
				UnitId:     units[level],
				Rank:       rank,
			})
			if err != nil {
				return err
			}

			// the national contribution lands exactly once per vote, so it
			// anchors the election's denormalized per-contestant counts
			if level == tallies.LevelNational {
				if err := t.elections.IncrementContestantVotes(ctx, record.ElectionId, record.CandidateId); err != nil {
					return err
				}
			}
		}

		return t.votes.MarkTallied(ctx, record.VoteId)
	})
}

// Breakdown reports the per-candidate counts within one unit, largest
// first, along with the total and the leading candidate.
type Breakdown struct {
	Total   uint64
	Rows    []tallies.TallyRow
	Leading optional.Option[tallies.TallyRow]
}

func (t *Aggregator) Breakdown(electionId string, level tallies.Level, unitId string) (Breakdown, error) {
	rows, err := t.tallies.Breakdown(electionId, level, unitId)
	if err != nil {
		return Breakdown{}, err
	}
	out := Breakdown{Rows: rows}
	for _, row := range rows {
		out.Total += row.Count
	}
	if len(rows) > 0 {
		out.Leading = optional.Some(rows[0])
	}
	return out, nil
}

// Leading returns the front-running candidate within one unit, or nil when
// the unit has no counted votes yet.
func (t *Aggregator) Leading(electionId string, level tallies.Level, unitId string) (*tallies.TallyRow, error) {
	return t.tallies.Leading(electionId, level, unitId)
}

// VoterPositions returns the ranks a voter's confirmed vote held at each
// level when it was counted.
func (t *Aggregator) VoterPositions(voterId string, electionId string) ([]positions.PositionEntry, error) {
	return t.positions.ListByVoter(voterId, electionId)
}

// PendingCount reports how many accepted votes still await ledger
// confirmation, for consistency audits against the raw ledger count.
func (t *Aggregator) PendingCount(electionId string) (int64, error) {
	return t.votes.CountPending(electionId)
}
