package tally_test

import (
	"context"
	"errors"
	"testing"

	"evote-node/lib/test_utils"
	"evote-node/modules/db/evote/elections"
	"evote-node/modules/db/evote/tallies"
	"evote-node/modules/db/evote/votes"
	"evote-node/modules/tally"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	aggregator *tally.Aggregator
	tallies    *test_utils.MockTallies
	positions  *test_utils.MockPositions
	votes      *test_utils.MockVotes
	elections  *test_utils.MockElections
}

func newFixture(t *testing.T) *fixture {
	tallyDb := test_utils.NewMockTallies()
	positionDb := test_utils.NewMockPositions()
	voteDb := test_utils.NewMockVotes()
	electionDb := test_utils.NewMockElections()
	require.NoError(t, electionDb.StoreElection(elections.ElectionRecord{
		ElectionId: "gov-2027",
		Status:     elections.ElectionStatusOngoing,
		Contestants: []elections.Contestant{
			{ContestantId: "cand-a"},
			{ContestantId: "cand-b"},
		},
	}))
	tx := test_utils.NewMockTransactor(tallyDb, positionDb, voteDb, electionDb)
	return &fixture{
		aggregator: tally.New(tallyDb, positionDb, voteDb, electionDb, tx),
		tallies:    tallyDb,
		positions:  positionDb,
		votes:      voteDb,
		elections:  electionDb,
	}
}

func successVote(voteId, voterId, candidateId string, position uint64, geo votes.GeoSnapshot) votes.VoteRecord {
	return votes.VoteRecord{
		VoteId:      voteId,
		VoterId:     voterId,
		ElectionId:  "gov-2027",
		CandidateId: candidateId,
		Position:    position,
		Geo:         geo,
		Status:      votes.VoteStatusSuccess,
	}
}

var lagosGeo = votes.GeoSnapshot{PollingUnit: "PU-004", Ward: "ward-12", Lga: "ikeja", State: "lagos"}
var kanoGeo = votes.GeoSnapshot{PollingUnit: "PU-900", Ward: "ward-3", Lga: "nassarawa", State: "kano"}

func (f *fixture) apply(t *testing.T, record votes.VoteRecord) {
	require.NoError(t, f.votes.InsertPending(record))
	won, err := f.votes.ConfirmSuccess(record.VoteId)
	require.NoError(t, err)
	require.True(t, won)
	require.NoError(t, f.aggregator.ApplyVote(context.Background(), record))
}

func TestApplyVoteCountsAtEveryLevel(t *testing.T) {
	f := newFixture(t)
	f.apply(t, successVote("v1", "voter-1", "cand-a", 1, lagosGeo))

	for level, unit := range map[tallies.Level]string{
		tallies.LevelPollingUnit: "PU-004",
		tallies.LevelWard:        "ward-12",
		tallies.LevelLga:         "ikeja",
		tallies.LevelState:       "lagos",
		tallies.LevelNational:    tallies.NationalUnitId,
	} {
		breakdown, err := f.aggregator.Breakdown("gov-2027", level, unit)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), breakdown.Total, "level %s", level)
	}

	// the national contribution drives the denormalized election counts
	election, err := f.elections.GetElection("gov-2027")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), election.Contestants[0].Votes)
	assert.Equal(t, uint64(1), election.TotalVotes)
}

func TestApplyVoteRefusesUnconfirmedRecords(t *testing.T) {
	f := newFixture(t)
	record := successVote("v1", "voter-1", "cand-a", 1, lagosGeo)
	record.Status = votes.VoteStatusPendingChain
	assert.Error(t, f.aggregator.ApplyVote(context.Background(), record))
}

func TestApplyVoteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	record := successVote("v1", "voter-1", "cand-a", 1, lagosGeo)
	f.apply(t, record)

	// a crashed-and-restarted worker re-applies the same record
	require.NoError(t, f.aggregator.ApplyVote(context.Background(), record))
	require.NoError(t, f.aggregator.ApplyVote(context.Background(), record))

	breakdown, err := f.aggregator.Breakdown("gov-2027", tallies.LevelNational, tallies.NationalUnitId)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), breakdown.Total)

	election, err := f.elections.GetElection("gov-2027")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), election.TotalVotes)
}

func TestApplyVoteRollsBackPartialFailures(t *testing.T) {
	f := newFixture(t)
	record := successVote("v1", "voter-1", "cand-a", 1, lagosGeo)
	require.NoError(t, f.votes.InsertPending(record))
	won, err := f.votes.ConfirmSuccess("v1")
	require.NoError(t, err)
	require.True(t, won)

	// the position-log write dies after the first counter already bumped;
	// the whole contribution must roll back, not just the failed write
	f.positions.RecordErr = errors.New("connection reset by peer")
	require.Error(t, f.aggregator.ApplyVote(context.Background(), record))

	breakdown, err := f.aggregator.Breakdown("gov-2027", tallies.LevelPollingUnit, "PU-004")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), breakdown.Total)

	// re-applying after the failure counts the vote exactly once
	require.NoError(t, f.aggregator.ApplyVote(context.Background(), record))
	for level, unit := range map[tallies.Level]string{
		tallies.LevelPollingUnit: "PU-004",
		tallies.LevelWard:        "ward-12",
		tallies.LevelLga:         "ikeja",
		tallies.LevelState:       "lagos",
		tallies.LevelNational:    tallies.NationalUnitId,
	} {
		breakdown, err := f.aggregator.Breakdown("gov-2027", level, unit)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), breakdown.Total, "level %s", level)
	}

	election, err := f.elections.GetElection("gov-2027")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), election.TotalVotes)

	counted, err := f.votes.GetVote("voter-1", "gov-2027")
	require.NoError(t, err)
	require.NotNil(t, counted)
	assert.True(t, counted.Tallied)
}

func TestBreakdownAndLeading(t *testing.T) {
	f := newFixture(t)
	f.apply(t, successVote("v1", "voter-1", "cand-a", 1, lagosGeo))
	f.apply(t, successVote("v2", "voter-2", "cand-b", 2, lagosGeo))
	f.apply(t, successVote("v3", "voter-3", "cand-b", 3, kanoGeo))

	national, err := f.aggregator.Breakdown("gov-2027", tallies.LevelNational, tallies.NationalUnitId)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), national.Total)
	require.True(t, national.Leading.IsSome())
	assert.Equal(t, "cand-b", national.Leading.Unwrap().CandidateId)
	assert.Equal(t, uint64(2), national.Leading.Unwrap().Count)

	// state-level slices only see their own votes
	lagos, err := f.aggregator.Breakdown("gov-2027", tallies.LevelState, "lagos")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), lagos.Total)

	leading, err := f.aggregator.Leading("gov-2027", tallies.LevelState, "kano")
	require.NoError(t, err)
	require.NotNil(t, leading)
	assert.Equal(t, "cand-b", leading.CandidateId)

	// unit nobody voted in
	empty, err := f.aggregator.Leading("gov-2027", tallies.LevelState, "rivers")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestVoterPositions(t *testing.T) {
	f := newFixture(t)
	f.apply(t, successVote("v1", "voter-1", "cand-a", 1, lagosGeo))
	f.apply(t, successVote("v2", "voter-2", "cand-a", 2, lagosGeo))

	entries, err := f.aggregator.VoterPositions("voter-2", "gov-2027")
	require.NoError(t, err)
	require.Len(t, entries, len(tallies.Levels))
	for _, e := range entries {
		assert.Equal(t, uint64(2), e.Rank, "level %s", e.Level)
	}
}

func TestRecomputeMatchesIncremental(t *testing.T) {
	f := newFixture(t)
	f.apply(t, successVote("v1", "voter-1", "cand-a", 1, lagosGeo))
	f.apply(t, successVote("v2", "voter-2", "cand-b", 2, lagosGeo))
	f.apply(t, successVote("v3", "voter-3", "cand-a", 3, kanoGeo))

	before, err := f.aggregator.Breakdown("gov-2027", tallies.LevelNational, tallies.NationalUnitId)
	require.NoError(t, err)

	require.NoError(t, f.aggregator.Recompute(context.Background(), "gov-2027"))

	after, err := f.aggregator.Breakdown("gov-2027", tallies.LevelNational, tallies.NationalUnitId)
	require.NoError(t, err)
	assert.Equal(t, before.Rows, after.Rows)
	assert.Equal(t, before.Total, after.Total)

	election, err := f.elections.GetElection("gov-2027")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), election.TotalVotes)
}
