package reconciler

import (
	"context"
	"errors"
	"testing"

	"evote-node/lib/test_utils"
	"evote-node/modules/config"
	"evote-node/modules/db/evote/elections"
	"evote-node/modules/db/evote/tallies"
	"evote-node/modules/db/evote/voters"
	"evote-node/modules/db/evote/votes"
	ledger_gateway "evote-node/modules/ledger-gateway"
	"evote-node/modules/tally"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	reconciler *Reconciler
	votes      *test_utils.MockVotes
	gateway    *test_utils.MockGateway
	tallies    *test_utils.MockTallies
	elections  *test_utils.MockElections
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithConfig(t, reconcilerConfig{
		Schedule:   "@every 1h",
		BatchSize:  100,
		MaxRetries: 3,
	})
}

func newFixtureWithConfig(t *testing.T, rc reconcilerConfig) *fixture {
	dir := t.TempDir()
	conf := config.New(rc, &dir)
	require.NoError(t, conf.Init())

	voteDb := test_utils.NewMockVotes()
	voterDb := test_utils.NewMockVoters()
	electionDb := test_utils.NewMockElections()
	gateway := test_utils.NewMockGateway()
	tallyDb := test_utils.NewMockTallies()
	positionDb := test_utils.NewMockPositions()
	tx := test_utils.NewMockTransactor(tallyDb, positionDb, voteDb, electionDb)
	aggregator := tally.New(tallyDb, positionDb, voteDb, electionDb, tx)

	for _, voterId := range []string{"voter-1", "voter-2"} {
		require.NoError(t, voterDb.StoreVoter(voters.VoterRecord{
			VoterId:     voterId,
			PollingUnit: "PU-004",
			Ward:        "ward-12",
			Lga:         "ikeja",
			State:       "lagos",
			Account:     "0x" + voterId,
		}))
	}
	require.NoError(t, electionDb.StoreElection(elections.ElectionRecord{
		ElectionId:      "gov-2027",
		Status:          elections.ElectionStatusOngoing,
		ContractAddress: "0x00000000000000000000000000000000000000aa",
		Contestants:     []elections.Contestant{{ContestantId: "cand-a"}},
	}))

	return &fixture{
		reconciler: New(conf, voteDb, voterDb, electionDb, gateway, aggregator),
		votes:      voteDb,
		gateway:    gateway,
		tallies:    tallyDb,
		elections:  electionDb,
	}
}

func (f *fixture) seedPending(t *testing.T, voteId string, voterId string, txHandle *string) {
	require.NoError(t, f.votes.InsertPending(votes.VoteRecord{
		VoteId:      voteId,
		VoterId:     voterId,
		ElectionId:  "gov-2027",
		CandidateId: "cand-a",
		Position:    1,
		Geo:         votes.GeoSnapshot{PollingUnit: "PU-004", Ward: "ward-12", Lga: "ikeja", State: "lagos"},
	}))
	if txHandle != nil {
		require.NoError(t, f.votes.SetTxHandle(voteId, *txHandle))
	}
}

func (f *fixture) record(t *testing.T, voteId string) votes.VoteRecord {
	r, ok := f.votes.Records[voteId]
	require.True(t, ok)
	return *r
}

func strPtr(s string) *string { return &s }

func TestRunResubmitsVotesWithoutHandle(t *testing.T) {
	f := newFixture(t)
	f.seedPending(t, "v1", "voter-1", nil)

	f.reconciler.Run(context.Background())

	record := f.record(t, "v1")
	require.NotNil(t, record.TxHandle)
	assert.Equal(t, 1, f.gateway.SubmitCount())
	// still pending: the handle resolves on a later pass
	assert.Equal(t, votes.VoteStatusPendingChain, record.Status)
}

func TestRunConfirmsAndTallies(t *testing.T) {
	f := newFixture(t)
	f.seedPending(t, "v1", "voter-1", strPtr("0xabc"))
	f.gateway.Status = ledger_gateway.ConfirmStatusSuccess

	f.reconciler.Run(context.Background())

	record := f.record(t, "v1")
	assert.Equal(t, votes.VoteStatusSuccess, record.Status)
	assert.True(t, record.Tallied)

	row, err := f.tallies.Leading("gov-2027", tallies.LevelNational, tallies.NationalUnitId)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, uint64(1), row.Count)

	election, err := f.elections.GetElection("gov-2027")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), election.TotalVotes)
}

func TestRunMarksLedgerRejectionTerminal(t *testing.T) {
	f := newFixture(t)
	f.seedPending(t, "v1", "voter-1", strPtr("0xabc"))
	f.gateway.Status = ledger_gateway.ConfirmStatusFailed

	f.reconciler.Run(context.Background())

	record := f.record(t, "v1")
	assert.Equal(t, votes.VoteStatusFailed, record.Status)
	require.NotNil(t, record.LastError)
	assert.Equal(t, "ledger rejected transaction", *record.LastError)

	// terminal means terminal: further passes never touch the record
	f.gateway.Status = ledger_gateway.ConfirmStatusSuccess
	f.reconciler.Run(context.Background())
	assert.Equal(t, votes.VoteStatusFailed, f.record(t, "v1").Status)
}

func TestRunLeavesStillPendingAlone(t *testing.T) {
	f := newFixture(t)
	f.seedPending(t, "v1", "voter-1", strPtr("0xabc"))
	f.gateway.Status = ledger_gateway.ConfirmStatusPending

	f.reconciler.Run(context.Background())
	f.reconciler.Run(context.Background())

	record := f.record(t, "v1")
	assert.Equal(t, votes.VoteStatusPendingChain, record.Status)
	// each examination charges the budget, even when the ledger just has
	// not finalized yet — a vote stuck forever still reaches an operator
	assert.Equal(t, 2, record.RetryCount)
	assert.False(t, record.Flagged)
}

func TestRunCountsRetriesAndFlags(t *testing.T) {
	f := newFixture(t)
	f.seedPending(t, "v1", "voter-1", nil)
	f.gateway.SubmitErr = errors.New("rpc: connection refused")

	// MaxRetries is 3: each of the first three passes charges one attempt
	// before failing at the gateway, and the pass that pushes the count
	// past the budget flags the record instead of submitting again
	for i := 0; i < 3; i++ {
		f.reconciler.Run(context.Background())
		record := f.record(t, "v1")
		assert.Equal(t, i+1, record.RetryCount)
		assert.False(t, record.Flagged)
		require.NotNil(t, record.LastError)
	}

	f.reconciler.Run(context.Background())
	record := f.record(t, "v1")
	assert.True(t, record.Flagged)
	assert.Equal(t, 4, record.RetryCount)
	assert.Equal(t, votes.VoteStatusPendingChain, record.Status)

	flagged, err := f.votes.ListFlagged("gov-2027")
	require.NoError(t, err)
	assert.Len(t, flagged, 1)

	// once flagged, the record drops out of the pending scan entirely:
	// no further submissions, no further budget charges, even after the
	// ledger comes back
	f.gateway.SubmitErr = nil
	f.reconciler.Run(context.Background())
	assert.Equal(t, 0, f.gateway.SubmitCount())
	assert.Equal(t, 4, f.record(t, "v1").RetryCount)
}

func TestFlaggedRecordsDoNotConsumeBatchSlots(t *testing.T) {
	f := newFixtureWithConfig(t, reconcilerConfig{
		Schedule:   "@every 1h",
		BatchSize:  1,
		MaxRetries: 3,
	})
	f.seedPending(t, "v1", "voter-1", nil)
	require.NoError(t, f.votes.FlagForReview("v1"))
	f.seedPending(t, "v2", "voter-2", nil)

	// with a batch of one, a flagged record older than everything else
	// must not shadow the fresh vote behind it
	f.reconciler.Run(context.Background())

	record := f.record(t, "v2")
	require.NotNil(t, record.TxHandle)
	assert.Equal(t, 1, f.gateway.SubmitCount())
	assert.Nil(t, f.record(t, "v1").TxHandle)
}

func TestRunRepairsUntalliedVotes(t *testing.T) {
	f := newFixture(t)
	f.seedPending(t, "v1", "voter-1", strPtr("0xabc"))

	// simulate a crash after confirmation but before the tally update
	won, err := f.votes.ConfirmSuccess("v1")
	require.NoError(t, err)
	require.True(t, won)

	f.reconciler.Run(context.Background())

	record := f.record(t, "v1")
	assert.True(t, record.Tallied)
	row, err := f.tallies.Leading("gov-2027", tallies.LevelNational, tallies.NationalUnitId)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, uint64(1), row.Count)
}

func TestRunsDoNotOverlap(t *testing.T) {
	f := newFixture(t)
	f.seedPending(t, "v1", "voter-1", nil)

	f.reconciler.inFlight.Store(true)
	f.reconciler.Run(context.Background())
	assert.Equal(t, 0, f.gateway.SubmitCount())

	f.reconciler.inFlight.Store(false)
	f.reconciler.Run(context.Background())
	assert.Equal(t, 1, f.gateway.SubmitCount())
}
