package vote_coordinator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"evote-node/lib/test_utils"
	"evote-node/modules/config"
	credential_store "evote-node/modules/credential-store"
	"evote-node/modules/db/evote/audit"
	"evote-node/modules/db/evote/elections"
	"evote-node/modules/db/evote/voters"
	"evote-node/modules/db/evote/votes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	coordinator *Coordinator
	elections   *test_utils.MockElections
	voters      *test_utils.MockVoters
	votes       *test_utils.MockVotes
	credStore   *credential_store.CredentialStore
	gateway     *test_utils.MockGateway
	funding     *test_utils.MockFunding
}

var caller = audit.CallerMeta{RemoteAddr: "192.0.2.10", UserAgent: "polling-terminal/3.0"}

func newFixture(t *testing.T) *fixture {
	dir := t.TempDir()
	conf := config.New(coordinatorConfig{SubmitTimeoutSecs: 2}, &dir)
	require.NoError(t, conf.Init())

	electionDb := test_utils.NewMockElections()
	voterDb := test_utils.NewMockVoters()
	voteDb := test_utils.NewMockVotes()
	counterDb := test_utils.NewMockCounters()
	credStore := credential_store.New(test_utils.NewMockCredentials(), test_utils.NewMockAuditLog())
	gateway := test_utils.NewMockGateway()
	funding := test_utils.NewMockFunding()

	return &fixture{
		coordinator: New(conf, electionDb, voterDb, voteDb, counterDb, credStore, funding, gateway),
		elections:   electionDb,
		voters:      voterDb,
		votes:       voteDb,
		credStore:   credStore,
		gateway:     gateway,
		funding:     funding,
	}
}

func (f *fixture) seedElection(t *testing.T, status elections.ElectionStatus) {
	require.NoError(t, f.elections.StoreElection(elections.ElectionRecord{
		ElectionId:      "gov-2027",
		Title:           "Governorship 2027",
		Status:          status,
		ContractAddress: "0x00000000000000000000000000000000000000aa",
		Contestants: []elections.Contestant{
			{ContestantId: "cand-a", Name: "A", Party: "PPP"},
			{ContestantId: "cand-b", Name: "B", Party: "QQQ"},
		},
		CreatedAt: time.Now().UTC(),
	}))
}

func (f *fixture) seedVoter(t *testing.T, voterId string, sample []byte) {
	require.NoError(t, f.voters.StoreVoter(voters.VoterRecord{
		VoterId:     voterId,
		PollingUnit: "PU-004",
		Ward:        "ward-12",
		Lga:         "ikeja",
		State:       "lagos",
		Account:     "0x" + voterId,
	}))
	_, err := f.credStore.Register(voterId, sample, caller)
	require.NoError(t, err)
}

func validRequest(sample []byte) CastVoteRequest {
	return CastVoteRequest{
		VoterId:     "voter-1",
		ElectionId:  "gov-2027",
		CandidateId: "cand-a",
		Sample:      sample,
		Caller:      caller,
	}
}

func TestCastVoteHappyPath(t *testing.T) {
	f := newFixture(t)
	sample := []byte("thumb")
	f.seedElection(t, elections.ElectionStatusOngoing)
	f.seedVoter(t, "voter-1", sample)

	accepted, err := f.coordinator.CastVote(context.Background(), validRequest(sample))
	require.NoError(t, err)

	assert.Equal(t, votes.VoteStatusPendingChain, accepted.Status)
	assert.Equal(t, uint64(1), accepted.Position)
	assert.True(t, accepted.TxHandle.IsSome())

	record, err := f.votes.GetVote("voter-1", "gov-2027")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, votes.VoteStatusPendingChain, record.Status)
	require.NotNil(t, record.TxHandle)
	assert.Equal(t, accepted.TxHandle.Unwrap(), *record.TxHandle)

	// geography is snapshotted onto the record at cast time
	assert.Equal(t, "PU-004", record.Geo.PollingUnit)
	assert.Equal(t, "lagos", record.Geo.State)

	assert.Equal(t, 1, f.gateway.SubmitCount())
}

func TestCastVotePositionsAreSequential(t *testing.T) {
	f := newFixture(t)
	f.seedElection(t, elections.ElectionStatusOngoing)

	for i, voterId := range []string{"voter-1", "voter-2", "voter-3"} {
		sample := []byte{byte(i + 1)}
		f.seedVoter(t, voterId, sample)
		req := validRequest(sample)
		req.VoterId = voterId
		accepted, err := f.coordinator.CastVote(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), accepted.Position)
	}
}

func TestCastVoteElectionGates(t *testing.T) {
	f := newFixture(t)
	sample := []byte("thumb")
	f.seedVoter(t, "voter-1", sample)

	// no election at all
	_, err := f.coordinator.CastVote(context.Background(), validRequest(sample))
	assert.ErrorIs(t, err, ErrElectionNotActive)

	// exists but not ongoing
	f.seedElection(t, elections.ElectionStatusUpcoming)
	_, err = f.coordinator.CastVote(context.Background(), validRequest(sample))
	assert.ErrorIs(t, err, ErrElectionNotActive)

	// ongoing but unknown candidate
	f.seedElection(t, elections.ElectionStatusOngoing)
	req := validRequest(sample)
	req.CandidateId = "cand-z"
	_, err = f.coordinator.CastVote(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidCandidate)
}

func TestCastVoteIdentityGates(t *testing.T) {
	f := newFixture(t)
	f.seedElection(t, elections.ElectionStatusOngoing)

	// voter never registered
	_, err := f.coordinator.CastVote(context.Background(), validRequest([]byte("thumb")))
	assert.ErrorIs(t, err, ErrVoterNotFound)

	// registered without a credential
	require.NoError(t, f.voters.StoreVoter(voters.VoterRecord{VoterId: "voter-1", Account: "0xvoter-1"}))
	_, err = f.coordinator.CastVote(context.Background(), validRequest([]byte("thumb")))
	assert.ErrorIs(t, err, ErrBiometricNotRegistered)

	// wrong sample
	_, err = f.credStore.Register("voter-1", []byte("thumb"), caller)
	require.NoError(t, err)
	_, err = f.coordinator.CastVote(context.Background(), validRequest([]byte("not-the-thumb")))
	assert.ErrorIs(t, err, ErrBiometricMismatch)
}

func TestCastVoteInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	sample := []byte("thumb")
	f.seedElection(t, elections.ElectionStatusOngoing)
	f.seedVoter(t, "voter-1", sample)
	f.funding.Balances["0xvoter-1"] = big.NewInt(0)

	_, err := f.coordinator.CastVote(context.Background(), validRequest(sample))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// the gate fired before any position was reserved or record written
	record, err := f.votes.GetVote("voter-1", "gov-2027")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestCastVoteTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	sample := []byte("thumb")
	f.seedElection(t, elections.ElectionStatusOngoing)
	f.seedVoter(t, "voter-1", sample)

	_, err := f.coordinator.CastVote(context.Background(), validRequest(sample))
	require.NoError(t, err)

	req := validRequest(sample)
	req.CandidateId = "cand-b"
	_, err = f.coordinator.CastVote(context.Background(), req)
	assert.ErrorIs(t, err, ErrAlreadyVoted)
}

func TestCastVoteConcurrentSameVoter(t *testing.T) {
	f := newFixture(t)
	sample := []byte("thumb")
	f.seedElection(t, elections.ElectionStatusOngoing)
	f.seedVoter(t, "voter-1", sample)

	const casts = 8
	errs := make([]error, casts)
	var wg sync.WaitGroup
	wg.Add(casts)
	for i := 0; i < casts; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.coordinator.CastVote(context.Background(), validRequest(sample))
		}(i)
	}
	wg.Wait()

	// the unique (voter, election) index decides the race: exactly one
	// cast lands, every loser is told the voter already voted
	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyVoted)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Len(t, f.votes.Records, 1)
}

func TestCastVoteConcurrentDistinctVoters(t *testing.T) {
	f := newFixture(t)
	f.seedElection(t, elections.ElectionStatusOngoing)

	const casts = 8
	samples := make([][]byte, casts)
	for i := 0; i < casts; i++ {
		samples[i] = []byte(fmt.Sprintf("thumb-%d", i))
		f.seedVoter(t, fmt.Sprintf("voter-%d", i), samples[i])
	}

	results := make([]*VoteAccepted, casts)
	errs := make([]error, casts)
	var wg sync.WaitGroup
	wg.Add(casts)
	for i := 0; i < casts; i++ {
		go func(i int) {
			defer wg.Done()
			req := validRequest(samples[i])
			req.VoterId = fmt.Sprintf("voter-%d", i)
			results[i], errs[i] = f.coordinator.CastVote(context.Background(), req)
		}(i)
	}
	wg.Wait()

	// every voter gets through, and the positions handed out under
	// contention are the gapless sequence 1..n in some order
	seen := make(map[uint64]bool, casts)
	for i := 0; i < casts; i++ {
		require.NoError(t, errs[i])
		seen[results[i].Position] = true
	}
	require.Len(t, seen, casts)
	for p := uint64(1); p <= casts; p++ {
		assert.True(t, seen[p], "position %d missing", p)
	}
}

func TestCastVoteSurvivesLedgerOutage(t *testing.T) {
	f := newFixture(t)
	sample := []byte("thumb")
	f.seedElection(t, elections.ElectionStatusOngoing)
	f.seedVoter(t, "voter-1", sample)
	f.gateway.SubmitErr = errors.New("rpc: connection refused")

	accepted, err := f.coordinator.CastVote(context.Background(), validRequest(sample))
	require.NoError(t, err)

	// durable but unsubmitted: pending, no handle, reconciler's problem now
	assert.Equal(t, votes.VoteStatusPendingChain, accepted.Status)
	assert.True(t, accepted.TxHandle.IsNone())

	record, err := f.votes.GetVote("voter-1", "gov-2027")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Nil(t, record.TxHandle)
}

func TestVoteStatusQuery(t *testing.T) {
	f := newFixture(t)
	sample := []byte("thumb")
	f.seedElection(t, elections.ElectionStatusOngoing)
	f.seedVoter(t, "voter-1", sample)

	record, err := f.coordinator.VoteStatus("voter-1", "gov-2027")
	require.NoError(t, err)
	assert.Nil(t, record)

	accepted, err := f.coordinator.CastVote(context.Background(), validRequest(sample))
	require.NoError(t, err)

	record, err = f.coordinator.VoteStatus("voter-1", "gov-2027")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, accepted.VoteId, record.VoteId)
}
