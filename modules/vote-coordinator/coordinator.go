package vote_coordinator

import (
	"context"
	"errors"
	"time"

	"evote-node/lib/logger"
	"evote-node/lib/utils"
	a "evote-node/modules/aggregate"
	credential_store "evote-node/modules/credential-store"
	"evote-node/modules/db/evote/audit"
	"evote-node/modules/db/evote/counters"
	"evote-node/modules/db/evote/elections"
	"evote-node/modules/db/evote/voters"
	"evote-node/modules/db/evote/votes"
	ledger_gateway "evote-node/modules/ledger-gateway"
	"evote-node/modules/wallet"

	"github.com/chebyrash/promise"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
)

var (
	ErrElectionNotActive      = errors.New("election does not exist or is not ongoing")
	ErrInvalidCandidate       = errors.New("candidate is not a contestant in this election")
	ErrAlreadyVoted           = errors.New("voter already has a vote in this election")
	ErrVoterNotFound          = errors.New("voter is not registered")
	ErrBiometricNotRegistered = errors.New("voter has no active biometric credential")
	ErrBiometricMismatch      = errors.New("biometric verification failed")
	ErrInsufficientFunds      = errors.New("ledger account balance below funding threshold")
)

type CastVoteRequest struct {
	VoterId     string `validate:"required"`
	ElectionId  string `validate:"required"`
	CandidateId string `validate:"required"`
	Sample      []byte `validate:"required"`

	Caller audit.CallerMeta
}

// VoteAccepted acknowledges that the vote is durably recorded. Status is
// always PENDING_CHAIN here: finality only ever arrives through the
// reconciliation worker.
type VoteAccepted struct {
	VoteId   string
	Position uint64
	Status   votes.VoteStatus
	TxHandle optional.Option[string]
}

// Coordinator runs the cast-vote gate sequence and owns the initial
// submission attempt. It never performs terminal status transitions.
type Coordinator struct {
	conf      CoordinatorConfig
	elections elections.Elections
	voters    voters.Voters
	votes     votes.Votes
	counters  counters.Counters
	credStore *credential_store.CredentialStore
	funding   wallet.Funding
	gateway   ledger_gateway.Gateway

	validate *validator.Validate
	log      logger.Logger
}

var _ a.Plugin = &Coordinator{}

func New(
	conf CoordinatorConfig,
	electionDb elections.Elections,
	voterDb voters.Voters,
	voteDb votes.Votes,
	counterDb counters.Counters,
	credStore *credential_store.CredentialStore,
	funding wallet.Funding,
	gateway ledger_gateway.Gateway,
) *Coordinator {
	return &Coordinator{
		conf:      conf,
		elections: electionDb,
		voters:    voterDb,
		votes:     voteDb,
		counters:  counterDb,
		credStore: credStore,
		funding:   funding,
		gateway:   gateway,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		log:       logger.NewPrefixedLogger("vote-coordinator"),
	}
}

// Init implements aggregate.Plugin.
func (c *Coordinator) Init() error {
	return nil
}

// Start implements aggregate.Plugin.
func (c *Coordinator) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

// Stop implements aggregate.Plugin.
func (c *Coordinator) Stop() error {
	return nil
}

// CastVote runs the gate checks in order, reserves the next sequential
// position, persists the vote as PENDING_CHAIN and attempts one bounded
// synchronous submission. A submission failure is swallowed: the vote is
// already durable and the reconciler owns recovery from here.
func (c *Coordinator) CastVote(ctx context.Context, req CastVoteRequest) (*VoteAccepted, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, err
	}

	election, err := c.elections.GetElection(req.ElectionId)
	if err != nil {
		return nil, err
	}
	if election == nil || election.Status != elections.ElectionStatusOngoing {
		return nil, ErrElectionNotActive
	}

	if !election.HasContestant(req.CandidateId) {
		return nil, ErrInvalidCandidate
	}

	existing, err := c.votes.GetVote(req.VoterId, req.ElectionId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyVoted
	}

	voter, err := c.voters.GetVoter(req.VoterId)
	if err != nil {
		return nil, err
	}
	if voter == nil {
		return nil, ErrVoterNotFound
	}

	ok, err := c.credStore.Verify(req.VoterId, req.Sample, req.Caller)
	if err != nil {
		if errors.Is(err, credential_store.ErrNotRegistered) {
			return nil, ErrBiometricNotRegistered
		}
		return nil, err
	}
	if !ok {
		return nil, ErrBiometricMismatch
	}
	if err := c.credStore.TouchLastUsed(req.VoterId); err != nil {
		c.log.Error("touch last_used failed", "voter_id", req.VoterId, "err", err)
	}

	balance, err := c.funding.CheckBalance(ctx, voter.Account)
	if err != nil {
		return nil, err
	}
	if !balance.Sufficient {
		return nil, ErrInsufficientFunds
	}

	position, err := c.counters.NextPosition(req.ElectionId)
	if err != nil {
		return nil, err
	}

	record := votes.VoteRecord{
		VoteId:      uuid.NewString(),
		VoterId:     req.VoterId,
		ElectionId:  req.ElectionId,
		CandidateId: req.CandidateId,
		Position:    position,
		Geo: votes.GeoSnapshot{
			PollingUnit: voter.PollingUnit,
			Ward:        voter.Ward,
			Lga:         voter.Lga,
			State:       voter.State,
		},
		Status: votes.VoteStatusPendingChain,
		CastAt: time.Now().UTC(),
	}
	if err := c.votes.InsertPending(record); err != nil {
		if errors.Is(err, votes.ErrDuplicateVote) {
			// a concurrent cast by the same voter won the index race
			return nil, ErrAlreadyVoted
		}
		return nil, err
	}

	accepted := &VoteAccepted{
		VoteId:   record.VoteId,
		Position: position,
		Status:   votes.VoteStatusPendingChain,
	}

	submitCtx, cancel := context.WithTimeout(ctx, time.Duration(c.conf.Get().SubmitTimeoutSecs)*time.Second)
	defer cancel()
	handle, err := c.gateway.SubmitVote(submitCtx, *voter, record, election.ContractAddress)
	if err != nil {
		// infrastructure failure: the vote stays pending with no handle
		// and the reconciler retries it
		c.log.Error("synchronous submission failed", "vote_id", record.VoteId, "err", err)
		return accepted, nil
	}
	if err := c.votes.SetTxHandle(record.VoteId, handle); err != nil {
		c.log.Error("storing tx handle failed", "vote_id", record.VoteId, "err", err)
		return accepted, nil
	}
	accepted.TxHandle = optional.Some(handle)
	return accepted, nil
}

// VoteStatus reports a voter's record for an election, if any.
func (c *Coordinator) VoteStatus(voterId string, electionId string) (*votes.VoteRecord, error) {
	return c.votes.GetVote(voterId, electionId)
}
