package reconciler

import (
	"context"
	"fmt"
	"sync/atomic"

	"evote-node/lib/logger"
	a "evote-node/modules/aggregate"
	"evote-node/modules/db/evote/elections"
	"evote-node/modules/db/evote/voters"
	"evote-node/modules/db/evote/votes"
	ledger_gateway "evote-node/modules/ledger-gateway"
	"evote-node/modules/tally"

	"github.com/JustinKnueppel/go-result"
	"github.com/chebyrash/promise"
	"github.com/moznion/go-optional"
	"github.com/robfig/cron/v3"
)

// Reconciler is the single writer of terminal vote states. On a fixed
// schedule it resubmits pending votes that never reached the ledger,
// resolves submitted ones against the gateway, and hands newly confirmed
// votes to the tally aggregator.
type Reconciler struct {
	conf      ReconcilerConfig
	votes     votes.Votes
	voters    voters.Voters
	elections elections.Elections
	gateway   ledger_gateway.Gateway
	tally     *tally.Aggregator

	cron     *cron.Cron
	stop     chan struct{}
	inFlight atomic.Bool
	log      logger.Logger
}

var _ a.Plugin = &Reconciler{}

func New(
	conf ReconcilerConfig,
	voteDb votes.Votes,
	voterDb voters.Voters,
	electionDb elections.Elections,
	gateway ledger_gateway.Gateway,
	aggregator *tally.Aggregator,
) *Reconciler {
	return &Reconciler{
		conf:      conf,
		votes:     voteDb,
		voters:    voterDb,
		elections: electionDb,
		gateway:   gateway,
		tally:     aggregator,
		cron:      cron.New(),
		stop:      make(chan struct{}),
		log:       logger.NewPrefixedLogger("reconciler"),
	}
}

// Init implements aggregate.Plugin.
func (r *Reconciler) Init() error {
	return nil
}

// Start implements aggregate.Plugin.
func (r *Reconciler) Start() *promise.Promise[any] {
	return promise.New(func(resolve func(any), reject func(error)) {
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-r.stop
			cancel()
		}()

		// run once immediately so a restart drains the backlog without
		// waiting out the first interval
		go r.Run(ctx)

		_, err := r.cron.AddFunc(r.conf.Get().Schedule, func() {
			select {
			case <-r.stop:
				return
			default:
				r.Run(ctx)
			}
		})
		if err != nil {
			reject(err)
			return
		}
		r.cron.Start()
		resolve(nil)
	})
}

// Stop implements aggregate.Plugin.
func (r *Reconciler) Stop() error {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	r.cron.Stop()
	return nil
}

// Run executes one reconciliation pass. Overlapping invocations are
// rejected: a run that outlives its interval simply absorbs the next tick.
func (r *Reconciler) Run(ctx context.Context) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer r.inFlight.Store(false)

	pending, err := r.votes.FindPending(optional.Some(r.conf.Get().BatchSize))
	if err != nil {
		r.log.Error("pending scan failed", "err", err)
		return
	}

	confirmed, failed := 0, 0
	for _, record := range pending {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := r.processRecord(ctx, record)
		if res.IsErr() {
			r.log.Error("reconcile failed", "vote_id", record.VoteId, "err", res.UnwrapErr())
			continue
		}
		switch res.Unwrap() {
		case votes.VoteStatusSuccess:
			confirmed++
		case votes.VoteStatusFailed:
			failed++
		}
	}

	// votes marked SUCCESS whose tally contribution was interrupted by a
	// crash get re-applied here; ApplyVote is idempotent per level
	untallied, err := r.votes.FindUntallied()
	if err != nil {
		r.log.Error("untallied scan failed", "err", err)
		return
	}
	for _, record := range untallied {
		if err := r.tally.ApplyVote(ctx, record); err != nil {
			r.log.Error("tally repair failed", "vote_id", record.VoteId, "err", err)
		}
	}

	if len(pending) > 0 || len(untallied) > 0 {
		r.log.Info("run complete",
			"pending", len(pending),
			"confirmed", confirmed,
			"failed", failed,
			"repaired", len(untallied),
		)
	}
}

// processRecord advances one pending record a single step and reports the
// status it ended the step with. Every examination charges the retry
// budget up front; the charge that pushes the persisted count past the
// budget flags the record for an operator instead of touching the ledger,
// so flagging lands on the exact run the budget runs out.
func (r *Reconciler) processRecord(ctx context.Context, record votes.VoteRecord) result.Result[votes.VoteStatus] {
	attempts, err := r.votes.IncrementRetry(record.VoteId)
	if err != nil {
		return result.Err[votes.VoteStatus](err)
	}
	if attempts > r.conf.Get().MaxRetries {
		r.flagExhausted(record.VoteId, attempts)
		return result.Ok(votes.VoteStatusPendingChain)
	}

	if record.TxHandle == nil {
		return r.resubmit(ctx, record)
	}
	return r.resolve(ctx, record)
}

func (r *Reconciler) resubmit(ctx context.Context, record votes.VoteRecord) result.Result[votes.VoteStatus] {
	voter, err := r.voters.GetVoter(record.VoterId)
	if err != nil {
		return result.Err[votes.VoteStatus](err)
	}
	if voter == nil {
		return result.Err[votes.VoteStatus](fmt.Errorf("vote %s references unknown voter %s", record.VoteId, record.VoterId))
	}
	election, err := r.elections.GetElection(record.ElectionId)
	if err != nil {
		return result.Err[votes.VoteStatus](err)
	}
	if election == nil {
		return result.Err[votes.VoteStatus](fmt.Errorf("vote %s references unknown election %s", record.VoteId, record.ElectionId))
	}

	handle, err := r.gateway.SubmitVote(ctx, *voter, record, election.ContractAddress)
	if err != nil {
		if err := r.votes.SetLastError(record.VoteId, err.Error()); err != nil {
			return result.Err[votes.VoteStatus](err)
		}
		return result.Ok(votes.VoteStatusPendingChain)
	}
	if err := r.votes.SetTxHandle(record.VoteId, handle); err != nil {
		return result.Err[votes.VoteStatus](err)
	}
	return result.Ok(votes.VoteStatusPendingChain)
}

func (r *Reconciler) resolve(ctx context.Context, record votes.VoteRecord) result.Result[votes.VoteStatus] {
	confirm, err := r.gateway.Confirm(ctx, *record.TxHandle)
	if err != nil {
		if err := r.votes.SetLastError(record.VoteId, err.Error()); err != nil {
			return result.Err[votes.VoteStatus](err)
		}
		return result.Ok(votes.VoteStatusPendingChain)
	}

	switch confirm.Status {
	case ledger_gateway.ConfirmStatusSuccess:
		won, err := r.votes.ConfirmSuccess(record.VoteId)
		if err != nil {
			return result.Err[votes.VoteStatus](err)
		}
		if won {
			record.Status = votes.VoteStatusSuccess
			if err := r.tally.ApplyVote(ctx, record); err != nil {
				// the vote is confirmed either way; the untallied sweep
				// picks it up on the next run
				r.log.Error("tally update failed", "vote_id", record.VoteId, "err", err)
			}
		}
		return result.Ok(votes.VoteStatusSuccess)

	case ledger_gateway.ConfirmStatusFailed:
		// terminal: the ledger rejected the transaction; never retried,
		// surfaced to administrative tooling only
		if _, err := r.votes.MarkFailed(record.VoteId, "ledger rejected transaction"); err != nil {
			return result.Err[votes.VoteStatus](err)
		}
		r.log.Error("vote rejected by ledger", "vote_id", record.VoteId, "tx", *record.TxHandle)
		return result.Ok(votes.VoteStatusFailed)

	default:
		return result.Ok(votes.VoteStatusPendingChain)
	}
}

// flagExhausted marks a record that burned through the retry budget
// without reaching a terminal state. Flagging is advisory: the record
// stays pending, drops out of the pending scan and waits for an operator.
func (r *Reconciler) flagExhausted(voteId string, attempts int) {
	if err := r.votes.FlagForReview(voteId); err != nil {
		r.log.Error("flagging failed", "vote_id", voteId, "err", err)
		return
	}
	r.log.Error("vote exceeded retry budget", "vote_id", voteId, "attempts", attempts)
}
