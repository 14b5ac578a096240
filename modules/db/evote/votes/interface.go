package votes

import (
	"context"
	"errors"

	a "evote-node/modules/aggregate"

	"github.com/moznion/go-optional"
)

// ErrDuplicateVote is returned when the unique (voter, election) index
// rejects an insert. The index, not the caller's pre-check, is what
// guarantees at-most-one vote under concurrent casts.
var ErrDuplicateVote = errors.New("vote already exists for this voter and election")

type Votes interface {
	a.Plugin
	InsertPending(record VoteRecord) error
	GetVote(voterId string, electionId string) (*VoteRecord, error)
	SetTxHandle(voteId string, txHandle string) error

	// IncrementRetry charges one reconciliation attempt against the record
	// and returns the count after the bump, so the caller compares the
	// budget against what is actually persisted, never a stale read.
	IncrementRetry(voteId string) (int, error)
	SetLastError(voteId string, lastError string) error

	// Compare-and-swap transitions out of PENDING_CHAIN. The bool reports
	// whether this caller won the transition; false means another worker
	// already moved the record on.
	ConfirmSuccess(voteId string) (bool, error)
	MarkFailed(voteId string, reason string) (bool, error)

	MarkTallied(ctx context.Context, voteId string) error
	FlagForReview(voteId string) error

	// FindPending returns unflagged PENDING_CHAIN records oldest first.
	// Flagged records belong to an operator and never occupy batch slots.
	FindPending(limit optional.Option[int64]) ([]VoteRecord, error)
	FindUntallied() ([]VoteRecord, error)
	ListSuccess(electionId string) ([]VoteRecord, error)
	ListFlagged(electionId string) ([]VoteRecord, error)
	CountPending(electionId string) (int64, error)
}
