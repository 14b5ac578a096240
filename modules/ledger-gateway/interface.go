package ledger_gateway

import (
	"context"

	a "evote-node/modules/aggregate"
	"evote-node/modules/db/evote/voters"
	"evote-node/modules/db/evote/votes"

	"github.com/moznion/go-optional"
)

type ConfirmStatus string

const (
	ConfirmStatusSuccess ConfirmStatus = "success"
	ConfirmStatusFailed  ConfirmStatus = "failed"
	ConfirmStatusPending ConfirmStatus = "still_pending"
)

type ConfirmResult struct {
	Status   ConfirmStatus
	BlockRef optional.Option[string]
}

// Gateway is the only way the pipeline reaches the external ledger. Submit
// returns a transaction handle, never finality; Confirm resolves a handle
// to its terminal status once the ledger has one.
type Gateway interface {
	a.Plugin
	// SubmitVote signs a vote transaction with the voter's ledger account
	// and submits it to the election's contract.
	SubmitVote(ctx context.Context, voter voters.VoterRecord, vote votes.VoteRecord, contractAddress string) (string, error)
	Confirm(ctx context.Context, txHandle string) (ConfirmResult, error)
}
