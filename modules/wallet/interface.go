package wallet

import (
	"context"
	"math/big"

	a "evote-node/modules/aggregate"
)

type BalanceCheck struct {
	Sufficient bool
	Current    *big.Int
	Threshold  *big.Int
}

// Funding answers whether a ledger account holds enough balance to pay for
// a vote transaction. Topping accounts up is handled elsewhere in the
// platform, never by this pipeline.
type Funding interface {
	a.Plugin
	CheckBalance(ctx context.Context, account string) (BalanceCheck, error)
}
