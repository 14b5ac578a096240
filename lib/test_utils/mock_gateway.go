package test_utils

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"evote-node/modules/db/evote/voters"
	"evote-node/modules/db/evote/votes"
	ledger_gateway "evote-node/modules/ledger-gateway"
	"evote-node/modules/wallet"

	"github.com/moznion/go-optional"
)

// MockGateway is a scriptable ledger. By default every submission is
// accepted and immediately confirmable as success; tests override the
// error and status fields to exercise the failure paths.
type MockGateway struct {
	MockPlugin

	mu sync.Mutex

	// when set, SubmitVote fails with this error
	SubmitErr error
	// when set, Confirm fails with this error
	ConfirmErr error
	// status handed back by Confirm; defaults to success
	Status ledger_gateway.ConfirmStatus

	Submitted []votes.VoteRecord
	nextTx    int
}

var _ ledger_gateway.Gateway = &MockGateway{}

func NewMockGateway() *MockGateway {
	return &MockGateway{Status: ledger_gateway.ConfirmStatusSuccess}
}

// SubmitVote implements ledger_gateway.Gateway.
func (m *MockGateway) SubmitVote(ctx context.Context, voter voters.VoterRecord, vote votes.VoteRecord, contractAddress string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubmitErr != nil {
		return "", m.SubmitErr
	}
	m.Submitted = append(m.Submitted, vote)
	m.nextTx++
	return fmt.Sprintf("0xtx%04d", m.nextTx), nil
}

// Confirm implements ledger_gateway.Gateway.
func (m *MockGateway) Confirm(ctx context.Context, txHandle string) (ledger_gateway.ConfirmResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConfirmErr != nil {
		return ledger_gateway.ConfirmResult{}, m.ConfirmErr
	}
	res := ledger_gateway.ConfirmResult{Status: m.Status}
	if m.Status == ledger_gateway.ConfirmStatusSuccess {
		res.BlockRef = optional.Some("0xblock" + txHandle)
	}
	return res, nil
}

// SubmitCount reports how many submissions the ledger accepted.
func (m *MockGateway) SubmitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Submitted)
}

// MockFunding reports every account as funded unless a balance was set
// below the threshold.
type MockFunding struct {
	MockPlugin

	Threshold *big.Int
	Balances  map[string]*big.Int
}

var _ wallet.Funding = &MockFunding{}

func NewMockFunding() *MockFunding {
	return &MockFunding{
		Threshold: big.NewInt(1_000),
		Balances:  make(map[string]*big.Int),
	}
}

// CheckBalance implements wallet.Funding.
func (m *MockFunding) CheckBalance(ctx context.Context, account string) (wallet.BalanceCheck, error) {
	balance, ok := m.Balances[account]
	if !ok {
		balance = new(big.Int).Add(m.Threshold, big.NewInt(1))
	}
	return wallet.BalanceCheck{
		Sufficient: balance.Cmp(m.Threshold) > 0,
		Current:    balance,
		Threshold:  new(big.Int).Set(m.Threshold),
	}, nil
}
