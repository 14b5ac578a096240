package wallet

import (
	"context"
	"fmt"
	"math/big"

	"evote-node/lib/utils"

	"github.com/chebyrash/promise"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

type ethFunding struct {
	conf WalletConfig

	client    *ethclient.Client
	threshold *big.Int
}

var _ Funding = &ethFunding{}

func NewEthFunding(conf WalletConfig) Funding {
	return &ethFunding{conf: conf}
}

// Init implements aggregate.Plugin.
func (f *ethFunding) Init() error {
	threshold, ok := new(big.Int).SetString(f.conf.Get().ThresholdWei, 10)
	if !ok {
		return fmt.Errorf("invalid funding threshold %q", f.conf.Get().ThresholdWei)
	}
	f.threshold = threshold
	return nil
}

// Start implements aggregate.Plugin.
func (f *ethFunding) Start() *promise.Promise[any] {
	client, err := ethclient.Dial(f.conf.Get().RpcURL)
	if err != nil {
		return utils.PromiseReject[any](err)
	}
	f.client = client
	return utils.PromiseResolve[any](nil)
}

// Stop implements aggregate.Plugin.
func (f *ethFunding) Stop() error {
	if f.client != nil {
		f.client.Close()
	}
	return nil
}

func (f *ethFunding) CheckBalance(ctx context.Context, account string) (BalanceCheck, error) {
	balance, err := f.client.BalanceAt(ctx, common.HexToAddress(account), nil)
	if err != nil {
		return BalanceCheck{}, err
	}
	return BalanceCheck{
		Sufficient: balance.Cmp(f.threshold) > 0,
		Current:    balance,
		Threshold:  new(big.Int).Set(f.threshold),
	}, nil
}
