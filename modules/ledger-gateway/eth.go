package ledger_gateway

import (
	"context"
	"errors"
	"math/big"

	"evote-node/lib/logger"
	"evote-node/lib/utils"

	"github.com/chebyrash/promise"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/moznion/go-optional"

	"evote-node/modules/db/evote/voters"
	"evote-node/modules/db/evote/votes"
)

type ethGateway struct {
	conf GatewayConfig
	log  logger.Logger

	client *ethclient.Client
}

var _ Gateway = &ethGateway{}

func NewEthGateway(conf GatewayConfig) Gateway {
	return &ethGateway{
		conf: conf,
		log:  logger.NewPrefixedLogger("ledger-gateway"),
	}
}

// Init implements aggregate.Plugin.
func (g *ethGateway) Init() error {
	return nil
}

// Start implements aggregate.Plugin.
func (g *ethGateway) Start() *promise.Promise[any] {
	client, err := ethclient.Dial(g.conf.Get().RpcURL)
	if err != nil {
		return utils.PromiseReject[any](err)
	}
	g.client = client
	return utils.PromiseResolve[any](nil)
}

// Stop implements aggregate.Plugin.
func (g *ethGateway) Stop() error {
	if g.client != nil {
		g.client.Close()
	}
	return nil
}

func (g *ethGateway) SubmitVote(ctx context.Context, voter voters.VoterRecord, vote votes.VoteRecord, contractAddress string) (string, error) {
	key, err := keystore.DecryptKey(voter.KeystoreJson, g.conf.Get().KeystorePassphrase)
	if err != nil {
		return "", err
	}

	nonce, err := g.client.PendingNonceAt(ctx, key.Address)
	if err != nil {
		return "", err
	}
	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", err
	}

	contract := common.HexToAddress(contractAddress)
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &contract,
		Value:    big.NewInt(0),
		Gas:      g.conf.Get().GasLimit,
		GasPrice: gasPrice,
		Data:     encodeVotePayload(vote),
	})

	signer := types.LatestSignerForChainID(big.NewInt(g.conf.Get().ChainId))
	signed, err := types.SignTx(tx, signer, key.PrivateKey)
	if err != nil {
		return "", err
	}

	if err := g.client.SendTransaction(ctx, signed); err != nil {
		return "", err
	}
	handle := signed.Hash().Hex()
	g.log.Debug("vote submitted", "vote_id", vote.VoteId, "tx", handle)
	return handle, nil
}

func (g *ethGateway) Confirm(ctx context.Context, txHandle string) (ConfirmResult, error) {
	receipt, err := g.client.TransactionReceipt(ctx, common.HexToHash(txHandle))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return ConfirmResult{Status: ConfirmStatusPending}, nil
		}
		return ConfirmResult{}, err
	}

	blockRef := optional.Some(receipt.BlockHash.Hex())
	if receipt.Status == types.ReceiptStatusSuccessful {
		return ConfirmResult{Status: ConfirmStatusSuccess, BlockRef: blockRef}, nil
	}
	// the ledger executed and explicitly reverted the transaction
	return ConfirmResult{Status: ConfirmStatusFailed, BlockRef: blockRef}, nil
}
