package wallet

import "evote-node/modules/config"

type walletConfig struct {
	RpcURL string
	// minimum balance in wei required before a cast is accepted
	ThresholdWei string
}

type WalletConfig = *config.Config[walletConfig]

func NewWalletConfig(dataDir *string) WalletConfig {
	return config.New(walletConfig{
		RpcURL:       "http://localhost:8545",
		ThresholdWei: "1000000000000000", // 0.001 ether
	}, dataDir)
}
