package ledger_gateway

import "evote-node/modules/config"

type gatewayConfig struct {
	RpcURL             string
	ChainId            int64
	KeystorePassphrase string
	GasLimit           uint64
}

type GatewayConfig = *config.Config[gatewayConfig]

func NewGatewayConfig(dataDir *string) GatewayConfig {
	return config.New(gatewayConfig{
		RpcURL:             "http://localhost:8545",
		ChainId:            1337,
		KeystorePassphrase: "CHANGE_ME",
		GasLimit:           200_000,
	}, dataDir)
}
