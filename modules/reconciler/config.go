package reconciler

import "evote-node/modules/config"

type reconcilerConfig struct {
	// cron spec for the polling loop
	Schedule string
	// max records examined per run
	BatchSize int64
	// reconciliation attempts a record may consume before it is flagged
	// for an operator; every examination of a pending record counts
	MaxRetries int
}

type ReconcilerConfig = *config.Config[reconcilerConfig]

func NewReconcilerConfig(dataDir *string) ReconcilerConfig {
	return config.New(reconcilerConfig{
		Schedule:   "@every 30s",
		BatchSize:  500,
		MaxRetries: 10,
	}, dataDir)
}
