package vote_coordinator

import "evote-node/modules/config"

type coordinatorConfig struct {
	// bound on the synchronous ledger submission; expiry degrades the cast
	// to pending rather than failing it
	SubmitTimeoutSecs int
}

type CoordinatorConfig = *config.Config[coordinatorConfig]

func NewCoordinatorConfig(dataDir *string) CoordinatorConfig {
	return config.New(coordinatorConfig{
		SubmitTimeoutSecs: 10,
	}, dataDir)
}
