package main

import (
	"fmt"
	"os"

	"evote-node/modules/aggregate"
	credential_store "evote-node/modules/credential-store"
	"evote-node/modules/db"
	"evote-node/modules/db/evote"
	"evote-node/modules/db/evote/audit"
	"evote-node/modules/db/evote/counters"
	"evote-node/modules/db/evote/credentials"
	"evote-node/modules/db/evote/elections"
	"evote-node/modules/db/evote/positions"
	"evote-node/modules/db/evote/tallies"
	"evote-node/modules/db/evote/voters"
	"evote-node/modules/db/evote/votes"
	ledger_gateway "evote-node/modules/ledger-gateway"
	"evote-node/modules/reconciler"
	"evote-node/modules/tally"
	vote_coordinator "evote-node/modules/vote-coordinator"
	voter_registry "evote-node/modules/voter-registry"
	"evote-node/modules/wallet"
)

func main() {
	dbConf := db.NewDbConfig(nil)
	if err := dbConf.Init(); err != nil {
		fmt.Println("error is", err)
		os.Exit(1)
	}
	if mongoUrl := os.Getenv("MONGO_URL"); mongoUrl != "" {
		if err := dbConf.Update(func(dc *db.DbConfig) {
			dc.DbURI = mongoUrl
		}); err != nil {
			fmt.Println("error is", err)
			os.Exit(1)
		}
	}
	mongo := db.New(dbConf)
	evoteDb := evote.New(mongo)

	voterDb := voters.New(evoteDb)
	electionDb := elections.New(evoteDb)
	credentialDb := credentials.New(evoteDb)
	auditDb := audit.New(evoteDb)
	counterDb := counters.New(evoteDb)
	voteDb := votes.New(evoteDb)
	tallyDb := tallies.New(evoteDb)
	positionDb := positions.New(evoteDb)

	gatewayConf := ledger_gateway.NewGatewayConfig(nil)
	gateway := ledger_gateway.NewEthGateway(gatewayConf)

	walletConf := wallet.NewWalletConfig(nil)
	funding := wallet.NewEthFunding(walletConf)

	credStore := credential_store.New(credentialDb, auditDb)
	registry := voter_registry.New(gatewayConf, voterDb, credStore)

	coordinatorConf := vote_coordinator.NewCoordinatorConfig(nil)
	coordinator := vote_coordinator.New(
		coordinatorConf,
		electionDb,
		voterDb,
		voteDb,
		counterDb,
		credStore,
		funding,
		gateway,
	)

	aggregator := tally.New(tallyDb, positionDb, voteDb, electionDb, mongo)

	reconcilerConf := reconciler.NewReconcilerConfig(nil)
	worker := reconciler.New(reconcilerConf, voteDb, voterDb, electionDb, gateway, aggregator)

	plugins := []aggregate.Plugin{
		dbConf,
		mongo,
		evoteDb,
		voterDb,
		electionDb,
		credentialDb,
		auditDb,
		counterDb,
		voteDb,
		tallyDb,
		positionDb,
		gatewayConf,
		gateway,
		walletConf,
		funding,
		credStore,
		registry,
		coordinatorConf,
		coordinator,
		aggregator,
		reconcilerConf,
		worker,
	}

	a := aggregate.New(plugins)
	if err := a.Run(); err != nil {
		fmt.Println("error is", err)
		os.Exit(1)
	}
}
