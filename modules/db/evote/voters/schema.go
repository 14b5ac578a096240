package voters

import "time"

// VoterRecord holds a voter's registration-time identity: the geographic
// tuple used for tally snapshots and the ledger account that signs the
// voter's transactions. The signing key is kept as an encrypted keystore
// blob and is only ever decrypted inside the ledger gateway.
type VoterRecord struct {
	VoterId     string `json:"voter_id" bson:"voter_id"`
	PollingUnit string `json:"polling_unit" bson:"polling_unit"`
	Ward        string `json:"ward" bson:"ward"`
	Lga         string `json:"lga" bson:"lga"`
	State       string `json:"state" bson:"state"`

	// ledger account
	Account      string `json:"account" bson:"account"`
	KeystoreJson []byte `json:"keystore_json" bson:"keystore_json"`

	RegisteredAt time.Time `json:"registered_at" bson:"registered_at"`
}
