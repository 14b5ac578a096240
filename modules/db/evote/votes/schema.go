package votes

import "time"

type VoteStatus string

const (
	// accepted by the system, not yet confirmed by the ledger
	VoteStatusPendingChain VoteStatus = "PENDING_CHAIN"
	VoteStatusSuccess      VoteStatus = "SUCCESS"
	VoteStatusFailed       VoteStatus = "FAILED"
)

// GeoSnapshot is the voter's location tuple copied onto the vote record at
// cast time. Aggregation keys on this snapshot, never on the voter's
// current registration, so later relocations cannot move past votes.
type GeoSnapshot struct {
	PollingUnit string `json:"polling_unit" bson:"polling_unit"`
	Ward        string `json:"ward" bson:"ward"`
	Lga         string `json:"lga" bson:"lga"`
	State       string `json:"state" bson:"state"`
}

// VoteRecord is the pipeline's source of truth. Created by the coordinator
// in PENDING_CHAIN; every terminal transition belongs to the reconciler.
type VoteRecord struct {
	VoteId      string `json:"vote_id" bson:"vote_id"`
	VoterId     string `json:"voter_id" bson:"voter_id"`
	ElectionId  string `json:"election_id" bson:"election_id"`
	CandidateId string `json:"candidate_id" bson:"candidate_id"`

	// 1-based, per-election, assigned by an atomic counter at cast time
	Position uint64 `json:"position" bson:"position"`

	Geo    GeoSnapshot `json:"geo" bson:"geo"`
	Status VoteStatus  `json:"status" bson:"status"`

	// nil until a ledger submission has been accepted
	TxHandle *string `json:"tx_handle,omitempty" bson:"tx_handle,omitempty"`

	RetryCount int     `json:"retry_count" bson:"retry_count"`
	LastError  *string `json:"last_error,omitempty" bson:"last_error,omitempty"`

	// set when the record exceeded the retry budget and needs an operator
	Flagged bool `json:"flagged" bson:"flagged"`

	// set once the tally aggregator has counted this vote
	Tallied bool `json:"tallied" bson:"tallied"`

	CastAt   time.Time `json:"cast_at" bson:"cast_at"`
	StatusAt time.Time `json:"status_at" bson:"status_at"`
}
