package elections

import "time"

type ElectionStatus string

const (
	ElectionStatusUpcoming  ElectionStatus = "UPCOMING"
	ElectionStatusOngoing   ElectionStatus = "ONGOING"
	ElectionStatusCompleted ElectionStatus = "COMPLETED"
)

type Contestant struct {
	ContestantId string `json:"contestant_id" bson:"contestant_id"`
	Name         string `json:"name" bson:"name"`
	Party        string `json:"party" bson:"party"`

	// derived from success vote records, never authoritative
	Votes uint64 `json:"votes" bson:"votes"`
}

type ElectionRecord struct {
	ElectionId string         `json:"election_id" bson:"election_id"`
	Title      string         `json:"title" bson:"title"`
	Status     ElectionStatus `json:"status" bson:"status"`

	// address of the vote contract on the external ledger
	ContractAddress string `json:"contract_address" bson:"contract_address"`

	Contestants []Contestant `json:"contestants" bson:"contestants"`
	TotalVotes  uint64       `json:"total_votes" bson:"total_votes"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (e *ElectionRecord) HasContestant(contestantId string) bool {
	for _, c := range e.Contestants {
		if c.ContestantId == contestantId {
			return true
		}
	}
	return false
}
