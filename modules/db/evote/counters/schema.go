package counters

type CounterRecord struct {
	ElectionId string `json:"election_id" bson:"election_id"`
	Seq        uint64 `json:"seq" bson:"seq"`
}
