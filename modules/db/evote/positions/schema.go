package positions

import (
	"time"

	"evote-node/modules/db/evote/tallies"
)

// PositionEntry records the rank a confirmed vote occupied within one
// geographic unit at the moment it was counted. One entry per (vote,
// level); the unique index on that pair is also what makes tally updates
// idempotent — a re-run that finds its entry already present knows the
// counter was already bumped.
type PositionEntry struct {
	VoteId     string `json:"vote_id" bson:"vote_id"`
	VoterId    string `json:"voter_id" bson:"voter_id"`
	ElectionId string `json:"election_id" bson:"election_id"`

	Level  tallies.Level `json:"level" bson:"level"`
	UnitId string        `json:"unit_id" bson:"unit_id"`
	Rank   uint64        `json:"rank" bson:"rank"`

	RecordedAt time.Time `json:"recorded_at" bson:"recorded_at"`
}
