package tallies

import (
	"time"

	"evote-node/modules/db/evote/votes"
)

// Level names one of the five aggregation tiers.
type Level string

const (
	LevelPollingUnit Level = "polling_unit"
	LevelWard        Level = "ward"
	LevelLga         Level = "lga"
	LevelState       Level = "state"
	LevelNational    Level = "national"
)

// NationalUnitId is the unit key used at the national level, where there is
// exactly one unit per election.
const NationalUnitId = "national"

// LevelUnits expands a vote's geographic snapshot into the (level, unit)
// pairs it contributes to, in polling-unit-first order.
func LevelUnits(geo votes.GeoSnapshot) map[Level]string {
	return map[Level]string{
		LevelPollingUnit: geo.PollingUnit,
		LevelWard:        geo.Ward,
		LevelLga:         geo.Lga,
		LevelState:       geo.State,
		LevelNational:    NationalUnitId,
	}
}

// Levels is the canonical ordering, narrowest first.
var Levels = []Level{LevelPollingUnit, LevelWard, LevelLga, LevelState, LevelNational}

// TallyRow is one denormalized counter: votes for one candidate within one
// geographic unit of one election. Re-derivable from success vote records.
type TallyRow struct {
	ElectionId  string `json:"election_id" bson:"election_id"`
	Level       Level  `json:"level" bson:"level"`
	UnitId      string `json:"unit_id" bson:"unit_id"`
	CandidateId string `json:"candidate_id" bson:"candidate_id"`

	Count     uint64    `json:"count" bson:"count"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
