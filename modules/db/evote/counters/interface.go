package counters

import a "evote-node/modules/aggregate"

// Counters hands out the per-election sequential position. NextPosition is
// an atomic increment-and-fetch; deriving the position from a row count
// instead would race under concurrent casts.
type Counters interface {
	a.Plugin
	NextPosition(electionId string) (uint64, error)
	Current(electionId string) (uint64, error)
}
