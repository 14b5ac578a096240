package voters

import a "evote-node/modules/aggregate"

type Voters interface {
	a.Plugin
	StoreVoter(voter VoterRecord) error
	GetVoter(voterId string) (*VoterRecord, error)
}
