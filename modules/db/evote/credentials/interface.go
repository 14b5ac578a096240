package credentials

import (
	"errors"

	a "evote-node/modules/aggregate"
)

// ErrDuplicate is returned when the unique indexes reject an insert: either
// the voter already holds an active credential or the sample hash is
// already enrolled.
var ErrDuplicate = errors.New("credential already exists")

type Credentials interface {
	a.Plugin
	Store(cred CredentialRecord, key KeyRecord) error
	GetActiveByVoter(voterId string) (*CredentialRecord, error)
	GetActiveByHash(sampleHash string) (*CredentialRecord, error)
	GetById(credentialId string) (*CredentialRecord, error)
	Deactivate(voterId string) error
	TouchLastUsed(voterId string) error
	GetPrivateKey(credentialId string) ([]byte, error)
}
