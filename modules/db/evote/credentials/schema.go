package credentials

import "time"

// CredentialRecord stores one voter's biometric enrollment. The raw sample
// never touches the database: only its duplicate-detection hash, the
// sample ciphertext, and the per-credential symmetric key wrapped under a
// fresh asymmetric public key. The matching private key lives in a
// separate collection (see KeyRecord).
//
// Immutable after creation except for is_active and last_used.
type CredentialRecord struct {
	CredentialId string `json:"credential_id" bson:"credential_id"`
	VoterId      string `json:"voter_id" bson:"voter_id"`

	// hex encoded SHA-256 of the raw sample, unique among active credentials
	SampleHash string `json:"sample_hash" bson:"sample_hash"`

	EncryptedSample []byte `json:"encrypted_sample" bson:"encrypted_sample"`
	WrappedKey      []byte `json:"wrapped_key" bson:"wrapped_key"`
	PublicKey       []byte `json:"public_key" bson:"public_key"`

	IsActive  bool       `json:"is_active" bson:"is_active"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty" bson:"last_used,omitempty"`
}

// KeyRecord is the private counterpart of a credential's wrapping key,
// stored apart from the credential row itself.
type KeyRecord struct {
	CredentialId string `json:"credential_id" bson:"credential_id"`
	PrivateKey   []byte `json:"private_key" bson:"private_key"`
}
