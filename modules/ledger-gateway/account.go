package ledger_gateway

import (
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

// NewVoterAccount generates a fresh ledger account for a voter at
// registration time: an address plus the signing key encrypted as a
// keystore blob under the gateway's passphrase.
func NewVoterAccount(passphrase string) (string, []byte, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return "", nil, err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return "", nil, err
	}
	key := &keystore.Key{
		Id:         id,
		Address:    crypto.PubkeyToAddress(priv.PublicKey),
		PrivateKey: priv,
	}
	ksJson, err := keystore.EncryptKey(key, passphrase, keystore.StandardScryptN, keystore.StandardScryptP)
	if err != nil {
		return "", nil, err
	}
	return key.Address.Hex(), ksJson, nil
}
