package credential_store

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"evote-node/lib/logger"
	"evote-node/lib/utils"
	a "evote-node/modules/aggregate"
	"evote-node/modules/db/evote/audit"
	"evote-node/modules/db/evote/credentials"

	"github.com/chebyrash/promise"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/ecies"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrAlreadyRegistered = errors.New("voter already has an active credential")
	ErrDuplicateSample   = errors.New("biometric sample already enrolled")
	ErrNotRegistered     = errors.New("voter has no active credential")
	ErrEmptySample       = errors.New("biometric sample is empty")
)

// CredentialStore enrolls one biometric credential per voter and answers
// verification queries against it. Matching is an exact comparison of the
// sample's hash against the enrolled hash; any bit difference in the
// presented sample fails verification. Every register/verify attempt is
// written to the audit log regardless of outcome.
type CredentialStore struct {
	creds    credentials.Credentials
	auditLog audit.AuditLog
	log      logger.Logger
}

var _ a.Plugin = &CredentialStore{}

func New(creds credentials.Credentials, auditLog audit.AuditLog) *CredentialStore {
	return &CredentialStore{
		creds:    creds,
		auditLog: auditLog,
		log:      logger.NewPrefixedLogger("credential-store"),
	}
}

// Init implements aggregate.Plugin.
func (cs *CredentialStore) Init() error {
	return nil
}

// Start implements aggregate.Plugin.
func (cs *CredentialStore) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

// Stop implements aggregate.Plugin.
func (cs *CredentialStore) Stop() error {
	return nil
}

// HashSample computes the duplicate-detection hash of a raw sample.
func HashSample(sample []byte) string {
	sum := sha256.Sum256(sample)
	return hex.EncodeToString(sum[:])
}

// Register enrolls a voter's sample. The sample is encrypted under a fresh
// symmetric key; the key is wrapped under a fresh ECIES public key whose
// private half is persisted apart from the credential row.
func (cs *CredentialStore) Register(voterId string, sample []byte, caller audit.CallerMeta) (*credentials.CredentialRecord, error) {
	if len(sample) == 0 {
		return nil, ErrEmptySample
	}

	existing, err := cs.creds.GetActiveByVoter(voterId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		cs.auditFailure(voterId, audit.PurposeRegistration, "already registered", caller)
		return nil, ErrAlreadyRegistered
	}

	sampleHash := HashSample(sample)
	dup, err := cs.creds.GetActiveByHash(sampleHash)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		cs.auditFailure(voterId, audit.PurposeRegistration, "duplicate sample", caller)
		return nil, ErrDuplicateSample
	}

	symKey := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(symKey); err != nil {
		return nil, err
	}
	encryptedSample, err := sealSample(symKey, sample)
	if err != nil {
		return nil, err
	}

	wrapKey, err := ecies.GenerateKey(rand.Reader, crypto.S256(), nil)
	if err != nil {
		return nil, err
	}
	wrapped, err := ecies.Encrypt(rand.Reader, &wrapKey.PublicKey, symKey, nil, nil)
	if err != nil {
		return nil, err
	}

	cred := credentials.CredentialRecord{
		CredentialId:    uuid.NewString(),
		VoterId:         voterId,
		SampleHash:      sampleHash,
		EncryptedSample: encryptedSample,
		WrappedKey:      wrapped,
		PublicKey:       crypto.FromECDSAPub(&wrapKey.ExportECDSA().PublicKey),
		IsActive:        true,
		CreatedAt:       time.Now().UTC(),
	}
	key := credentials.KeyRecord{
		CredentialId: cred.CredentialId,
		PrivateKey:   crypto.FromECDSA(wrapKey.ExportECDSA()),
	}

	if err := cs.creds.Store(cred, key); err != nil {
		if errors.Is(err, credentials.ErrDuplicate) {
			// lost a race against a concurrent enrollment of the same
			// sample or voter; the index decided, we just report it
			cs.auditFailure(voterId, audit.PurposeRegistration, "duplicate on insert", caller)
			return nil, ErrDuplicateSample
		}
		return nil, err
	}

	cs.audit(audit.AuditEntry{
		VoterId: voterId,
		Purpose: audit.PurposeRegistration,
		Outcome: true,
		Caller:  caller,
	})
	cs.log.Info("credential registered", "voter_id", voterId)
	return &cred, nil
}

// Verify recomputes the presented sample's hash and compares it byte for
// byte against the enrolled hash. No decryption and no distance metric are
// involved in the decision.
func (cs *CredentialStore) Verify(voterId string, sample []byte, caller audit.CallerMeta) (bool, error) {
	cred, err := cs.creds.GetActiveByVoter(voterId)
	if err != nil {
		return false, err
	}
	if cred == nil {
		cs.auditFailure(voterId, audit.PurposeVerification, "not registered", caller)
		return false, ErrNotRegistered
	}

	match := hmac.Equal([]byte(HashSample(sample)), []byte(cred.SampleHash))
	cs.audit(audit.AuditEntry{
		VoterId: voterId,
		Purpose: audit.PurposeVerification,
		Outcome: match,
		Caller:  caller,
	})
	return match, nil
}

// TouchLastUsed records that a successful verification was consumed by a
// vote cast.
func (cs *CredentialStore) TouchLastUsed(voterId string) error {
	return cs.creds.TouchLastUsed(voterId)
}

// Revoke deactivates a voter's credential. The row is kept for audit; the
// voter may not re-enroll while any active credential exists elsewhere with
// the same sample hash.
func (cs *CredentialStore) Revoke(voterId string, caller audit.CallerMeta) error {
	if err := cs.creds.Deactivate(voterId); err != nil {
		return err
	}
	cs.audit(audit.AuditEntry{
		VoterId: voterId,
		Purpose: audit.PurposeRevocation,
		Outcome: true,
		Caller:  caller,
	})
	return nil
}

// RevealSample decrypts an enrolled sample for administrative inspection:
// unwraps the symmetric key with the stored private key, then opens the
// sample ciphertext.
func (cs *CredentialStore) RevealSample(credentialId string) ([]byte, error) {
	cred, err := cs.creds.GetById(credentialId)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNotRegistered
	}

	privBytes, err := cs.creds.GetPrivateKey(credentialId)
	if err != nil {
		return nil, err
	}
	ecdsaPriv, err := crypto.ToECDSA(privBytes)
	if err != nil {
		return nil, err
	}
	symKey, err := ecies.ImportECDSA(ecdsaPriv).Decrypt(cred.WrappedKey, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrapping sample key: %w", err)
	}
	return openSample(symKey, cred.EncryptedSample)
}

// History returns a voter's biometric audit trail, newest first.
func (cs *CredentialStore) History(voterId string, limit optional.Option[int64]) ([]audit.AuditEntry, error) {
	return cs.auditLog.ListByVoter(voterId, limit)
}

func (cs *CredentialStore) audit(entry audit.AuditEntry) {
	if err := cs.auditLog.Append(entry); err != nil {
		cs.log.Error("audit append failed", "voter_id", entry.VoterId, "err", err)
	}
}

func (cs *CredentialStore) auditFailure(voterId string, purpose audit.Purpose, detail string, caller audit.CallerMeta) {
	cs.audit(audit.AuditEntry{
		VoterId: voterId,
		Purpose: purpose,
		Outcome: false,
		Detail:  detail,
		Caller:  caller,
	})
}

func sealSample(key []byte, sample []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, sample, nil), nil
}

func openSample(key []byte, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("sealed sample too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}
