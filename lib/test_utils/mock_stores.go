package test_utils

import (
	"context"
	"sync"
	"time"

	"evote-node/modules/db/evote/audit"
	"evote-node/modules/db/evote/counters"
	"evote-node/modules/db/evote/credentials"
	"evote-node/modules/db/evote/elections"
	"evote-node/modules/db/evote/voters"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
)

type MockVoters struct {
	MockPlugin

	mu     sync.Mutex
	Voters map[string]voters.VoterRecord
}

var _ voters.Voters = &MockVoters{}

func NewMockVoters() *MockVoters {
	return &MockVoters{Voters: make(map[string]voters.VoterRecord)}
}

// StoreVoter implements voters.Voters.
func (m *MockVoters) StoreVoter(voter voters.VoterRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Voters[voter.VoterId] = voter
	return nil
}

// GetVoter implements voters.Voters.
func (m *MockVoters) GetVoter(voterId string) (*voters.VoterRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.Voters[voterId]; ok {
		return &v, nil
	}
	return nil, nil
}

type MockElections struct {
	MockPlugin

	mu        sync.Mutex
	Elections map[string]*elections.ElectionRecord
}

var _ elections.Elections = &MockElections{}

func NewMockElections() *MockElections {
	return &MockElections{Elections: make(map[string]*elections.ElectionRecord)}
}

// StoreElection implements elections.Elections.
func (m *MockElections) StoreElection(election elections.ElectionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Elections[election.ElectionId] = &election
	return nil
}

// GetElection implements elections.Elections.
func (m *MockElections) GetElection(electionId string) (*elections.ElectionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.Elections[electionId]; ok {
		cp := *e
		cp.Contestants = append([]elections.Contestant(nil), e.Contestants...)
		return &cp, nil
	}
	return nil, nil
}

// IncrementContestantVotes implements elections.Elections.
func (m *MockElections) IncrementContestantVotes(ctx context.Context, electionId string, contestantId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Elections[electionId]
	if !ok {
		return nil
	}
	for i := range e.Contestants {
		if e.Contestants[i].ContestantId == contestantId {
			e.Contestants[i].Votes++
			e.TotalVotes++
		}
	}
	return nil
}

// ResetVoteCounts implements elections.Elections.
func (m *MockElections) ResetVoteCounts(electionId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Elections[electionId]
	if !ok {
		return nil
	}
	for i := range e.Contestants {
		e.Contestants[i].Votes = 0
	}
	e.TotalVotes = 0
	return nil
}

func (m *MockElections) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*elections.ElectionRecord, len(m.Elections))
	for k, e := range m.Elections {
		cp := *e
		cp.Contestants = append([]elections.Contestant(nil), e.Contestants...)
		saved[k] = &cp
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Elections = saved
	}
}

type MockCounters struct {
	MockPlugin

	mu   sync.Mutex
	Seqs map[string]uint64
}

var _ counters.Counters = &MockCounters{}

func NewMockCounters() *MockCounters {
	return &MockCounters{Seqs: make(map[string]uint64)}
}

// NextPosition implements counters.Counters.
func (m *MockCounters) NextPosition(electionId string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Seqs[electionId]++
	return m.Seqs[electionId], nil
}

// Current implements counters.Counters.
func (m *MockCounters) Current(electionId string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Seqs[electionId], nil
}

type MockAuditLog struct {
	MockPlugin

	mu      sync.Mutex
	Entries []audit.AuditEntry
}

var _ audit.AuditLog = &MockAuditLog{}

func NewMockAuditLog() *MockAuditLog {
	return &MockAuditLog{Entries: make([]audit.AuditEntry, 0)}
}

// Append implements audit.AuditLog.
func (m *MockAuditLog) Append(entry audit.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.EntryId == "" {
		entry.EntryId = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

// ListByVoter implements audit.AuditLog.
func (m *MockAuditLog) ListByVoter(voterId string, limit optional.Option[int64]) ([]audit.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.AuditEntry, 0)
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.Entries[i].VoterId == voterId {
			out = append(out, m.Entries[i])
			if limit.IsSome() && int64(len(out)) == limit.Unwrap() {
				break
			}
		}
	}
	return out, nil
}

// MockCredentials enforces the same active-uniqueness rules as the real
// collection's partial indexes.
type MockCredentials struct {
	MockPlugin

	mu    sync.Mutex
	Creds map[string]*credentials.CredentialRecord // keyed by credential_id
	Keys  map[string][]byte
}

var _ credentials.Credentials = &MockCredentials{}

func NewMockCredentials() *MockCredentials {
	return &MockCredentials{
		Creds: make(map[string]*credentials.CredentialRecord),
		Keys:  make(map[string][]byte),
	}
}

// Store implements credentials.Credentials.
func (m *MockCredentials) Store(cred credentials.CredentialRecord, key credentials.KeyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Creds {
		if c.IsActive && (c.VoterId == cred.VoterId || c.SampleHash == cred.SampleHash) {
			return credentials.ErrDuplicate
		}
	}
	m.Creds[cred.CredentialId] = &cred
	m.Keys[key.CredentialId] = key.PrivateKey
	return nil
}

// GetActiveByVoter implements credentials.Credentials.
func (m *MockCredentials) GetActiveByVoter(voterId string) (*credentials.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Creds {
		if c.IsActive && c.VoterId == voterId {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

// GetActiveByHash implements credentials.Credentials.
func (m *MockCredentials) GetActiveByHash(sampleHash string) (*credentials.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Creds {
		if c.IsActive && c.SampleHash == sampleHash {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

// GetById implements credentials.Credentials.
func (m *MockCredentials) GetById(credentialId string) (*credentials.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.Creds[credentialId]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

// Deactivate implements credentials.Credentials.
func (m *MockCredentials) Deactivate(voterId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Creds {
		if c.VoterId == voterId {
			c.IsActive = false
		}
	}
	return nil
}

// TouchLastUsed implements credentials.Credentials.
func (m *MockCredentials) TouchLastUsed(voterId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, c := range m.Creds {
		if c.IsActive && c.VoterId == voterId {
			c.LastUsed = &now
		}
	}
	return nil
}

// GetPrivateKey implements credentials.Credentials.
func (m *MockCredentials) GetPrivateKey(credentialId string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Keys[credentialId], nil
}
