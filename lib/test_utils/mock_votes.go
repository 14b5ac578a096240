package test_utils

import (
	"context"
	"sort"
	"sync"
	"time"

	"evote-node/lib/utils"
	"evote-node/modules/db/evote/votes"

	"github.com/moznion/go-optional"
)

// MockVotes mirrors the Mongo-backed vote collection, including its unique
// (voter, election) index and the compare-and-swap status transitions.
type MockVotes struct {
	MockPlugin

	mu      sync.Mutex
	Records map[string]*votes.VoteRecord // keyed by vote_id
}

var _ votes.Votes = &MockVotes{}

func NewMockVotes() *MockVotes {
	return &MockVotes{Records: make(map[string]*votes.VoteRecord)}
}

// InsertPending implements votes.Votes.
func (m *MockVotes) InsertPending(record votes.VoteRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Records {
		if r.VoterId == record.VoterId && r.ElectionId == record.ElectionId {
			return votes.ErrDuplicateVote
		}
	}
	record.Status = votes.VoteStatusPendingChain
	if record.CastAt.IsZero() {
		record.CastAt = time.Now().UTC()
	}
	record.StatusAt = record.CastAt
	m.Records[record.VoteId] = &record
	return nil
}

// GetVote implements votes.Votes.
func (m *MockVotes) GetVote(voterId string, electionId string) (*votes.VoteRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.Records {
		if r.VoterId == voterId && r.ElectionId == electionId {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

// SetTxHandle implements votes.Votes.
func (m *MockVotes) SetTxHandle(voteId string, txHandle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.Records[voteId]; ok && r.Status == votes.VoteStatusPendingChain {
		r.TxHandle = &txHandle
	}
	return nil
}

// IncrementRetry implements votes.Votes.
func (m *MockVotes) IncrementRetry(voteId string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Records[voteId]
	if !ok {
		return 0, nil
	}
	r.RetryCount++
	return r.RetryCount, nil
}

// SetLastError implements votes.Votes.
func (m *MockVotes) SetLastError(voteId string, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.Records[voteId]; ok {
		r.LastError = &lastError
	}
	return nil
}

// ConfirmSuccess implements votes.Votes.
func (m *MockVotes) ConfirmSuccess(voteId string) (bool, error) {
	return m.transition(voteId, votes.VoteStatusSuccess, nil)
}

// MarkFailed implements votes.Votes.
func (m *MockVotes) MarkFailed(voteId string, reason string) (bool, error) {
	return m.transition(voteId, votes.VoteStatusFailed, &reason)
}

func (m *MockVotes) transition(voteId string, to votes.VoteStatus, reason *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.Records[voteId]
	if !ok || r.Status != votes.VoteStatusPendingChain {
		return false, nil
	}
	r.Status = to
	r.StatusAt = time.Now().UTC()
	if reason != nil {
		r.LastError = reason
	}
	return true, nil
}

// MarkTallied implements votes.Votes.
func (m *MockVotes) MarkTallied(ctx context.Context, voteId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.Records[voteId]; ok && r.Status == votes.VoteStatusSuccess {
		r.Tallied = true
	}
	return nil
}

// FlagForReview implements votes.Votes.
func (m *MockVotes) FlagForReview(voteId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.Records[voteId]; ok {
		r.Flagged = true
	}
	return nil
}

// FindPending implements votes.Votes.
func (m *MockVotes) FindPending(limit optional.Option[int64]) ([]votes.VoteRecord, error) {
	out := m.filter(func(r *votes.VoteRecord) bool {
		return r.Status == votes.VoteStatusPendingChain && !r.Flagged
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CastAt.Before(out[j].CastAt) })
	if limit.IsSome() && int64(len(out)) > limit.Unwrap() {
		out = out[:limit.Unwrap()]
	}
	return out, nil
}

// FindUntallied implements votes.Votes.
func (m *MockVotes) FindUntallied() ([]votes.VoteRecord, error) {
	out := m.filter(func(r *votes.VoteRecord) bool {
		return r.Status == votes.VoteStatusSuccess && !r.Tallied
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// ListSuccess implements votes.Votes.
func (m *MockVotes) ListSuccess(electionId string) ([]votes.VoteRecord, error) {
	out := m.filter(func(r *votes.VoteRecord) bool {
		return r.ElectionId == electionId && r.Status == votes.VoteStatusSuccess
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// ListFlagged implements votes.Votes.
func (m *MockVotes) ListFlagged(electionId string) ([]votes.VoteRecord, error) {
	out := m.filter(func(r *votes.VoteRecord) bool {
		return r.ElectionId == electionId && r.Flagged
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CastAt.Before(out[j].CastAt) })
	return out, nil
}

// CountPending implements votes.Votes.
func (m *MockVotes) CountPending(electionId string) (int64, error) {
	out := m.filter(func(r *votes.VoteRecord) bool {
		return r.ElectionId == electionId && r.Status == votes.VoteStatusPendingChain
	})
	return int64(len(out)), nil
}

func (m *MockVotes) filter(pred func(*votes.VoteRecord) bool) []votes.VoteRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]*votes.VoteRecord, 0, len(m.Records))
	for _, r := range m.Records {
		all = append(all, r)
	}
	return utils.Map(utils.Filter(all, pred), func(r *votes.VoteRecord) votes.VoteRecord {
		return *r
	})
}

func (m *MockVotes) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*votes.VoteRecord, len(m.Records))
	for k, r := range m.Records {
		cp := *r
		saved[k] = &cp
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Records = saved
	}
}
