package test_utils

import (
	"context"
	"sort"
	"sync"
	"time"

	"evote-node/modules/db/evote/positions"
	"evote-node/modules/db/evote/tallies"
)

type tallyKey struct {
	electionId  string
	level       tallies.Level
	unitId      string
	candidateId string
}

type MockTallies struct {
	MockPlugin

	mu     sync.Mutex
	Counts map[tallyKey]uint64
}

var _ tallies.Tallies = &MockTallies{}

func NewMockTallies() *MockTallies {
	return &MockTallies{Counts: make(map[tallyKey]uint64)}
}

// Increment implements tallies.Tallies.
func (m *MockTallies) Increment(ctx context.Context, electionId string, level tallies.Level, unitId string, candidateId string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := tallyKey{electionId, level, unitId, candidateId}
	m.Counts[key]++
	return m.Counts[key], nil
}

// Breakdown implements tallies.Tallies.
func (m *MockTallies) Breakdown(electionId string, level tallies.Level, unitId string) ([]tallies.TallyRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]tallies.TallyRow, 0)
	for k, c := range m.Counts {
		if k.electionId == electionId && k.level == level && k.unitId == unitId {
			out = append(out, tallies.TallyRow{
				ElectionId:  k.electionId,
				Level:       k.level,
				UnitId:      k.unitId,
				CandidateId: k.candidateId,
				Count:       c,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].CandidateId < out[j].CandidateId
	})
	return out, nil
}

// Leading implements tallies.Tallies.
func (m *MockTallies) Leading(electionId string, level tallies.Level, unitId string) (*tallies.TallyRow, error) {
	rows, err := m.Breakdown(electionId, level, unitId)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// DeleteForElection implements tallies.Tallies.
func (m *MockTallies) DeleteForElection(electionId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.Counts {
		if k.electionId == electionId {
			delete(m.Counts, k)
		}
	}
	return nil
}

func (m *MockTallies) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[tallyKey]uint64, len(m.Counts))
	for k, c := range m.Counts {
		saved[k] = c
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Counts = saved
	}
}

type positionKey struct {
	voteId string
	level  tallies.Level
}

type MockPositions struct {
	MockPlugin

	mu      sync.Mutex
	Entries map[positionKey]positions.PositionEntry

	// when set, the next Record call fails with this error
	RecordErr error
}

var _ positions.Positions = &MockPositions{}

func NewMockPositions() *MockPositions {
	return &MockPositions{Entries: make(map[positionKey]positions.PositionEntry)}
}

// Record implements positions.Positions.
func (m *MockPositions) Record(ctx context.Context, entry positions.PositionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RecordErr != nil {
		err := m.RecordErr
		m.RecordErr = nil
		return err
	}
	key := positionKey{entry.VoteId, entry.Level}
	if _, ok := m.Entries[key]; ok {
		return positions.ErrDuplicateEntry
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	m.Entries[key] = entry
	return nil
}

// Exists implements positions.Positions.
func (m *MockPositions) Exists(ctx context.Context, voteId string, level tallies.Level) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Entries[positionKey{voteId, level}]
	return ok, nil
}

// ListByVoter implements positions.Positions.
func (m *MockPositions) ListByVoter(voterId string, electionId string) ([]positions.PositionEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]positions.PositionEntry, 0)
	for _, e := range m.Entries {
		if e.VoterId == voterId && e.ElectionId == electionId {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return levelIndex(out[i].Level) < levelIndex(out[j].Level)
	})
	return out, nil
}

// DeleteForElection implements positions.Positions.
func (m *MockPositions) DeleteForElection(electionId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.Entries {
		if e.ElectionId == electionId {
			delete(m.Entries, k)
		}
	}
	return nil
}

func (m *MockPositions) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[positionKey]positions.PositionEntry, len(m.Entries))
	for k, e := range m.Entries {
		saved[k] = e
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.Entries = saved
	}
}

func levelIndex(level tallies.Level) int {
	for i, l := range tallies.Levels {
		if l == level {
			return i
		}
	}
	return len(tallies.Levels)
}
