package memory

import (
	"context"
	"sort"
	"sync"

	"psych-assessment-service/internal/domain"
)

// RecordStore keeps assessment records in process memory. Used when no
// database is configured and in tests.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string][]domain.AssessmentRecord // by user ID
}

func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string][]domain.AssessmentRecord)}
}

func (s *RecordStore) SaveRecord(_ context.Context, record domain.AssessmentRecord) error {
	record.Responses = record.Responses.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.UserID] = append(s.records[record.UserID], record)
	return nil
}

func (s *RecordStore) ListRecords(_ context.Context, userID string, kind domain.InstrumentKind) ([]domain.AssessmentRecord, error) {
	s.mu.RLock()
	out := make([]domain.AssessmentRecord, 0, len(s.records[userID]))
	for _, rec := range s.records[userID] {
		if kind == "" || rec.Instrument == kind {
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteUserData drops every record of userID and reports how many were removed.
func (s *RecordStore) DeleteUserData(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.records[userID])
	delete(s.records, userID)
	return n, nil
}
