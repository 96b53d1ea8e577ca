package memory

import (
	"context"
	"sync"

	"arith-quiz-service/internal/domain"
)

// HistoryStore keeps per-user history in process memory.
type HistoryStore struct {
	mu      sync.RWMutex
	records map[string][]domain.HistoryRecord
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{records: make(map[string][]domain.HistoryRecord)}
}

func (h *HistoryStore) Append(_ context.Context, userID string, record domain.HistoryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records[userID] = append(h.records[userID], record)
	return nil
}

func (h *HistoryStore) List(_ context.Context, userID string) ([]domain.HistoryRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]domain.HistoryRecord{}, h.records[userID]...), nil
}

func (h *HistoryStore) ListAll(_ context.Context) (map[string][]domain.HistoryRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string][]domain.HistoryRecord, len(h.records))
	for userID, records := range h.records {
		out[userID] = append([]domain.HistoryRecord(nil), records...)
	}
	return out, nil
}
