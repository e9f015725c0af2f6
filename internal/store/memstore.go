package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Azzot88/artline-sub000/model"
)

// MemoryModelStore is an in-memory ModelStore for testing and single-node
// deployments.
type MemoryModelStore struct {
	mu      sync.RWMutex
	records map[string]ModelRecord // key: model ID
}

// NewMemoryModelStore creates a new in-memory model store.
func NewMemoryModelStore() *MemoryModelStore {
	return &MemoryModelStore{records: make(map[string]ModelRecord)}
}

// Create persists a new model record.
func (s *MemoryModelStore) Create(_ context.Context, rec ModelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ModelID]; exists {
		return model.NewConflictError(
			fmt.Sprintf("model %q already exists", rec.ModelID),
		)
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	rec.Version = 1
	s.records[rec.ModelID] = cloneRecord(rec)
	return nil
}

// Get retrieves a model record by ID.
func (s *MemoryModelStore) Get(_ context.Context, modelID string) (ModelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[modelID]
	if !exists {
		return ModelRecord{}, model.NewNotFoundError(
			fmt.Sprintf("model %q not found", modelID),
		)
	}
	return cloneRecord(rec), nil
}

// Update persists an updated record with optimistic locking.
func (s *MemoryModelStore) Update(_ context.Context, rec ModelRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.records[rec.ModelID]
	if !exists {
		return model.NewNotFoundError(
			fmt.Sprintf("model %q not found", rec.ModelID),
		)
	}

	// Optimistic lock check.
	if existing.Version != rec.Version {
		return model.NewConflictError(
			fmt.Sprintf("model %q version conflict (expected %d, got %d)", rec.ModelID, rec.Version, existing.Version),
		)
	}

	rec.Version++
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = time.Now().UTC()
	s.records[rec.ModelID] = cloneRecord(rec)
	return nil
}

// List returns model records ordered by model ID.
func (s *MemoryModelStore) List(_ context.Context, filters ModelFilters) ([]ModelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []ModelRecord
	for _, rec := range s.records {
		if filters.Provider != "" && rec.Provider != filters.Provider {
			continue
		}
		result = append(result, cloneRecord(rec))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ModelID < result[j].ModelID
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(result) {
			return []ModelRecord{}, nil
		}
		result = result[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(result) {
		result = result[:filters.Limit]
	}

	return result, nil
}

// Delete removes a model record.
func (s *MemoryModelStore) Delete(_ context.Context, modelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[modelID]; !exists {
		return model.NewNotFoundError(
			fmt.Sprintf("model %q not found", modelID),
		)
	}
	delete(s.records, modelID)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryModelStore) Ping(_ context.Context) error { return nil }

// Len returns the total number of records. For testing.
func (s *MemoryModelStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// cloneRecord deep-copies the mutable parts so callers never share state
// with the store.
func cloneRecord(rec ModelRecord) ModelRecord {
	out := rec
	if rec.Modes != nil {
		out.Modes = append([]string(nil), rec.Modes...)
	}
	if rec.RawSchema != nil {
		out.RawSchema = cloneMap(rec.RawSchema)
	}
	out.Document = rec.Document.Clone()
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = cloneMap(nested)
			continue
		}
		if list, ok := v.([]any); ok {
			out[k] = append([]any(nil), list...)
			continue
		}
		out[k] = v
	}
	return out
}
