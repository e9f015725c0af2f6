// Package store persists generation models: the latest raw provider schema
// snapshot alongside the administrator configuration document. Updates use
// optimistic versioning so two admins editing the same model cannot
// silently overwrite each other.
package store

import (
	"context"
	"time"

	"github.com/Azzot88/artline-sub000/model"
)

// ModelRecord is one persisted generation model.
type ModelRecord struct {
	ModelID   string               `json:"model_id"`
	Provider  string               `json:"provider,omitempty"`
	Modes     []string             `json:"modes,omitempty"`
	RawSchema map[string]any       `json:"raw_schema,omitempty"`
	Document  model.ConfigDocument `json:"document"`
	Version   int64                `json:"version"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// ModelStore persists model records.
type ModelStore interface {
	// Create persists a new model record. Returns CONFLICT if the model
	// already exists.
	Create(ctx context.Context, rec ModelRecord) error

	// Get retrieves a model record by ID. Returns NOT_FOUND if absent.
	Get(ctx context.Context, modelID string) (ModelRecord, error)

	// Update persists an updated record with optimistic locking. The
	// version must match the stored version; returns CONFLICT otherwise.
	Update(ctx context.Context, rec ModelRecord) error

	// List returns model records, optionally filtered by provider,
	// ordered by model ID.
	List(ctx context.Context, filters ModelFilters) ([]ModelRecord, error)

	// Delete removes a model record. Returns NOT_FOUND if absent.
	Delete(ctx context.Context, modelID string) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}

// ModelFilters are optional filters for listing model records.
type ModelFilters struct {
	Provider string
	Limit    int
	Offset   int
}
