package engine

import (
	"time"

	"github.com/Azzot88/artline-sub000/model"
)

// ModelSummary is a list-view row for one registered model.
type ModelSummary struct {
	ModelID    string               `json:"model_id"`
	Provider   string               `json:"provider,omitempty"`
	Modes      []string             `json:"modes,omitempty"`
	State      model.LifecycleState `json:"state"`
	Parameters int                  `json:"parameters"`
	Configured int                  `json:"configured"`
	Version    int64                `json:"version"`
	UpdatedAt  time.Time            `json:"updated_at"`
}
