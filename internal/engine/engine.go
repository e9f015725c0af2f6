// Package engine coordinates the parameter normalization pipeline: schema
// refreshes, configuration edits, spec assembly, and payload construction,
// all on top of the model store and the canonical registry.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azzot88/artline-sub000/internal/canonical"
	"github.com/Azzot88/artline-sub000/internal/genspec"
	"github.com/Azzot88/artline-sub000/internal/paramconfig"
	"github.com/Azzot88/artline-sub000/internal/schema"
	"github.com/Azzot88/artline-sub000/internal/store"
	"github.com/Azzot88/artline-sub000/model"
)

// Engine manages generation models and their resolved specs.
type Engine struct {
	registry *canonical.Registry
	store    store.ModelStore
}

// NewEngine creates a new engine.
func NewEngine(registry *canonical.Registry, st store.ModelStore) *Engine {
	return &Engine{registry: registry, store: st}
}

// Registry exposes the canonical field registry for read endpoints.
func (e *Engine) Registry() *canonical.Registry { return e.registry }

// Store exposes the model store for health checks.
func (e *Engine) Store() store.ModelStore { return e.store }

// RegisterModel creates an empty model record. The model stays in the
// unconfigured state until a schema refresh.
func (e *Engine) RegisterModel(ctx context.Context, modelID, provider string, modes []string) (store.ModelRecord, error) {
	if modelID == "" {
		return store.ModelRecord{}, model.NewBadRequestError("model id is required")
	}
	rec := store.ModelRecord{
		ModelID:  modelID,
		Provider: provider,
		Modes:    modes,
	}
	if err := e.store.Create(ctx, rec); err != nil {
		return store.ModelRecord{}, err
	}
	return e.store.Get(ctx, modelID)
}

// RefreshSchema replaces a model's raw schema snapshot. The configuration
// document is untouched; drift between the new schema and the existing
// config surfaces in the returned staleness report, not as an error. A
// schema the scanner finds no parameters in is rejected.
//
// Refreshing an unknown model registers it first, so providers can be
// onboarded with a single call.
func (e *Engine) RefreshSchema(ctx context.Context, modelID string, rawSchema map[string]any) (store.ModelRecord, model.StalenessReport, error) {
	if len(schema.Scan(rawSchema)) == 0 {
		return store.ModelRecord{}, model.StalenessReport{}, &model.ErrorEnvelope{
			Code:    model.ErrMalformedSchema,
			Message: "schema contains no recognizable parameter definitions",
		}
	}

	rec, err := e.store.Get(ctx, modelID)
	if isNotFound(err) {
		rec, err = e.RegisterModel(ctx, modelID, "", nil)
	}
	if err != nil {
		return store.ModelRecord{}, model.StalenessReport{}, err
	}

	rec.RawSchema = rawSchema
	if err := e.store.Update(ctx, rec); err != nil {
		return store.ModelRecord{}, model.StalenessReport{}, err
	}

	rec, err = e.store.Get(ctx, modelID)
	if err != nil {
		return store.ModelRecord{}, model.StalenessReport{}, err
	}
	spec := genspec.Build(modelID, rec.RawSchema, rec.Document, e.registry, genspec.Options{IncludeDisabled: true})
	return rec, spec.Staleness, nil
}

// ImportOpenAPI refreshes a model's schema from an OpenAPI document: the
// request-body schema of the named operation becomes the raw schema.
func (e *Engine) ImportOpenAPI(ctx context.Context, modelID string, specData []byte, operationID string) (store.ModelRecord, model.StalenessReport, error) {
	doc, err := schema.LoadSpecData(specData)
	if err != nil {
		return store.ModelRecord{}, model.StalenessReport{}, model.NewBadRequestError(
			fmt.Sprintf("invalid OpenAPI document: %v", err),
		)
	}
	raw, err := schema.ImportOperation(doc, operationID)
	if err != nil {
		return store.ModelRecord{}, model.StalenessReport{}, err
	}
	return e.RefreshSchema(ctx, modelID, raw)
}

// AdminSpec builds the full resolved spec for admin views: every
// parameter, disabled and orphaned ones included.
func (e *Engine) AdminSpec(ctx context.Context, modelID string) (genspec.Spec, error) {
	rec, err := e.store.Get(ctx, modelID)
	if err != nil {
		return genspec.Spec{}, err
	}
	return genspec.Build(modelID, rec.RawSchema, rec.Document, e.registry, genspec.Options{IncludeDisabled: true}), nil
}

// UserSpec builds the spec a client renders: disabled parameters filtered,
// tier gating applied from the request context.
func (e *Engine) UserSpec(ctx context.Context, rctx *model.RequestContext, modelID string) (genspec.Spec, error) {
	rec, err := e.store.Get(ctx, modelID)
	if err != nil {
		return genspec.Spec{}, err
	}
	spec := genspec.Build(modelID, rec.RawSchema, rec.Document, e.registry, genspec.Options{})
	return genspec.FilterForTier(spec, rctx.Tier), nil
}

// UpsertParameter applies a partial config patch to one parameter and
// persists the updated document. Returns the non-fatal warnings the edit
// produced.
func (e *Engine) UpsertParameter(ctx context.Context, modelID, paramID string, patch json.RawMessage) ([]string, error) {
	rec, err := e.store.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}
	raw := schema.FindDefinition(paramID, rec.RawSchema)
	doc, warnings, err := paramconfig.Upsert(rec.Document, e.registry, raw, paramID, patch)
	if err != nil {
		return nil, err
	}
	rec.Document = doc
	if err := e.store.Update(ctx, rec); err != nil {
		return nil, err
	}
	return warnings, nil
}

// RemoveParameter deletes one parameter's configuration, restoring its
// raw-schema defaults.
func (e *Engine) RemoveParameter(ctx context.Context, modelID, paramID string) error {
	rec, err := e.store.Get(ctx, modelID)
	if err != nil {
		return err
	}
	if _, ok := rec.Document.UIConfig[paramID]; !ok {
		return model.NewNotFoundError(
			fmt.Sprintf("parameter %q is not configured", paramID),
		)
	}
	rec.Document = paramconfig.Remove(rec.Document, paramID)
	return e.store.Update(ctx, rec)
}

// AddValue appends an entry to a parameter's discrete value list.
func (e *Engine) AddValue(ctx context.Context, modelID, paramID string, entry model.ParameterValue) error {
	return e.editDocument(ctx, modelID, func(doc model.ConfigDocument) (model.ConfigDocument, error) {
		return paramconfig.AddValue(doc, paramID, entry)
	})
}

// RemoveValue drops an entry from a parameter's discrete value list.
func (e *Engine) RemoveValue(ctx context.Context, modelID, paramID string, value any) error {
	return e.editDocument(ctx, modelID, func(doc model.ConfigDocument) (model.ConfigDocument, error) {
		return paramconfig.RemoveValue(doc, paramID, value), nil
	})
}

// SetDefaultValue marks one entry of a parameter's value list as default.
func (e *Engine) SetDefaultValue(ctx context.Context, modelID, paramID string, value any) error {
	return e.editDocument(ctx, modelID, func(doc model.ConfigDocument) (model.ConfigDocument, error) {
		return paramconfig.SetDefaultValue(doc, paramID, value)
	})
}

// BuildPayload resolves the model for the requesting tier and converts the
// user's selections into the provider request body.
func (e *Engine) BuildPayload(ctx context.Context, rctx *model.RequestContext, modelID string, userValues map[string]any) (map[string]any, error) {
	spec, err := e.UserSpec(ctx, rctx, modelID)
	if err != nil {
		return nil, err
	}
	return genspec.BuildPayload(spec.Parameters, userValues)
}

// ListModels returns registered models with their lifecycle state.
func (e *Engine) ListModels(ctx context.Context, filters store.ModelFilters) ([]ModelSummary, error) {
	records, err := e.store.List(ctx, filters)
	if err != nil {
		return nil, err
	}
	summaries := make([]ModelSummary, 0, len(records))
	for _, rec := range records {
		spec := genspec.Build(rec.ModelID, rec.RawSchema, rec.Document, e.registry, genspec.Options{IncludeDisabled: true})
		summaries = append(summaries, ModelSummary{
			ModelID:    rec.ModelID,
			Provider:   rec.Provider,
			Modes:      rec.Modes,
			State:      spec.State,
			Parameters: len(spec.Parameters),
			Configured: len(rec.Document.UIConfig),
			Version:    rec.Version,
			UpdatedAt:  rec.UpdatedAt,
		})
	}
	return summaries, nil
}

// DeleteModel removes a model record entirely.
func (e *Engine) DeleteModel(ctx context.Context, modelID string) error {
	return e.store.Delete(ctx, modelID)
}

func (e *Engine) editDocument(ctx context.Context, modelID string, edit func(model.ConfigDocument) (model.ConfigDocument, error)) error {
	rec, err := e.store.Get(ctx, modelID)
	if err != nil {
		return err
	}
	doc, err := edit(rec.Document)
	if err != nil {
		return err
	}
	rec.Document = doc
	return e.store.Update(ctx, rec)
}

func isNotFound(err error) bool {
	env, ok := err.(*model.ErrorEnvelope)
	return ok && env.Code == model.ErrNotFound
}
