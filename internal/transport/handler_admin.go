package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Azzot88/artline-sub000/internal/engine"
	"github.com/Azzot88/artline-sub000/internal/observability"
	"github.com/Azzot88/artline-sub000/internal/store"
	"github.com/Azzot88/artline-sub000/model"
)

func handleListCanonicalFields(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{
			"fields": eng.Registry().All(),
		})
	}
}

func handleListModels(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := store.ModelFilters{
			Provider: r.URL.Query().Get("provider"),
		}
		summaries, err := eng.ListModels(r.Context(), filters)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"models": summaries})
	}
}

func handleRegisterModel(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ModelID  string   `json:"model_id"`
			Provider string   `json:"provider"`
			Modes    []string `json:"modes"`
		}
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, err)
			return
		}
		rec, err := eng.RegisterModel(r.Context(), req.ModelID, req.Provider, req.Modes)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, rec)
	}
}

func handleDeleteModel(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")
		if err := eng.DeleteModel(r.Context(), modelID); err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusNoContent, nil)
	}
}

func handleRefreshSchema(eng *engine.Engine, m *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")

		var rawSchema map[string]any
		if err := decodeBody(r, &rawSchema); err != nil {
			WriteError(w, err)
			return
		}

		ctx, span := observability.StartSpan(r.Context(), "schema.refresh",
			observability.AttrModelID.String(modelID),
		)
		rec, staleness, err := eng.RefreshSchema(ctx, modelID, rawSchema)
		observability.EndSpanWithError(span, err)
		if err != nil {
			m.RecordSchemaRefresh(modelID, "error", 0)
			WriteError(w, err)
			return
		}
		m.RecordSchemaRefresh(modelID, "success", len(staleness.OrphanedKeys))
		WriteJSON(w, http.StatusOK, map[string]any{
			"model_id":  rec.ModelID,
			"version":   rec.Version,
			"staleness": staleness,
		})
	}
}

func handleImportOpenAPI(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")
		operationID := r.URL.Query().Get("operation_id")
		if operationID == "" {
			WriteError(w, model.NewBadRequestError("operation_id query parameter is required"))
			return
		}

		specData, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
		if err != nil || len(specData) == 0 {
			WriteError(w, model.NewBadRequestError("request body must contain an OpenAPI document"))
			return
		}

		ctx, span := observability.StartSpan(r.Context(), "schema.import_openapi",
			observability.AttrModelID.String(modelID),
		)
		rec, staleness, err := eng.ImportOpenAPI(ctx, modelID, specData, operationID)
		observability.EndSpanWithError(span, err)
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"model_id":  rec.ModelID,
			"version":   rec.Version,
			"staleness": staleness,
		})
	}
}

func handleAdminSpec(eng *engine.Engine, m *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")
		start := time.Now()
		spec, err := eng.AdminSpec(r.Context(), modelID)
		if err != nil {
			WriteError(w, err)
			return
		}
		m.RecordSpecBuild(modelID, "admin", len(spec.Parameters), time.Since(start))
		m.SetModelState(modelID, string(spec.State))
		WriteJSON(w, http.StatusOK, spec)
	}
}

func handleUpsertParameter(eng *engine.Engine, m *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")
		paramID := chi.URLParam(r, "paramID")

		patch, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			WriteError(w, model.NewBadRequestError("failed to read request body"))
			return
		}

		ctx, span := observability.StartSpan(r.Context(), "config.upsert",
			observability.AttrModelID.String(modelID),
			observability.AttrParamID.String(paramID),
		)
		warnings, err := eng.UpsertParameter(ctx, modelID, paramID, json.RawMessage(patch))
		observability.EndSpanWithError(span, err)
		if err != nil {
			m.RecordConfigUpsert(modelID, "error", 0)
			WriteError(w, err)
			return
		}
		m.RecordConfigUpsert(modelID, "success", len(warnings))
		WriteJSON(w, http.StatusOK, map[string]any{
			"param_id": paramID,
			"warnings": warnings,
		})
	}
}

func handleRemoveParameter(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")
		paramID := chi.URLParam(r, "paramID")
		if err := eng.RemoveParameter(r.Context(), modelID, paramID); err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusNoContent, nil)
	}
}

func handleAddValue(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")
		paramID := chi.URLParam(r, "paramID")

		var entry model.ParameterValue
		if err := decodeBody(r, &entry); err != nil {
			WriteError(w, err)
			return
		}
		if err := eng.AddValue(r.Context(), modelID, paramID, entry); err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, map[string]any{"param_id": paramID})
	}
}

func handleRemoveValue(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")
		paramID := chi.URLParam(r, "paramID")

		var req struct {
			Value any `json:"value"`
		}
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, err)
			return
		}
		if err := eng.RemoveValue(r.Context(), modelID, paramID, req.Value); err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusNoContent, nil)
	}
}

func handleSetDefaultValue(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		modelID := chi.URLParam(r, "modelID")
		paramID := chi.URLParam(r, "paramID")

		var req struct {
			Value any `json:"value"`
		}
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, err)
			return
		}
		if err := eng.SetDefaultValue(r.Context(), modelID, paramID, req.Value); err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"param_id": paramID})
	}
}
