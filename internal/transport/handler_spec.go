package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Azzot88/artline-sub000/internal/engine"
	"github.com/Azzot88/artline-sub000/internal/observability"
	"github.com/Azzot88/artline-sub000/model"
)

// maxBodySize bounds request bodies for payload and config endpoints.
const maxBodySize = 1 << 20

func handleGetSpec(eng *engine.Engine, m *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.RequestContextFrom(r.Context())
		if rctx == nil {
			WriteError(w, model.NewUnauthorizedError("missing request context"))
			return
		}
		modelID := chi.URLParam(r, "modelID")

		ctx, span := observability.StartSpan(r.Context(), "spec.build",
			observability.AttrModelID.String(modelID),
			observability.AttrTier.String(string(rctx.Tier)),
		)
		start := time.Now()
		spec, err := eng.UserSpec(ctx, rctx, modelID)
		observability.EndSpanWithError(span, err)
		if err != nil {
			WriteError(w, err)
			return
		}
		m.RecordSpecBuild(modelID, "user", len(spec.Parameters), time.Since(start))
		m.SetModelState(modelID, string(spec.State))
		WriteJSON(w, http.StatusOK, spec)
	}
}

func handleBuildPayload(eng *engine.Engine, m *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.RequestContextFrom(r.Context())
		if rctx == nil {
			WriteError(w, model.NewUnauthorizedError("missing request context"))
			return
		}
		modelID := chi.URLParam(r, "modelID")

		var req struct {
			Values map[string]any `json:"values"`
		}
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, err)
			return
		}

		ctx, span := observability.StartSpan(r.Context(), "payload.build",
			observability.AttrModelID.String(modelID),
			observability.AttrTier.String(string(rctx.Tier)),
		)
		start := time.Now()
		payload, err := eng.BuildPayload(ctx, rctx, modelID, req.Values)
		observability.EndSpanWithError(span, err)
		if err != nil {
			m.RecordPayloadBuild(modelID, "error", time.Since(start))
			if env, ok := err.(*model.ErrorEnvelope); ok && env.Code == model.ErrMissingRequiredValue {
				m.RecordMissingRequired(modelID)
			}
			WriteError(w, err)
			return
		}
		m.RecordPayloadBuild(modelID, "success", time.Since(start))
		WriteJSON(w, http.StatusOK, map[string]any{"payload": payload})
	}
}

// decodeBody parses a JSON request body with a size limit. An empty body
// decodes to the zero value.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return model.NewBadRequestError("failed to read request body")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return model.NewBadRequestError("request body must be valid JSON")
	}
	return nil
}
