package model

import (
	"context"
	"errors"
	"slices"
)

// RequestContext carries the verified identity of the caller for the
// lifetime of one request: who they are, which pricing tier their
// account is on, and the correlation/trace IDs stamped on the request.
// It is built once by the transport layer and read-only after that.
type RequestContext struct {
	SubjectID     string
	Email         string
	Tier          Tier
	Roles         []string
	Claims        map[string]any
	CorrelationID string
	TraceID       string
}

// Validate reports whether the mandatory identity fields are present.
func (rc *RequestContext) Validate() error {
	if rc.SubjectID == "" {
		return errors.New("subject id is required")
	}
	if rc.Tier == "" {
		return errors.New("tier is required")
	}
	return nil
}

// HasRole reports whether the caller holds the given role.
func (rc *RequestContext) HasRole(role string) bool {
	return slices.Contains(rc.Roles, role)
}

// Claim returns a raw token claim by name, or nil if absent.
func (rc *RequestContext) Claim(key string) any {
	return rc.Claims[key]
}

type contextKey struct{}

// WithRequestContext attaches a RequestContext to the given context.
func WithRequestContext(ctx context.Context, rctx *RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rctx)
}

// RequestContextFrom extracts the RequestContext from the context, or
// returns nil if not present.
func RequestContextFrom(ctx context.Context) *RequestContext {
	rctx, _ := ctx.Value(contextKey{}).(*RequestContext)
	return rctx
}

// MustRequestContext extracts the RequestContext from the context, panicking
// if it is not present. Safe to call in handlers that are guaranteed to run
// behind the authentication middleware.
func MustRequestContext(ctx context.Context) *RequestContext {
	rctx := RequestContextFrom(ctx)
	if rctx == nil {
		panic("model: RequestContext not found in context")
	}
	return rctx
}
