package httpapi

import (
	"net/http"
	"strings"

	"github.com/aarons2222/letlog/internal/identity"
	apperrors "github.com/aarons2222/letlog/internal/platform/errors"
	"github.com/aarons2222/letlog/internal/policy"
)

// guarded wraps a handler with actor verification and the route role
// check. Routes without a table entry stay reachable by anonymous callers,
// so a missing bearer token is not an error here; handlers that need an
// actor check for one themselves.
func (h *Handler) guarded(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		actor, err := h.bearerActor(r)
		if err != nil {
			writeError(w, err)
			return
		}
		if actor != nil {
			ctx = identity.WithActor(ctx, *actor)
			r = r.WithContext(ctx)
		}

		decision, err := h.engine.Decide(ctx, policy.Request{
			Action:  policy.ActionAccessRoute,
			Actor:   requestActor(r),
			RouteID: r.URL.Path,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		if !decision.Allowed {
			writeDenial(w, decision)
			return
		}

		next(w, r)
	}
}

// bearerActor verifies the Authorization header when present. A missing
// header yields no actor, an invalid token is rejected.
func (h *Handler) bearerActor(r *http.Request) (*identity.Actor, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return nil, nil
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return nil, apperrors.New(apperrors.CodeIdentityTokenInvalid, "authorization header is not a bearer token")
	}
	actor, err := identity.VerifyAccessToken(strings.TrimSpace(token), h.identity)
	if err != nil {
		return nil, err
	}
	return &actor, nil
}

// requestActor maps the verified identity to a policy actor. Anonymous
// requests produce a zero actor with an unspecified role.
func requestActor(r *http.Request) policy.Actor {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		return policy.Actor{}
	}
	return policy.Actor{UserID: actor.UserID, Role: actor.Role}
}

// requireActor rejects anonymous requests on routes whose action needs a
// principal.
func requireActor(w http.ResponseWriter, r *http.Request) (policy.Actor, bool) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		writeError(w, apperrors.New(apperrors.CodeIdentityTokenInvalid, "authentication required"))
		return policy.Actor{}, false
	}
	return policy.Actor{UserID: actor.UserID, Role: actor.Role}, true
}
