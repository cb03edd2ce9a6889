package handlers

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/beeboo/storefront/internal/auth"
	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/observability"
)

// RequireUser rejects requests without a valid bearer token and stores the
// verified principal in the request context.
func (h *Handlers) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		principal, err := h.verifier.VerifyRequest(r)
		if err != nil {
			reason := "invalid_token"
			message := "Invalid authentication token"
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				reason = "missing_token"
				message = "Authentication required"
			case errors.Is(err, auth.ErrExpiredToken):
				reason = "expired_token"
				message = "Session expired. Please sign in again."
			}
			observability.MeterFromContext(ctx).Count("auth.rejected", 1, sentry.WithAttributes(
				attribute.String("reason", reason),
			))
			h.loggerFromContext(ctx).Info("rejected unauthenticated request", "reason", reason, "error", err)
			writeError(ctx, w, http.StatusUnauthorized, message)
			return
		}

		noteUser(ctx, principal)
		logger := h.loggerFromContext(ctx).With("user_id", principal.UserID)
		ctx = withCallerMeter(ctx, principal)
		ctx = auth.WithPrincipal(ctx, principal)
		ctx = logging.WithLogger(ctx, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after RequireUser.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		principal, ok := auth.PrincipalFromContext(ctx)
		if !ok || !principal.Admin {
			observability.MeterFromContext(ctx).Count("auth.rejected", 1, sentry.WithAttributes(
				attribute.String("reason", "not_admin"),
			))
			writeError(ctx, w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userIDFromRequest(r *http.Request) string {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return ""
	}
	return principal.UserID
}
