package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/beeboo/storefront/internal/auth"
	"github.com/beeboo/storefront/internal/observability"
)

// MetricsContext puts a meter tagged with the request and its storefront area
// into the context. RequireUser adds the caller once the token is verified.
func (h *Handlers) MetricsContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		route := routeLabel(r)

		attrs := []attribute.Builder{
			attribute.String("http.request_id", requestIDFromRequest(r)),
			attribute.String("http.method", r.Method),
			attribute.String("storefront.area", routeArea(route)),
		}
		if route != "" {
			attrs = append(attrs, attribute.String("http.route", route))
		}
		if ip := clientIP(r); ip != "" {
			attrs = append(attrs, attribute.String("network.client.ip", ip))
		}

		meter := sentry.NewMeter(ctx).WithCtx(ctx)
		meter.SetAttributes(attrs...)
		next.ServeHTTP(w, r.WithContext(observability.WithMeter(ctx, meter)))
	})
}

// withCallerMeter tags the request meter with the verified caller.
func withCallerMeter(ctx context.Context, principal *auth.Principal) context.Context {
	role := "customer"
	if principal.Admin {
		role = "admin"
	}
	meter := observability.MeterFromContext(ctx)
	meter.SetAttributes(
		attribute.String("user.id", principal.UserID),
		attribute.String("user.role", role),
	)
	return observability.WithMeter(ctx, meter)
}

// routeArea groups route names into the parts of the store they serve.
func routeArea(route string) string {
	family, _, _ := strings.Cut(route, ".")
	switch family {
	case "orders":
		return "checkout"
	case "products", "categories", "settings":
		return "catalog"
	case "admin", "webhooks", "health":
		return family
	default:
		return "other"
	}
}
