package handlers

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/beeboo/storefront/internal/config"
	"github.com/beeboo/storefront/internal/observability"
)

// SecurityHeaders sets baseline security headers for all responses. The API
// only serves JSON, so nothing may be framed or loaded from it.
func (h *Handlers) SecurityHeaders(next http.Handler) http.Handler {
	hsts := h.config != nil && strings.HasPrefix(strings.ToLower(strings.TrimSpace(h.config.BaseURL)), "https://")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		headers.Set("Cross-Origin-Opener-Policy", "same-origin")
		headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if hsts {
			headers.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		if r.Header.Get("Authorization") != "" {
			headers.Set("Cache-Control", "no-store")
		}

		next.ServeHTTP(w, r)
	})
}

// RejectCrossOrigin blocks state-changing browser requests whose Origin or
// Referer names a site other than the API itself, BASE_URL or one of
// ALLOWED_ORIGINS. Requests carrying neither header come from non-browser
// clients and pass through to bearer authentication.
func (h *Handlers) RejectCrossOrigin(next http.Handler) http.Handler {
	storefront := storefrontHosts(h.config)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !requestMutatesState(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		meter := observability.MeterFromContext(ctx)
		meter.Count("security.same_origin.checked", 1)

		header, value := "Origin", strings.TrimSpace(r.Header.Get("Origin"))
		if value == "" {
			header, value = "Referer", strings.TrimSpace(r.Header.Get("Referer"))
		}
		if value == "" {
			next.ServeHTTP(w, r)
			return
		}

		host, err := urlHost(value)
		if err == nil && (host == requestHost(r) || storefront[host]) {
			next.ServeHTTP(w, r)
			return
		}

		reason := "invalid_" + strings.ToLower(header)
		meter.Count("security.same_origin.blocked", 1, sentry.WithAttributes(attribute.String("reason", reason)))
		h.loggerFromContext(ctx).Warn("blocked cross-origin admin write", "header", header, "value", value, "error", err)
		writeError(ctx, w, http.StatusForbidden, "Forbidden")
	})
}

func requestMutatesState(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// storefrontHosts lists the hosts the admin UI may be served from.
func storefrontHosts(cfg *config.Config) map[string]bool {
	hosts := make(map[string]bool)
	if cfg == nil {
		return hosts
	}
	for _, origin := range append([]string{cfg.BaseURL}, cfg.AllowedOrigins...) {
		if host, err := urlHost(origin); err == nil {
			hosts[host] = true
		}
	}
	return hosts
}

func urlHost(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("missing host in %q", raw)
	}
	return host, nil
}

func requestHost(r *http.Request) string {
	hostport := strings.TrimSpace(r.Host)
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(hostport)
}
