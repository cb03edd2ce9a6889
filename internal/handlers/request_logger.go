package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/beeboo/storefront/internal/auth"
	"github.com/beeboo/storefront/internal/logging"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// requestTrace collects what later middleware learns about a request so the
// completion line can report it.
type requestTrace struct {
	requestID string
	userID    string
	admin     bool
}

type requestTraceKey struct{}

func traceFromContext(ctx context.Context) *requestTrace {
	trace, _ := ctx.Value(requestTraceKey{}).(*requestTrace)
	return trace
}

// noteUser records the authenticated caller on the request trace.
func noteUser(ctx context.Context, principal *auth.Principal) {
	trace := traceFromContext(ctx)
	if trace == nil || principal == nil {
		return
	}
	trace.userID = principal.UserID
	trace.admin = principal.Admin
}

// routeResources maps route vars onto log keys per route family.
var routeResources = map[string]string{
	"orders":           "order_id",
	"admin.orders":     "order_id",
	"products":         "product_id",
	"admin.products":   "product_id",
	"admin.categories": "category_id",
}

// RequestLogger injects a request-scoped logger and logs one line per request
// with the caller and the order or product it touched.
func (h *Handlers) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := routeLabel(r)

		trace := &requestTrace{requestID: requestIDFromRequest(r)}
		w.Header().Set("X-Request-ID", trace.requestID)

		attrs := []any{
			"request_id", trace.requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_ip", clientIP(r),
		}
		if route != "" {
			attrs = append(attrs, "route", route)
		}
		if key, value := resourceAttr(route, mux.Vars(r)); key != "" {
			attrs = append(attrs, key, value)
		}
		if route == "orders.create" {
			attrs = append(attrs, "idempotent", strings.TrimSpace(r.Header.Get("Idempotency-Key")) != "")
		}
		if userAgent := strings.TrimSpace(r.UserAgent()); userAgent != "" {
			attrs = append(attrs, "user_agent", userAgent)
		}
		logger := h.logger.With(attrs...)

		ctx := context.WithValue(r.Context(), requestTraceKey{}, trace)
		ctx = logging.WithLogger(ctx, logger)
		r = r.WithContext(ctx)

		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		recordRequestMetrics(ctx, r.Method, route, status, trace, elapsed)

		done := []any{
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"bytes", recorder.bytes,
		}
		if trace.userID != "" {
			done = append(done, "user_id", trace.userID)
			if trace.admin {
				done = append(done, "admin", true)
			}
		}

		switch {
		case r.URL.Path == "/health":
			logger.Debug("health check completed", done...)
		case status >= http.StatusInternalServerError:
			logger.Error("request failed", done...)
		default:
			logger.Info("request completed", done...)
		}
	})
}

func recordRequestMetrics(ctx context.Context, method, route string, status int, trace *requestTrace, elapsed time.Duration) {
	if route == "" {
		route = "unknown"
	}
	caller := "anonymous"
	switch {
	case trace.admin:
		caller = "admin"
	case trace.userID != "":
		caller = "customer"
	}

	attrs := []attribute.Builder{
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
		attribute.String("caller", caller),
	}
	meter := sentry.NewMeter(ctx).WithCtx(ctx)
	meter.Count("http.server.requests", 1, sentry.WithAttributes(attrs...))
	meter.Distribution(
		"http.server.duration",
		float64(elapsed.Milliseconds()),
		sentry.WithUnit(sentry.UnitMillisecond),
		sentry.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.String("http.status_class", fmt.Sprintf("%dxx", status/100)),
		),
	)
	if status >= http.StatusInternalServerError {
		meter.Count("http.server.errors", 1, sentry.WithAttributes(attrs...))
	}
}

// resourceAttr names the {id} route var after the resource the route serves,
// so an order id and a product id never share a log key.
func resourceAttr(route string, vars map[string]string) (string, string) {
	id := vars["id"]
	if id == "" || route == "" {
		return "", ""
	}
	family := route
	for family != "" {
		if key, ok := routeResources[family]; ok {
			return key, id
		}
		cut := strings.LastIndex(family, ".")
		if cut < 0 {
			break
		}
		family = family[:cut]
	}
	return "resource_id", id
}

// requestIDFromRequest prefers the id RequestLogger already assigned.
func requestIDFromRequest(r *http.Request) string {
	if r == nil {
		return uuid.NewString()
	}
	if trace := traceFromContext(r.Context()); trace != nil && trace.requestID != "" {
		return trace.requestID
	}
	if requestID := strings.TrimSpace(r.Header.Get("X-Request-ID")); requestID != "" {
		return requestID
	}
	return uuid.NewString()
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-Ip")); realIP != "" {
		return realIP
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func routeLabel(r *http.Request) string {
	if r == nil {
		return ""
	}
	route := mux.CurrentRoute(r)
	if route == nil {
		return ""
	}
	if name := route.GetName(); name != "" {
		return name
	}
	if template, err := route.GetPathTemplate(); err == nil {
		return template
	}
	return ""
}
