package db

import (
	"context"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/jackc/pgx/v5"

	"github.com/beeboo/storefront/internal/logging"
	"github.com/beeboo/storefront/internal/observability"
)

const (
	maxQueryDescriptionLen = 512
	slowQueryThreshold     = 500 * time.Millisecond
)

type tracedQueryKey struct{}

// tracedQuery is what TraceQueryStart learned about a statement.
type tracedQuery struct {
	span      *sentry.Span
	start     time.Time
	sql       string
	operation string
	table     string
}

// queryTracer spans every statement under the active request span, logs slow
// statements, and counts guarded order transitions that matched no row.
type queryTracer struct {
	slow time.Duration
	now  func() time.Time
}

func newQueryTracer() *queryTracer {
	return &queryTracer{slow: slowQueryThreshold, now: time.Now}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	query := normalizeQuery(data.SQL)
	traced := &tracedQuery{
		start:     t.now(),
		sql:       query,
		operation: queryOperation(query),
		table:     queryTable(query),
	}

	if sentry.SpanFromContext(ctx) != nil {
		span := sentry.StartSpan(
			ctx,
			"db.query",
			sentry.WithDescription(query),
			sentry.WithSpanOrigin(sentry.SpanOriginManual),
		)
		span.SetData("db.system", "postgresql")
		if traced.operation != "" {
			span.SetData("db.operation", traced.operation)
		}
		if traced.table != "" {
			span.SetData("db.sql.table", traced.table)
		}
		traced.span = span
		ctx = span.Context()
	}

	return context.WithValue(ctx, tracedQueryKey{}, traced)
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	traced, _ := ctx.Value(tracedQueryKey{}).(*tracedQuery)
	if traced == nil {
		return
	}
	elapsed := t.now().Sub(traced.start)
	rejected := data.Err == nil && data.CommandTag.RowsAffected() == 0 && isGuardedTransition(traced.sql)

	if rejected {
		observability.MeterFromContext(ctx).Count("db.order_transition.rejected", 1, sentry.WithAttributes(
			attribute.String("db.operation", traced.operation),
		))
	}
	if elapsed >= t.slow {
		logging.FromContext(ctx, nil).Warn("slow query",
			"table", traced.table,
			"operation", traced.operation,
			"duration_ms", elapsed.Milliseconds(),
		)
	}

	span := traced.span
	if span == nil {
		return
	}
	if data.Err != nil {
		span.Status = sentry.SpanStatusInternalError
		span.SetData("db.error", data.Err.Error())
	} else {
		span.Status = sentry.SpanStatusOK
	}
	if rows := data.CommandTag.RowsAffected(); rows >= 0 {
		span.SetData("db.rows_affected", rows)
	}
	if rejected {
		span.SetData("db.transition_rejected", true)
	}
	span.Finish()
}

func normalizeQuery(query string) string {
	normalized := strings.Join(strings.Fields(query), " ")
	if normalized == "" {
		return "sql.query"
	}
	if len(normalized) > maxQueryDescriptionLen {
		return normalized[:maxQueryDescriptionLen]
	}
	return normalized
}

func queryOperation(query string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(query), " ")
	return strings.ToUpper(first)
}

// queryTable returns the first table named after FROM, INTO or UPDATE.
func queryTable(query string) string {
	fields := strings.Fields(query)
	for i := 0; i < len(fields)-1; i++ {
		switch strings.ToUpper(fields[i]) {
		case "FROM", "INTO", "UPDATE":
			table := strings.Trim(fields[i+1], "(\"")
			if table != "" && !strings.HasPrefix(table, "$") {
				return strings.ToLower(table)
			}
		}
	}
	return ""
}

// isGuardedTransition reports whether query is a single-order status update
// whose WHERE clause pins the current status. Zero rows there means the order
// had already moved on.
func isGuardedTransition(query string) bool {
	if queryOperation(query) != "UPDATE" || queryTable(query) != "orders" {
		return false
	}
	_, where, ok := strings.Cut(query, " WHERE ")
	return ok && strings.Contains(where, "id = $") && strings.Contains(where, "status")
}
