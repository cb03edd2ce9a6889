package db

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/beeboo/storefront/internal/logging"
)

func TestNormalizeQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{name: "empty", query: "   ", want: "sql.query"},
		{name: "collapses whitespace", query: "\n\tSELECT id\n\t FROM orders  WHERE id = $1\n", want: "SELECT id FROM orders WHERE id = $1"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := normalizeQuery(tc.query); got != tc.want {
				t.Fatalf("normalizeQuery() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeQueryTruncates(t *testing.T) {
	t.Parallel()

	got := normalizeQuery("SELECT " + strings.Repeat("x", 2*maxQueryDescriptionLen))
	if len(got) != maxQueryDescriptionLen {
		t.Fatalf("expected %d chars, got %d", maxQueryDescriptionLen, len(got))
	}
}

func TestQueryOperation(t *testing.T) {
	t.Parallel()

	if got := queryOperation("update orders set status = 'placed'"); got != "UPDATE" {
		t.Fatalf("queryOperation() = %q, want UPDATE", got)
	}
	if got := queryOperation(""); got != "" {
		t.Fatalf("queryOperation(\"\") = %q, want empty", got)
	}
}

func TestQueryTable(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"SELECT id FROM products WHERE category = $1":       "products",
		"INSERT INTO orders (id, user_id) VALUES ($1, $2)":  "orders",
		"UPDATE orders SET status = 'placed' WHERE id = $1": "orders",
		"SELECT 1":                                          "",
	}
	for query, want := range tests {
		if got := queryTable(query); got != want {
			t.Errorf("queryTable(%q) = %q, want %q", query, got, want)
		}
	}
}

func TestIsGuardedTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  bool
	}{
		{query: "UPDATE orders SET status = 'placed' WHERE id = $3 AND status = 'pending'", want: true},
		{query: "UPDATE orders SET status = 'cancelled' WHERE id = $1 AND status IN ('pending', 'placed')", want: true},
		{query: "UPDATE orders SET status = 'failed' WHERE status = 'pending' AND created_at < $2", want: false},
		{query: "UPDATE products SET stock = $1 WHERE id = $2", want: false},
		{query: "SELECT status FROM orders WHERE id = $1", want: false},
	}
	for _, tc := range tests {
		if got := isGuardedTransition(tc.query); got != tc.want {
			t.Errorf("isGuardedTransition(%q) = %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestQueryTracerLogsSlowQueries(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	tracer := newQueryTracer()
	tracer.now = func() time.Time { return now }

	sql := "UPDATE orders SET status = 'placed' WHERE id = $3 AND status = 'pending'"
	queryCtx := tracer.TraceQueryStart(ctx, nil, pgx.TraceQueryStartData{SQL: sql})
	now = now.Add(10 * time.Millisecond)
	tracer.TraceQueryEnd(queryCtx, nil, pgx.TraceQueryEndData{CommandTag: pgconn.NewCommandTag("UPDATE 0")})
	if buf.Len() != 0 {
		t.Fatalf("fast query was logged: %q", buf.String())
	}

	queryCtx = tracer.TraceQueryStart(ctx, nil, pgx.TraceQueryStartData{SQL: "SELECT id FROM products"})
	now = now.Add(slowQueryThreshold)
	tracer.TraceQueryEnd(queryCtx, nil, pgx.TraceQueryEndData{CommandTag: pgconn.NewCommandTag("SELECT 3")})
	out := buf.String()
	if !strings.Contains(out, "slow query") || !strings.Contains(out, "table=products") {
		t.Fatalf("expected slow query log, got %q", out)
	}
}

func TestSortSpecFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sort     string
		wantCol  string
		wantDesc bool
	}{
		{sort: "newest", wantCol: "created_at", wantDesc: true},
		{sort: "", wantCol: "created_at", wantDesc: true},
		{sort: "price-asc", wantCol: "price", wantDesc: false},
		{sort: "price-desc", wantCol: "price", wantDesc: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.sort, func(t *testing.T) {
			t.Parallel()
			spec := sortSpecFor(ProductSort(tc.sort))
			if spec.column != tc.wantCol || spec.desc != tc.wantDesc {
				t.Fatalf("sortSpecFor(%q) = %+v", tc.sort, spec)
			}
		})
	}
}
