package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, Options{Level: slog.LevelInfo, Format: "json"})
	logger.Info("order placed", "order_id", "o-1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}
	if record["order_id"] != "o-1" {
		t.Fatalf("expected order_id attribute, got %v", record)
	}
}

func TestNewTextFormatRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&buf, Options{Level: slog.LevelWarn, Format: "text"})
	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	t.Parallel()

	var first, second bytes.Buffer
	handler := MultiHandler(
		slog.NewTextHandler(&first, &slog.HandlerOptions{Level: slog.LevelInfo}),
		nil,
		slog.NewTextHandler(&second, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(handler).With("component", "test")

	logger.Info("info only")
	logger.Error("both")

	if !strings.Contains(first.String(), "info only") || !strings.Contains(first.String(), "both") {
		t.Fatalf("first handler missing records: %q", first.String())
	}
	if strings.Contains(second.String(), "info only") || !strings.Contains(second.String(), "component=test") {
		t.Fatalf("second handler got unexpected output: %q", second.String())
	}
}

func TestFromContextFallbacks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	fallback := slog.New(slog.NewTextHandler(&buf, nil))

	if got := FromContext(context.Background(), fallback); got != fallback {
		t.Fatalf("expected fallback logger")
	}

	scoped := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), scoped)
	if got := FromContext(ctx, fallback); got != scoped {
		t.Fatalf("expected scoped logger")
	}

	if got := FromContext(context.Background(), nil); got == nil {
		t.Fatalf("expected discard logger, got nil")
	}
}

func TestRedactMasksSensitiveKeys(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(Redact(slog.NewJSONHandler(&buf, nil), SensitiveKeys...)).
		With("email", "asha@example.com")

	logger.Info("order email sent",
		"order_id", "o-1",
		slog.Group("shipping", "phone_number", "9876543210", "city", "Pune"),
		"Signature", "abc123",
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}
	if record["email"] != "[redacted]@example.com" {
		t.Fatalf("expected masked email, got %v", record["email"])
	}
	if record["Signature"] != "[redacted]" {
		t.Fatalf("expected masked signature, got %v", record["Signature"])
	}
	if record["order_id"] != "o-1" {
		t.Fatalf("order id should pass through, got %v", record["order_id"])
	}
	shipping, ok := record["shipping"].(map[string]any)
	if !ok {
		t.Fatalf("expected shipping group, got %v", record["shipping"])
	}
	if shipping["phone_number"] != "[redacted]" || shipping["city"] != "Pune" {
		t.Fatalf("unexpected shipping group %v", shipping)
	}
}

func TestMultiHandlerSingleSink(t *testing.T) {
	t.Parallel()

	sink := slog.NewTextHandler(&bytes.Buffer{}, nil)
	if got := MultiHandler(nil, sink); got != slog.Handler(sink) {
		t.Fatalf("expected the only sink to be returned unwrapped")
	}
}
