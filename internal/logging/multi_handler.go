package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// SensitiveKeys are attribute keys whose values identify a customer or
// authorise a payment. They are masked before leaving the process.
var SensitiveKeys = []string{
	"to",
	"email",
	"customer_email",
	"phone",
	"phone_number",
	"razorpay_signature",
	"signature",
	"authorization",
}

const redactedValue = "[redacted]"

// MultiHandler sends each record to every sink enabled for its level.
// Nil sinks are ignored.
func MultiHandler(sinks ...slog.Handler) slog.Handler {
	live := make(fanout, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			live = append(live, sink)
		}
	}
	switch len(live) {
	case 0:
		return slog.NewTextHandler(io.Discard, nil)
	case 1:
		return live[0]
	}
	return live
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range f {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, sink := range f {
		if sink.Enabled(ctx, record.Level) {
			// Each sink gets its own copy so one cannot see attrs another added.
			if err := sink.Handle(ctx, record.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(sink slog.Handler) slog.Handler { return sink.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.each(func(sink slog.Handler) slog.Handler { return sink.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	next := make(fanout, len(f))
	for i, sink := range f {
		next[i] = fn(sink)
	}
	return next
}

// Redact wraps next so values under keys are masked, at any group depth.
// Email addresses keep their domain so delivery problems stay diagnosable.
func Redact(next slog.Handler, keys ...string) slog.Handler {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[strings.ToLower(key)] = struct{}{}
	}
	return &redactor{next: next, keys: set}
}

type redactor struct {
	next slog.Handler
	keys map[string]struct{}
}

func (r *redactor) Enabled(ctx context.Context, level slog.Level) bool {
	return r.next.Enabled(ctx, level)
}

func (r *redactor) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		masked.AddAttrs(r.mask(attr))
		return true
	})
	return r.next.Handle(ctx, masked)
}

func (r *redactor) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		masked[i] = r.mask(attr)
	}
	return &redactor{next: r.next.WithAttrs(masked), keys: r.keys}
}

func (r *redactor) WithGroup(name string) slog.Handler {
	return &redactor{next: r.next.WithGroup(name), keys: r.keys}
}

func (r *redactor) mask(attr slog.Attr) slog.Attr {
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		group := value.Group()
		masked := make([]any, len(group))
		for i, member := range group {
			masked[i] = r.mask(member)
		}
		return slog.Group(attr.Key, masked...)
	}
	if _, ok := r.keys[strings.ToLower(attr.Key)]; !ok {
		return slog.Attr{Key: attr.Key, Value: value}
	}
	return slog.String(attr.Key, maskValue(value.String()))
}

func maskValue(raw string) string {
	if at := strings.LastIndex(raw, "@"); at > 0 {
		return redactedValue + raw[at:]
	}
	return redactedValue
}
