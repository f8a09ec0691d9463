// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelslog provides an [slog.Handler] which stamps records with the
// span active in their context, using the field names of the OpenTelemetry
// log data model.
package otelslog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/z5labs/otelcompose/internal/slogfield"

	"go.opentelemetry.io/otel/trace"
)

// Handler correlates records with the active span and fans them out to
// one or more underlying handlers.
type Handler struct {
	hs []slog.Handler
}

// NewHandler wraps h. Every handler in tee also receives each record
// it is enabled for.
func NewHandler(h slog.Handler, tee ...slog.Handler) *Handler {
	return &Handler{hs: append([]slog.Handler{h}, tee...)}
}

// New provides a simple wrapper for slog.New(NewHandler(h, tee...)).
func New(h slog.Handler, tee ...slog.Handler) *slog.Logger {
	return slog.New(NewHandler(h, tee...))
}

// Enabled implements the slog.Handler interface.
func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	for _, sh := range h.hs {
		if sh.Enabled(ctx, lvl) {
			return true
		}
	}
	return false
}

// Handle implements the slog.Handler interface.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		record = record.Clone()
		record.AddAttrs(
			slogfield.String("trace_id", spanCtx.TraceID().String()),
			slogfield.String("span_id", spanCtx.SpanID().String()),
			slogfield.String("trace_flags", spanCtx.TraceFlags().String()),
		)
	}

	var errs []error
	for _, sh := range h.hs {
		if !sh.Enabled(ctx, record.Level) {
			continue
		}
		errs = append(errs, sh.Handle(ctx, record.Clone()))
	}
	return errors.Join(errs...)
}

// WithAttrs implements the slog.Handler interface.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(sh slog.Handler) slog.Handler {
		return sh.WithAttrs(attrs)
	})
}

// WithGroup implements the slog.Handler interface.
func (h *Handler) WithGroup(name string) slog.Handler {
	return h.each(func(sh slog.Handler) slog.Handler {
		return sh.WithGroup(name)
	})
}

func (h *Handler) each(f func(slog.Handler) slog.Handler) *Handler {
	hs := make([]slog.Handler, len(h.hs))
	for i, sh := range h.hs {
		hs[i] = f(sh)
	}
	return &Handler{hs: hs}
}
