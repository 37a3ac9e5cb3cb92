package logger

import (
	"context"
	"log/slog"
	"strings"
)

// fullyMaskedKeys are replaced with "***" outright.
var fullyMaskedKeys = []string{
	"password",
	"token",
	"secret",
	"api_key",
	"authorization",
}

// truncatedKeys keep a short prefix so operators can still correlate records
// with a known wallet without the full address landing in logs.
var truncatedKeys = []string{
	"spark_address",
	"taproot_address",
}

const addressPrefixLen = 6

// MaskingHandler wraps a slog.Handler and masks sensitive attributes before delegating.
type MaskingHandler struct {
	next slog.Handler
}

// NewMaskingHandler creates a handler that masks sensitive fields before passing records downstream.
func NewMaskingHandler(next slog.Handler) *MaskingHandler {
	return &MaskingHandler{next: next}
}

// Enabled reports whether the handler handles records at the given level.
func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// WithAttrs returns a new handler with additional attributes.
func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &MaskingHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup returns a new handler with an appended group name.
func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{next: h.next.WithGroup(name)}
}

// Handle applies masking to sensitive attributes and delegates to the wrapped handler.
func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	masked := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)

	record.Attrs(func(attr slog.Attr) bool {
		masked.AddAttrs(maskAttr(attr))
		return true
	})

	return h.next.Handle(ctx, masked)
}

func maskAttr(attr slog.Attr) slog.Attr {
	if matchesKey(attr.Key, fullyMaskedKeys) {
		attr.Value = slog.StringValue("***")
		return attr
	}
	if matchesKey(attr.Key, truncatedKeys) {
		addr := attr.Value.String()
		if len(addr) > addressPrefixLen {
			attr.Value = slog.StringValue(addr[:addressPrefixLen] + "...")
		}
	}
	return attr
}

func matchesKey(key string, list []string) bool {
	for _, candidate := range list {
		if strings.EqualFold(key, candidate) {
			return true
		}
	}
	return false
}
