package pii

import (
	"log/slog"
	"strings"
)

const RedactedPlaceholder = "[REDACTED]"

// Redactor replaces the values of sensitive log fields with a placeholder.
type Redactor struct {
	fieldsToRedact map[string]struct{} // Use a map for O(1) lookups
	logger         *slog.Logger
}

// NewRedactor creates a new Redactor for the given field names. Matching is
// case-insensitive.
func NewRedactor(fields []string, logger *slog.Logger) *Redactor {
	fieldSet := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if field = strings.ToLower(strings.TrimSpace(field)); field != "" {
			fieldSet[field] = struct{}{}
		}
	}
	return &Redactor{
		fieldsToRedact: fieldSet,
		logger:         logger,
	}
}

// Redact modifies fields in place and reports whether anything was replaced.
// Nested maps are walked; a key matching at any depth is redacted.
func (r *Redactor) Redact(fields map[string]any) bool {
	if len(r.fieldsToRedact) == 0 || len(fields) == 0 {
		return false
	}
	return r.redactMap(fields)
}

func (r *Redactor) redactMap(m map[string]any) bool {
	redacted := false
	for key, value := range m {
		if _, ok := r.fieldsToRedact[strings.ToLower(key)]; ok {
			m[key] = RedactedPlaceholder
			redacted = true
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			// Copy before touching: the nested map may still be referenced by the caller.
			clone := make(map[string]any, len(nested))
			for k, v := range nested {
				clone[k] = v
			}
			if r.redactMap(clone) {
				m[key] = clone
				redacted = true
			}
		}
	}
	if redacted {
		r.logger.Debug("redacted sensitive log fields")
	}
	return redacted
}
