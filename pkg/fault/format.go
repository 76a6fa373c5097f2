package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// UserString returns a user-safe failure message: the record's own
// message without the kind tag or cause chain, falling back to the
// standard error text for foreign errors.
func UserString(err error) string {
	if err == nil {
		return ""
	}
	var rec *Record
	if errors.As(err, &rec) && rec.message != "" {
		return rec.message
	}
	return err.Error()
}

// IsRecord checks if the given error is or wraps a fault.Record.
func IsRecord(err error) bool {
	if err == nil {
		return false
	}
	var rec *Record
	return errors.As(err, &rec)
}

// DebugString returns a verbose error string with kinds, context, and
// the full chain, one numbered line per link.
func DebugString(err error) string {
	if err == nil {
		return ""
	}
	chain := Chain(err)
	var b strings.Builder
	for i, item := range chain {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch typed := item.(type) {
		case *Record:
			b.WriteString(fmt.Sprintf("%d: %T: %s", i+1, typed, typed.message))
			b.WriteString(fmt.Sprintf(" | kind=%s", typed.kind))
			b.WriteString(fmt.Sprintf(" | category=%s", typed.kind.category))
			if typed.kind.transient {
				b.WriteString(" | transient=true")
			}
			if len(typed.context) > 0 {
				b.WriteString(" | context={")
				b.WriteString(formatContext(typed.context))
				b.WriteByte('}')
			}
		default:
			b.WriteString(fmt.Sprintf("%d: %T: %s", i+1, item, item.Error()))
		}
	}
	return b.String()
}

func formatContext(ctx map[string]any) string {
	keys := make([]string, 0, len(ctx))
	for key := range ctx {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, ctx[key]))
	}
	return strings.Join(parts, ", ")
}
