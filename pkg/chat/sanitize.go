package chat

import (
	"sort"

	"github.com/google/uuid"
)

// Sanitize normalizes a transcript so it can be safely persisted and
// resumed: duplicate IDs are dropped (first occurrence wins), messages
// are ordered by page number where both sides have one, falling back to
// timestamp and then ID, and page numbers are renumbered to be
// contiguous starting at 1.
//
// Sanitize is idempotent: running it on its own output is a no-op.
func Sanitize(messages []ChatMessage) []ChatMessage {
	if len(messages) == 0 {
		return []ChatMessage{}
	}

	// Dedupe by ID, preserving first occurrence order.
	// Messages without an ID are always kept.
	seen := make(map[string]bool, len(messages))
	out := make([]ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.ID != uuid.Nil {
			key := m.ID.String()
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PageNumber > 0 && b.PageNumber > 0 {
			return a.PageNumber < b.PageNumber
		}
		if !a.Timestamp.IsZero() && !b.Timestamp.IsZero() && !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.PageNumber == 0 && b.PageNumber == 0 && a.ID != b.ID {
			return a.ID.String() < b.ID.String()
		}
		return false // stable sort keeps original order
	})

	for i := range out {
		out[i].PageNumber = i + 1
	}
	return out
}
