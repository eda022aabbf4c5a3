// internal/pipeline/validator.go
package pipeline

import (
	"strings"

	"ferreteria-gateway/internal/models"
)

// IsActionable gates a normalized query: empty or whitespace-only
// canonical text routes to the fallback branch, everything else to the
// dispatcher. Pure decision, no mutation, no downstream call.
func IsActionable(q models.NormalizedQuery) bool {
	return strings.TrimSpace(q.CanonicalText) != ""
}
