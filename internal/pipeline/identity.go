package pipeline

import (
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// ResolveKey derives the dedupe key for a candidate lead. Priority order:
// normalized email, then normalized phone, then a source+address composite.
// Normalize guarantees at least one branch applies, so the key is never empty.
func ResolveKey(c model.CandidateLead) string {
	if c.Email != "" {
		return "email:" + c.Email
	}
	if c.Phone != "" {
		return "phone:" + c.Phone
	}
	return "listing:" + strings.ToLower(strings.TrimSpace(c.Source)) + "|" + collapseWhitespace(strings.ToLower(c.PropertyAddress))
}

// collapseWhitespace folds runs of whitespace into single spaces so that
// trivially reformatted addresses still collide.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
