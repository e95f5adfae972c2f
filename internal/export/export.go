// Package export writes lead lists to spreadsheet and snapshot files for
// downstream workflows. The store stays authoritative; these are one-shot
// sinks, not persistence.
package export

import (
	"strconv"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Header is the column order every export format shares. Downstream
// consumers key off email/phone for contact and status for filtering.
var Header = []string{
	"id", "name", "email", "phone", "property_address",
	"price", "status", "source", "created_at", "updated_at",
}

// Row flattens a lead into the shared column order.
func Row(l model.Lead) []string {
	price := ""
	if l.PriceNumeric != nil {
		price = strconv.FormatFloat(*l.PriceNumeric, 'f', -1, 64)
	}
	return []string{
		l.ID,
		l.Name,
		l.Email,
		l.Phone,
		l.PropertyAddress,
		price,
		string(l.Status),
		l.Source,
		l.CreatedAt.Format(time.RFC3339),
		l.UpdatedAt.Format(time.RFC3339),
	}
}
