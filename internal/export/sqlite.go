package export

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS leads (
	id               TEXT PRIMARY KEY,
	name             TEXT,
	email            TEXT,
	phone            TEXT,
	property_address TEXT,
	price            REAL,
	status           TEXT NOT NULL,
	source           TEXT,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
`

// WriteSQLite snapshots the leads into a SQLite database file at path.
// Existing rows for the same lead id are replaced, so repeated exports to the
// same file stay current.
func WriteSQLite(ctx context.Context, path string, leads []model.Lead) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return eris.Wrapf(err, "export: open sqlite %s", path)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return eris.Wrap(err, "export: create leads table")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "export: begin tx")
	}
	defer tx.Rollback()

	for _, lead := range leads {
		var price any
		if lead.PriceNumeric != nil {
			price = *lead.PriceNumeric
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO leads
			 (id, name, email, phone, property_address, price, status, source, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			lead.ID, lead.Name, lead.Email, lead.Phone, lead.PropertyAddress,
			price, string(lead.Status), lead.Source, lead.CreatedAt, lead.UpdatedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "export: insert lead %s", lead.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "export: commit")
}
