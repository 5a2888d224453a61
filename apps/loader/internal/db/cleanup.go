package db

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Cleanup deletes import records older than the retention duration.
// The latest import is always kept.
func (db *DB) Cleanup(ctx context.Context, retention time.Duration) error {
	if retention < time.Hour {
		retention = time.Hour
	}
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339)

	db.LockWrite()
	defer db.UnlockWrite()

	result, err := db.conn.ExecContext(ctx, `
		DELETE FROM seed_imports
		WHERE imported_at_utc < ?
		  AND import_id NOT IN (
			SELECT import_id FROM seed_imports
			ORDER BY imported_at_utc DESC, rowid DESC
			LIMIT 1
		  )
	`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup seed_imports: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		log.Printf("Cleanup: deleted %d import records older than %v", rows, retention)
	}

	return nil
}
