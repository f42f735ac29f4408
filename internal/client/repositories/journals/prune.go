package journals

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/kenala/internal/dbx"
)

// pruneBatch bounds the bind parameters of one DELETE, far below the
// SQLite and Postgres limits.
const pruneBatch = 500

type pruneStatements struct {
	// syncedIDs selects the synced ids of the user bound to its only parameter.
	syncedIDs string
	// deleteIDs returns a DELETE of n synced ids.
	deleteIDs func(n int) string
}

// pruneSyncedExcept computes the stale ids in Go and deletes them in
// batches, so the size of keep never reaches the database.
func pruneSyncedExcept(ctx context.Context, db dbx.DBTX, q pruneStatements, userID string, keep []string) (int64, error) {
	rows, err := db.QueryContext(ctx, q.syncedIDs, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list synced journals: %w", err)
	}
	kept := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}
	var stale []any
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan journal id: %w", err)
		}
		if _, ok := kept[id]; !ok {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to list synced journals: %w", err)
	}

	var total int64
	for len(stale) > 0 {
		n := min(len(stale), pruneBatch)
		res, err := db.ExecContext(ctx, q.deleteIDs(n), stale[:n]...)
		if err != nil {
			return total, fmt.Errorf("failed to prune journals: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("failed to get rows affected: %w", err)
		}
		total += affected
		stale = stale[n:]
	}
	return total, nil
}
