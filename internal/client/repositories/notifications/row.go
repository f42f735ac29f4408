package notifications

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kenala/internal/client/models"
)

const columns = `id, user_id, title, body, read, received_at`

func scanAll(rows *sql.Rows) ([]models.Notification, error) {
	defer rows.Close()

	var result []models.Notification
	for rows.Next() {
		var (
			n        models.Notification
			received int64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Read, &received); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ReceivedAt = time.UnixMilli(received).UTC()
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return result, nil
}
