package postgres

import (
	"context"
	"database/sql"

	"github.com/platinummonkey/garage/pkg/domain"
)

// defaultNotificationLimit caps ListNotifications when no limit is given
const defaultNotificationLimit = 50

// CreateNotification implements storage.NotificationStore
func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	newID(&n.ID)
	s.stamp(&n.CreatedAt, &n.UpdatedAt)

	query := `
		INSERT INTO notifications (id, notification, user_id, garage_id, sub_account_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.q.ExecContext(ctx, query,
		n.ID, n.Notification, n.UserID, n.GarageID, nullString(n.SubAccountID), n.CreatedAt, n.UpdatedAt,
	)
	return classify("create notification", err)
}

// ListNotifications implements storage.NotificationStore
func (s *Store) ListNotifications(ctx context.Context, garageID string, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}

	query := `
		SELECT id, notification, user_id, garage_id, sub_account_id, created_at, updated_at
		FROM notifications
		WHERE garage_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`
	rows, err := s.q.QueryContext(ctx, query, garageID, limit)
	if err != nil {
		return nil, classify("list notifications", err)
	}
	defer rows.Close()

	out := make([]*domain.Notification, 0)
	for rows.Next() {
		var (
			n            domain.Notification
			subAccountID sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.Notification, &n.UserID, &n.GarageID, &subAccountID, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, classify("list notifications", err)
		}
		n.SubAccountID = stringPtr(subAccountID)
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list notifications", err)
	}
	return out, nil
}
