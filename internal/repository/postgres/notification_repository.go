package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/farmrisk/internal/domain"
)

const notificationColumns = `id, user_id, title, message, link, alert_id, created_at, read_at`

type notificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID int64, unreadOnly bool, page, limit int) ([]domain.Notification, int, error) {
	where := " WHERE user_id = $1"
	if unreadOnly {
		where += " AND read_at IS NULL"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications`+where, userID); err != nil {
		return nil, 0, fmt.Errorf("error counting notifications: %w", err)
	}

	query := `SELECT ` + notificationColumns + ` FROM notifications` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`

	items := make([]domain.Notification, 0)
	if err := r.db.SelectContext(ctx, &items, query, userID, limit, page*limit); err != nil {
		return nil, 0, fmt.Errorf("error listing notifications: %w", err)
	}

	return items, total, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, notificationID int64, at time.Time) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.GetContext(ctx, &n, `
        UPDATE notifications
        SET read_at = COALESCE(read_at, $1)
        WHERE id = $2 AND user_id = $3
        RETURNING `+notificationColumns,
		at, notificationID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("notification", notificationID)
	}
	if err != nil {
		return nil, fmt.Errorf("error marking notification read: %w", err)
	}
	return &n, nil
}
