package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/farmrisk/internal/domain"
)

// LedgerReader exposes on-hand positions aggregated from stock movements.
type LedgerReader interface {
	// ListOnHandLots returns full lot detail per lot/warehouse/location, optionally
	// narrowed by farm and a case-insensitive search over item name and lot code.
	ListOnHandLots(ctx context.Context, filter domain.LotFilter) ([]domain.LotSnapshot, error)
	// ListOnHandLotsLite aggregates per lot only and skips supplier and location detail.
	ListOnHandLotsLite(ctx context.Context, farmID *int64) ([]domain.LotSnapshot, error)
}

type AlertRepository interface {
	// UpsertDaily writes each alert keyed by (farm, type, created day) in one transaction.
	// Existing rows keep status, created_at and recipients; content fields are replaced.
	UpsertDaily(ctx context.Context, alerts []domain.Alert) ([]domain.Alert, error)
	GetByID(ctx context.Context, id int64) (*domain.Alert, error)
	List(ctx context.Context, filter domain.AlertFilter) ([]domain.Alert, int, error)
	// UpdateStatus applies to only if the row is still in from.
	UpdateStatus(ctx context.Context, id int64, from, to domain.AlertStatus) (*domain.Alert, error)
	// RecordDispatch marks the alert sent and inserts its notifications atomically.
	RecordDispatch(ctx context.Context, dispatch domain.AlertDispatch) (*domain.Alert, error)
}

type NotificationRepository interface {
	ListForUser(ctx context.Context, userID int64, unreadOnly bool, page, limit int) ([]domain.Notification, int, error)
	MarkRead(ctx context.Context, userID, notificationID int64, at time.Time) (*domain.Notification, error)
}

type IdentityRepository interface {
	FindUser(ctx context.Context, id int64) (*domain.User, error)
	FindUsers(ctx context.Context, ids []int64) ([]domain.User, error)
	FindFarm(ctx context.Context, id int64) (*domain.Farm, error)
}
