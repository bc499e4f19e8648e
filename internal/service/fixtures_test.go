package service

import (
	"context"
	"strconv"
	"time"

	"github.com/andresuchdata/farmrisk/internal/cache"
	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/andresuchdata/farmrisk/internal/risk"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var (
	now   = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	clock = risk.FixedClock{At: now}
)

func day(offset int) *time.Time {
	d := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	return &d
}

func ptr[T any](v T) *T { return &v }

func farmLot(lotID, farmID int64, farmName string, onHand int64, expiry *time.Time) domain.LotSnapshot {
	return domain.LotSnapshot{
		LotID:      lotID,
		ItemID:     lotID * 10,
		ItemName:   "Urea 46%",
		LotCode:    "LOT-" + strconv.FormatInt(lotID, 10),
		FarmID:     &farmID,
		FarmName:   farmName,
		Unit:       "kg",
		ExpiryDate: expiry,
		OnHand:     decimal.NewFromInt(onHand),
	}
}

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

type MockRefreshLocker struct {
	mock.Mock
}

func (m *MockRefreshLocker) TryLock(ctx context.Context, name string) (cache.ReleaseFunc, bool, error) {
	args := m.Called(ctx, name)
	release, _ := args.Get(0).(cache.ReleaseFunc)
	return release, args.Bool(1), args.Error(2)
}

type MockAlertEventPublisher struct {
	mock.Mock
}

func (m *MockAlertEventPublisher) PublishAlertSent(ctx context.Context, event domain.AlertSentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func decimalOf(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
