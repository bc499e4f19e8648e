package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/farmrisk/internal/cache"
	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/andresuchdata/farmrisk/internal/repository/memory"
	"github.com/andresuchdata/farmrisk/internal/risk"
	"github.com/andresuchdata/farmrisk/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAlertService(ledger *memory.Ledger, store *memory.AlertStore) *AlertService {
	return NewAlertService(ledger, store, nil, nil, clock, DefaultRiskDefaults())
}

func alertsByType(alerts []domain.Alert) map[domain.AlertType]domain.Alert {
	out := make(map[domain.AlertType]domain.Alert, len(alerts))
	for _, a := range alerts {
		out[a.Type] = a
	}
	return out
}

func TestRefreshAlertsGroupsPerFarmAndType(t *testing.T) {
	ledger := memory.NewLedger(
		farmLot(1, 1, "North Field", 10, day(-3)),
		farmLot(2, 1, "North Field", 4, day(-1)),
		farmLot(3, 1, "North Field", 6, day(5)),
		farmLot(4, 1, "North Field", 6, day(20)),
		farmLot(5, 2, "River Plot", 6, day(25)),
		farmLot(6, 2, "River Plot", 6, day(60)),
		farmLot(7, 2, "River Plot", 6, nil),
		farmLot(8, 2, "River Plot", 0, day(-1)),
		domain.LotSnapshot{LotID: 9, OnHand: decimalOf(3), ExpiryDate: day(-1)},
	)
	store := memory.NewAlertStore()

	alerts, err := newAlertService(ledger, store).RefreshAlerts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	assert.Equal(t, int64(1), *alerts[0].FarmID)
	assert.Equal(t, domain.AlertInventoryExpired, alerts[0].Type)
	assert.Equal(t, domain.SeverityCritical, alerts[0].Severity)
	assert.Equal(t, "Expired inventory", alerts[0].Title)
	assert.Equal(t, "2 lots have expired in North Field. Review inventory immediately.", alerts[0].Message)
	assert.Equal(t, "/admin/inventory/risk-lots?farmId=1&status=RISK&windowDays=30", alerts[0].SuggestedActionURL)
	assert.Equal(t, "REVIEW_INVENTORY", alerts[0].SuggestedActionType)
	assert.Equal(t, domain.AlertStatusNew, alerts[0].Status)
	assert.Empty(t, alerts[0].RecipientFarmerIDs)
	assert.Equal(t, now, alerts[0].CreatedAt)

	assert.Equal(t, domain.AlertInventoryExpiring, alerts[1].Type)
	assert.Equal(t, domain.SeverityHigh, alerts[1].Severity)
	assert.Equal(t, "Inventory expiring soon", alerts[1].Title)
	assert.Equal(t, "2 lots expire within 30 days in North Field.", alerts[1].Message)

	assert.Equal(t, int64(2), *alerts[2].FarmID)
	assert.Equal(t, domain.AlertInventoryExpiring, alerts[2].Type)
	assert.Equal(t, domain.SeverityMedium, alerts[2].Severity)
	assert.Equal(t, "1 lots expire within 30 days in River Plot.", alerts[2].Message)
}

func TestRefreshAlertsIsIdempotentPerDay(t *testing.T) {
	ledger := memory.NewLedger(
		farmLot(1, 1, "North Field", 10, day(-3)),
		farmLot(2, 1, "North Field", 6, day(5)),
	)
	store := memory.NewAlertStore()
	svc := newAlertService(ledger, store)

	first, err := svc.RefreshAlerts(context.Background(), ptr(30))
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := svc.RefreshAlerts(context.Background(), ptr(30))
	require.NoError(t, err)
	require.Len(t, second, 2)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)
}

func TestRefreshAlertsRefreshesContentButKeepsStatus(t *testing.T) {
	ledger := memory.NewLedger(farmLot(1, 1, "North Field", 10, day(20)))
	store := memory.NewAlertStore()
	svc := newAlertService(ledger, store)

	first, err := svc.RefreshAlerts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, domain.SeverityMedium, first[0].Severity)

	_, err = svc.UpdateStatus(context.Background(), first[0].ID, "DISMISSED")
	require.NoError(t, err)

	ledger.Add(farmLot(2, 1, "North Field", 10, day(2)))
	second, err := svc.RefreshAlerts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, second, 1)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, domain.SeverityHigh, second[0].Severity)
	assert.Equal(t, "2 lots expire within 30 days in North Field.", second[0].Message)
	assert.Equal(t, domain.AlertStatusDismissed, second[0].Status)
	assert.Equal(t, 1, store.Len())
}

func TestRefreshAlertsNextDayCreatesNewRows(t *testing.T) {
	ledger := memory.NewLedger(farmLot(1, 1, "North Field", 10, day(-3)))
	store := memory.NewAlertStore()

	first, err := newAlertService(ledger, store).RefreshAlerts(context.Background(), nil)
	require.NoError(t, err)

	tomorrow := NewAlertService(ledger, store, nil, nil, risk.FixedClock{At: now.AddDate(0, 0, 1)}, DefaultRiskDefaults())
	second, err := tomorrow.RefreshAlerts(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, second, 1)
	assert.NotEqual(t, first[0].ID, second[0].ID)
	assert.Equal(t, 2, store.Len())
}

func TestRefreshAlertsCountsLotsNotLocations(t *testing.T) {
	north := farmLot(1, 1, "North Field", 4, day(-2))
	north.WarehouseID = ptr(int64(1))
	south := north
	south.WarehouseID = ptr(int64(2))
	south.OnHand = decimalOf(6)
	ledger := memory.NewLedger(north, south)

	alerts, err := newAlertService(ledger, memory.NewAlertStore()).RefreshAlerts(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "1 lots have expired in North Field. Review inventory immediately.", alerts[0].Message)

	health, err := NewInventoryHealthService(ledger, clock, DefaultRiskDefaults()).
		GetInventoryHealth(context.Background(), domain.InventoryHealthQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, health.Summary.ExpiredLots)
	require.Len(t, health.Farms, 1)
	assert.Equal(t, 1, health.Farms[0].ExpiredLots)
	assert.True(t, decimalOf(10).Equal(health.Farms[0].QtyAtRisk))
}

func TestRefreshAlertsNothingAtRisk(t *testing.T) {
	ledger := memory.NewLedger(farmLot(1, 1, "North Field", 10, day(90)))
	store := memory.NewAlertStore()

	alerts, err := newAlertService(ledger, store).RefreshAlerts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Equal(t, 0, store.Len())
}

func TestRefreshAlertsRejectsNegativeWindow(t *testing.T) {
	_, err := newAlertService(memory.NewLedger(), memory.NewAlertStore()).RefreshAlerts(context.Background(), ptr(-1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRefreshAlertsLock(t *testing.T) {
	ledger := memory.NewLedger(farmLot(1, 1, "North Field", 10, day(-3)))

	t.Run("held elsewhere", func(t *testing.T) {
		locker := new(MockRefreshLocker)
		locker.On("TryLock", mock.Anything, cache.AlertsRefreshLock).Return(nil, false, nil)
		store := memory.NewAlertStore()

		svc := NewAlertService(ledger, store, locker, nil, clock, DefaultRiskDefaults())
		_, err := svc.RefreshAlerts(context.Background(), nil)

		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Equal(t, 0, store.Len())
		locker.AssertExpectations(t)
	})

	t.Run("released after refresh", func(t *testing.T) {
		released := false
		release := cache.ReleaseFunc(func(context.Context) error {
			released = true
			return nil
		})
		locker := new(MockRefreshLocker)
		locker.On("TryLock", mock.Anything, cache.AlertsRefreshLock).Return(release, true, nil)

		svc := NewAlertService(ledger, memory.NewAlertStore(), locker, nil, clock, DefaultRiskDefaults())
		_, err := svc.RefreshAlerts(context.Background(), nil)

		require.NoError(t, err)
		assert.True(t, released)
	})

	t.Run("lock backend down", func(t *testing.T) {
		locker := new(MockRefreshLocker)
		locker.On("TryLock", mock.Anything, cache.AlertsRefreshLock).Return(nil, false, errors.New("connection refused"))

		svc := NewAlertService(ledger, memory.NewAlertStore(), locker, nil, clock, DefaultRiskDefaults())
		alerts, err := svc.RefreshAlerts(context.Background(), nil)

		require.NoError(t, err)
		assert.Len(t, alerts, 1)
	})
}

func TestRefreshAlertsArchives(t *testing.T) {
	ledger := memory.NewLedger(farmLot(1, 1, "North Field", 10, day(-3)))

	t.Run("uploads snapshot", func(t *testing.T) {
		store := new(MockObjectStorage)
		store.On("UploadObject", mock.Anything, storage.RefreshArchiveKey(now), mock.Anything, "application/json").Return(nil)

		svc := NewAlertService(ledger, memory.NewAlertStore(), nil, storage.NewRefreshArchiver(store), clock, DefaultRiskDefaults())
		_, err := svc.RefreshAlerts(context.Background(), nil)

		require.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("upload failure does not fail refresh", func(t *testing.T) {
		store := new(MockObjectStorage)
		store.On("UploadObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket gone"))

		svc := NewAlertService(ledger, memory.NewAlertStore(), nil, storage.NewRefreshArchiver(store), clock, DefaultRiskDefaults())
		alerts, err := svc.RefreshAlerts(context.Background(), nil)

		require.NoError(t, err)
		assert.Len(t, alerts, 1)
	})
}

func seedAlerts(t *testing.T, store *memory.AlertStore) []domain.Alert {
	t.Helper()
	farm1, farm2 := int64(1), int64(2)
	saved, err := store.UpsertDaily(context.Background(), []domain.Alert{
		{Type: domain.AlertInventoryExpired, Severity: domain.SeverityCritical, Status: domain.AlertStatusNew, FarmID: &farm1, CreatedAt: now.AddDate(0, 0, -20), CreatedDay: *day(-20)},
		{Type: domain.AlertInventoryExpiring, Severity: domain.SeverityHigh, Status: domain.AlertStatusNew, FarmID: &farm1, CreatedAt: now.AddDate(0, 0, -2), CreatedDay: *day(-2)},
		{Type: domain.AlertInventoryExpiring, Severity: domain.SeverityMedium, Status: domain.AlertStatusSent, FarmID: &farm2, CreatedAt: now.Add(-time.Hour), CreatedDay: *day(0)},
	})
	require.NoError(t, err)
	return saved
}

func TestListAlerts(t *testing.T) {
	store := memory.NewAlertStore()
	seeded := seedAlerts(t, store)
	svc := newAlertService(memory.NewLedger(), store)

	tests := []struct {
		name     string
		query    domain.AlertQuery
		expected []int64
	}{
		{"newest first", domain.AlertQuery{Limit: 10}, []int64{seeded[2].ID, seeded[1].ID, seeded[0].ID}},
		{"by type", domain.AlertQuery{Type: "inventory_expiring", Limit: 10}, []int64{seeded[2].ID, seeded[1].ID}},
		{"by severity", domain.AlertQuery{Severity: "CRITICAL", Limit: 10}, []int64{seeded[0].ID}},
		{"by status", domain.AlertQuery{Status: "SENT", Limit: 10}, []int64{seeded[2].ID}},
		{"by farm", domain.AlertQuery{FarmID: ptr(int64(1)), Limit: 10}, []int64{seeded[1].ID, seeded[0].ID}},
		{"by window", domain.AlertQuery{WindowDays: ptr(7), Limit: 10}, []int64{seeded[2].ID, seeded[1].ID}},
		{"zero window is unbounded", domain.AlertQuery{WindowDays: ptr(0), Limit: 10}, []int64{seeded[2].ID, seeded[1].ID, seeded[0].ID}},
		{"second page", domain.AlertQuery{Page: 1, Limit: 2}, []int64{seeded[0].ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.ListAlerts(context.Background(), tt.query)
			require.NoError(t, err)

			ids := make([]int64, 0, len(page.Items))
			for _, a := range page.Items {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}
}

func TestListAlertsUnknownFilterPolicy(t *testing.T) {
	store := memory.NewAlertStore()
	seedAlerts(t, store)

	strict := newAlertService(memory.NewLedger(), store)
	_, err := strict.ListAlerts(context.Background(), domain.AlertQuery{Type: "FROST", Limit: 10})
	assert.ErrorIs(t, err, domain.ErrValidation)

	defaults := DefaultRiskDefaults()
	defaults.FilterPolicy = domain.DropUnknown
	lenient := NewAlertService(memory.NewLedger(), store, nil, nil, clock, defaults)
	page, err := lenient.ListAlerts(context.Background(), domain.AlertQuery{Type: "FROST", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.TotalPages)
}

func TestListAlertsValidation(t *testing.T) {
	svc := newAlertService(memory.NewLedger(), memory.NewAlertStore())

	_, err := svc.ListAlerts(context.Background(), domain.AlertQuery{Limit: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.ListAlerts(context.Background(), domain.AlertQuery{WindowDays: ptr(-3), Limit: 10})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		from    domain.AlertStatus
		to      string
		wantErr error
	}{
		{"new to dismissed", domain.AlertStatusNew, "DISMISSED", nil},
		{"new to sent", domain.AlertStatusNew, "sent", nil},
		{"sent to resolved", domain.AlertStatusSent, "RESOLVED", nil},
		{"dismissed reopens", domain.AlertStatusDismissed, "NEW", nil},
		{"same status is a no-op", domain.AlertStatusResolved, "RESOLVED", nil},
		{"resolved is terminal", domain.AlertStatusResolved, "NEW", domain.ErrInvalidTransition},
		{"dismissed cannot be sent", domain.AlertStatusDismissed, "SENT", domain.ErrInvalidTransition},
		{"new cannot resolve", domain.AlertStatusNew, "RESOLVED", domain.ErrInvalidTransition},
		{"unknown status", domain.AlertStatusNew, "ARCHIVED", domain.ErrValidation},
		{"blank status", domain.AlertStatusNew, "", domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewAlertStore()
			farm := int64(1)
			saved, err := store.UpsertDaily(context.Background(), []domain.Alert{
				{Type: domain.AlertInventoryExpired, Status: tt.from, FarmID: &farm, CreatedAt: now, CreatedDay: *day(0)},
			})
			require.NoError(t, err)

			svc := newAlertService(memory.NewLedger(), store)
			updated, err := svc.UpdateStatus(context.Background(), saved[0].ID, tt.to)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				current, getErr := svc.GetAlert(context.Background(), saved[0].ID)
				require.NoError(t, getErr)
				assert.Equal(t, tt.from, current.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.AlertStatus(normalizeStatus(tt.to)), updated.Status)
		})
	}
}

func TestUpdateStatusUnknownAlert(t *testing.T) {
	svc := newAlertService(memory.NewLedger(), memory.NewAlertStore())
	_, err := svc.UpdateStatus(context.Background(), 404, "SENT")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func normalizeStatus(raw string) string {
	status, _, _ := domain.ParseAlertStatus(raw, domain.FailClosed)
	return string(status)
}
