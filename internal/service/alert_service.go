package service

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/andresuchdata/farmrisk/internal/cache"
	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/andresuchdata/farmrisk/internal/repository"
	"github.com/andresuchdata/farmrisk/internal/risk"
	"github.com/andresuchdata/farmrisk/internal/storage"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	suggestedActionReview = "REVIEW_INVENTORY"
	riskLotsPath          = "/admin/inventory/risk-lots"
)

type AlertService struct {
	ledger   repository.LedgerReader
	alerts   repository.AlertRepository
	locker   cache.RefreshLocker
	archiver *storage.RefreshArchiver
	clock    risk.Clock
	defaults RiskDefaults
}

func NewAlertService(
	ledger repository.LedgerReader,
	alerts repository.AlertRepository,
	locker cache.RefreshLocker,
	archiver *storage.RefreshArchiver,
	clock risk.Clock,
	defaults RiskDefaults,
) *AlertService {
	if locker == nil {
		locker = cache.NewNoopRefreshLocker()
	}
	if archiver == nil {
		archiver = storage.NewRefreshArchiver(nil)
	}
	if clock == nil {
		clock = risk.NewSystemClock(time.UTC)
	}
	return &AlertService{
		ledger:   ledger,
		alerts:   alerts,
		locker:   locker,
		archiver: archiver,
		clock:    clock,
		defaults: defaults,
	}
}

type alertKey struct {
	farmID int64
	typ    domain.AlertType
}

type alertAccumulator struct {
	farmName string
	count    int
	minDays  int
}

// RefreshAlerts scans on-hand lots and upserts one alert per farm and type for
// today. Running it again on the same day updates the existing rows.
func (s *AlertService) RefreshAlerts(ctx context.Context, windowDays *int) ([]domain.Alert, error) {
	window, err := s.defaults.windowDays(windowDays)
	if err != nil {
		return nil, err
	}

	release, acquired, err := s.locker.TryLock(ctx, cache.AlertsRefreshLock)
	if err != nil {
		log.Warn().Err(err).Msg("alerts refresh: lock unavailable, continuing without it")
	} else if !acquired {
		return nil, fmt.Errorf("%w: alert refresh already running", domain.ErrConflict)
	} else {
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("alerts refresh: release lock failed")
			}
		}()
	}

	// One row per lot, so counts match the health widget.
	lots, err := s.ledger.ListOnHandLotsLite(ctx, nil)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	today := risk.StartOfDay(now)

	groups := make(map[alertKey]*alertAccumulator)
	for _, lot := range lots {
		if !lot.HasStock() || lot.ExpiryDate == nil || lot.FarmID == nil {
			continue
		}

		var typ domain.AlertType
		switch risk.ClassifyExpiry(*lot.ExpiryDate, today, window) {
		case domain.ExpiryExpired:
			typ = domain.AlertInventoryExpired
		case domain.ExpiryExpiringSoon:
			typ = domain.AlertInventoryExpiring
		default:
			continue
		}

		key := alertKey{farmID: *lot.FarmID, typ: typ}
		acc, ok := groups[key]
		if !ok {
			acc = &alertAccumulator{farmName: lot.FarmName, minDays: math.MaxInt}
			groups[key] = acc
		}
		acc.count++
		if days := risk.DaysBetween(today, *lot.ExpiryDate); days < acc.minDays {
			acc.minDays = days
		}
	}

	keys := make([]alertKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].farmID != keys[j].farmID {
			return keys[i].farmID < keys[j].farmID
		}
		return keys[i].typ < keys[j].typ
	})

	candidates := make([]domain.Alert, 0, len(keys))
	for _, key := range keys {
		acc := groups[key]
		farmID := key.farmID
		title, message := alertCopy(key.typ, acc.count, acc.farmName, window)
		candidates = append(candidates, domain.Alert{
			Type:                key.typ,
			Severity:            risk.ResolveSeverity(key.typ, acc.minDays),
			Status:              domain.AlertStatusNew,
			FarmID:              &farmID,
			Title:               title,
			Message:             message,
			SuggestedActionType: suggestedActionReview,
			SuggestedActionURL:  riskLotsURL(farmID, window),
			RecipientFarmerIDs:  pq.Int64Array{},
			CreatedAt:           now,
			CreatedDay:          today,
		})
	}

	if len(candidates) == 0 {
		log.Info().Int("window_days", window).Msg("alerts refresh: nothing at risk")
		return []domain.Alert{}, nil
	}

	saved, err := s.alerts.UpsertDaily(ctx, candidates)
	if err != nil {
		return nil, err
	}

	key, err := s.archiver.Archive(ctx, storage.RefreshArchive{
		RefreshedAt: now,
		WindowDays:  window,
		Alerts:      saved,
	})
	if err != nil {
		log.Warn().Err(err).Msg("alerts refresh: archive upload failed")
	} else if key != "" {
		log.Debug().Str("key", key).Msg("alerts refresh: archived")
	}

	log.Info().
		Int("window_days", window).
		Int("lots_scanned", len(lots)).
		Int("alerts", len(saved)).
		Msg("alerts refreshed")

	return saved, nil
}

func alertCopy(typ domain.AlertType, count int, farmName string, windowDays int) (string, string) {
	if typ == domain.AlertInventoryExpired {
		return "Expired inventory",
			fmt.Sprintf("%d lots have expired in %s. Review inventory immediately.", count, farmName)
	}
	return "Inventory expiring soon",
		fmt.Sprintf("%d lots expire within %d days in %s.", count, windowDays, farmName)
}

func riskLotsURL(farmID int64, windowDays int) string {
	params := url.Values{}
	params.Set("farmId", strconv.FormatInt(farmID, 10))
	params.Set("status", string(domain.RiskFilterRisk))
	params.Set("windowDays", strconv.Itoa(windowDays))
	return riskLotsPath + "?" + params.Encode()
}

// ListAlerts pages through stored alerts newest first.
func (s *AlertService) ListAlerts(ctx context.Context, q domain.AlertQuery) (*domain.AlertPage, error) {
	if err := domain.ValidatePage(q.Page, q.Limit); err != nil {
		return nil, err
	}

	filter := domain.AlertFilter{FarmID: q.FarmID, Page: q.Page, Limit: q.Limit}
	policy := s.defaults.FilterPolicy

	if typ, ok, err := domain.ParseAlertType(q.Type, policy); err != nil {
		return nil, err
	} else if ok {
		filter.Type = &typ
	}
	if severity, ok, err := domain.ParseAlertSeverity(q.Severity, policy); err != nil {
		return nil, err
	} else if ok {
		filter.Severity = &severity
	}
	if status, ok, err := domain.ParseAlertStatus(q.Status, policy); err != nil {
		return nil, err
	} else if ok {
		filter.Status = &status
	}

	if q.WindowDays != nil {
		if *q.WindowDays < 0 {
			return nil, domain.NewValidationError("window_days", "must not be negative")
		}
		if *q.WindowDays > 0 {
			since := risk.StartOfDay(s.clock.Now()).AddDate(0, 0, -*q.WindowDays)
			filter.CreatedSince = &since
		}
	}

	items, total, err := s.alerts.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = make([]domain.Alert, 0)
	}

	return &domain.AlertPage{
		Items:      items,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: domain.TotalPages(total, q.Limit),
	}, nil
}

func (s *AlertService) GetAlert(ctx context.Context, id int64) (*domain.Alert, error) {
	return s.alerts.GetByID(ctx, id)
}

// UpdateStatus moves an alert along the status workflow. Moving to the
// current status returns the alert unchanged.
func (s *AlertService) UpdateStatus(ctx context.Context, id int64, rawStatus string) (*domain.Alert, error) {
	to, ok, err := domain.ParseAlertStatus(rawStatus, domain.FailClosed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewValidationError("status", "is required")
	}

	current, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == to {
		return current, nil
	}
	if !domain.CanTransition(current.Status, to) {
		return nil, &domain.TransitionError{From: current.Status, To: to}
	}

	updated, err := s.alerts.UpdateStatus(ctx, id, current.Status, to)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("alert_id", id).
		Str("from", string(current.Status)).
		Str("to", string(to)).
		Msg("alert status updated")

	return updated, nil
}
