package service

import (
	"cmp"
	"context"
	"sort"
	"time"

	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/andresuchdata/farmrisk/internal/repository"
	"github.com/andresuchdata/farmrisk/internal/risk"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type InventoryHealthService struct {
	ledger   repository.LedgerReader
	clock    risk.Clock
	defaults RiskDefaults
}

func NewInventoryHealthService(ledger repository.LedgerReader, clock risk.Clock, defaults RiskDefaults) *InventoryHealthService {
	if clock == nil {
		clock = risk.NewSystemClock(time.UTC)
	}
	return &InventoryHealthService{ledger: ledger, clock: clock, defaults: defaults}
}

// farmRiskAccumulator lives for a single GetInventoryHealth call.
type farmRiskAccumulator struct {
	farmID       int64
	farmName     string
	expiredLots  int
	expiringLots int
	qtyAtRisk    decimal.Decimal
	lots         []domain.RiskLotEntry
}

// GetInventoryHealth builds the dashboard widget: global counts plus the farms
// with the most expired and expiring stock.
func (s *InventoryHealthService) GetInventoryHealth(ctx context.Context, q domain.InventoryHealthQuery) (*domain.InventoryHealth, error) {
	windowDays, err := s.defaults.windowDays(q.WindowDays)
	if err != nil {
		return nil, err
	}

	limit := s.defaults.WidgetFarmLimit
	if q.Limit != nil {
		if *q.Limit < 0 {
			return nil, domain.NewValidationError("limit", "must not be negative")
		}
		limit = *q.Limit
	}

	includeExpiring := true
	if q.IncludeExpiring != nil {
		includeExpiring = *q.IncludeExpiring
	}

	lots, err := s.ledger.ListOnHandLotsLite(ctx, nil)
	if err != nil {
		return nil, err
	}

	today := risk.StartOfDay(s.clock.Now())
	summary := domain.InventoryHealthSummary{QtyAtRisk: decimal.Zero}
	byFarm := make(map[int64]*farmRiskAccumulator)

	for _, lot := range lots {
		if !lot.HasStock() {
			continue
		}
		if lot.ExpiryDate == nil {
			summary.UnknownExpiryLots++
			continue
		}

		status := risk.ClassifyExpiry(*lot.ExpiryDate, today, windowDays)
		if status == domain.ExpiryHealthy {
			continue
		}
		if status == domain.ExpiryExpiringSoon && !includeExpiring {
			continue
		}

		expired := status == domain.ExpiryExpired
		if expired {
			summary.ExpiredLots++
		} else {
			summary.ExpiringLots++
		}
		summary.QtyAtRisk = summary.QtyAtRisk.Add(lot.OnHand)

		if lot.FarmID == nil {
			continue
		}

		acc, ok := byFarm[*lot.FarmID]
		if !ok {
			acc = &farmRiskAccumulator{farmID: *lot.FarmID, farmName: lot.FarmName, qtyAtRisk: decimal.Zero}
			byFarm[*lot.FarmID] = acc
		}
		if expired {
			acc.expiredLots++
		} else {
			acc.expiringLots++
		}
		acc.qtyAtRisk = acc.qtyAtRisk.Add(lot.OnHand)
		acc.lots = append(acc.lots, domain.RiskLotEntry{
			LotID:        lot.LotID,
			ItemName:     lot.ItemName,
			LotCode:      lot.LotCode,
			Unit:         lot.Unit,
			ExpiryDate:   lot.ExpiryDate,
			DaysToExpiry: risk.DaysBetween(today, *lot.ExpiryDate),
			OnHand:       lot.OnHand,
			Status:       status,
		})
	}

	accs := make([]*farmRiskAccumulator, 0, len(byFarm))
	for _, acc := range byFarm {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool {
		return compareFarmRisk(accs[i], accs[j]) < 0
	})
	summary.FarmsAtRisk = len(accs)

	if len(accs) > limit {
		accs = accs[:limit]
	}

	farms := make([]domain.FarmRisk, 0, len(accs))
	for _, acc := range accs {
		farms = append(farms, domain.FarmRisk{
			FarmID:       acc.farmID,
			FarmName:     acc.farmName,
			ExpiredLots:  acc.expiredLots,
			ExpiringLots: acc.expiringLots,
			QtyAtRisk:    acc.qtyAtRisk,
			TopRiskLots:  topRiskLots(acc.lots, topRiskLotsPerFarm),
		})
	}

	log.Debug().
		Int("window_days", windowDays).
		Int("lots_scanned", len(lots)).
		Int("farms_at_risk", summary.FarmsAtRisk).
		Msg("inventory health computed")

	return &domain.InventoryHealth{
		AsOf:            today,
		WindowDays:      windowDays,
		IncludeExpiring: includeExpiring,
		Summary:         summary,
		Farms:           farms,
	}, nil
}

// compareFarmRisk orders farms by expired desc, expiring desc, qty desc, then id.
func compareFarmRisk(a, b *farmRiskAccumulator) int {
	if c := cmp.Compare(b.expiredLots, a.expiredLots); c != 0 {
		return c
	}
	if c := cmp.Compare(b.expiringLots, a.expiringLots); c != 0 {
		return c
	}
	if c := b.qtyAtRisk.Cmp(a.qtyAtRisk); c != 0 {
		return c
	}
	return cmp.Compare(a.farmID, b.farmID)
}

func topRiskLots(entries []domain.RiskLotEntry, n int) []domain.RiskLotEntry {
	sorted := append([]domain.RiskLotEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if c := cmp.Compare(a.Status.Rank(), b.Status.Rank()); c != 0 {
			return c < 0
		}
		if c := compareExpiry(a.ExpiryDate, b.ExpiryDate, false); c != 0 {
			return c < 0
		}
		if c := b.OnHand.Cmp(a.OnHand); c != 0 {
			return c < 0
		}
		return a.LotID < b.LotID
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// GetRiskLots lists classified lots for drill-down. Filtering, sorting and
// paging happen in memory over the full scan.
func (s *InventoryHealthService) GetRiskLots(ctx context.Context, q domain.RiskLotQuery) (*domain.RiskLotPage, error) {
	if err := domain.ValidatePage(q.Page, q.Limit); err != nil {
		return nil, err
	}

	windowDays, err := s.defaults.windowDays(q.WindowDays)
	if err != nil {
		return nil, err
	}

	threshold := s.defaults.LowStockThreshold
	if q.LowStockThreshold != nil {
		if q.LowStockThreshold.IsNegative() {
			return nil, domain.NewValidationError("low_stock_threshold", "must not be negative")
		}
		threshold = *q.LowStockThreshold
	}

	status, err := domain.ParseRiskStatusFilter(q.Status)
	if err != nil {
		return nil, err
	}

	sortBy, err := domain.ParseRiskLotSort(q.Sort)
	if err != nil {
		return nil, err
	}

	lots, err := s.ledger.ListOnHandLots(ctx, domain.LotFilter{FarmID: q.FarmID, Search: q.Search})
	if err != nil {
		return nil, err
	}

	today := risk.StartOfDay(s.clock.Now())
	items := make([]domain.RiskLot, 0, len(lots))
	for _, lot := range lots {
		if !lot.HasStock() {
			continue
		}
		category := risk.Classify(lot.OnHand, lot.ExpiryDate, today, windowDays, threshold)
		if !status.Matches(category) {
			continue
		}
		items = append(items, domain.RiskLot{
			LotSnapshot:  lot,
			Category:     category,
			DaysToExpiry: risk.DaysToExpiry(lot.ExpiryDate, today),
		})
	}

	sortRiskLots(items, sortBy)

	total := len(items)
	start, end := domain.PageBounds(total, q.Page, q.Limit)

	return &domain.RiskLotPage{
		Items:             items[start:end],
		Page:              q.Page,
		Limit:             q.Limit,
		Total:             total,
		TotalPages:        domain.TotalPages(total, q.Limit),
		Status:            status,
		Sort:              sortBy,
		WindowDays:        windowDays,
		LowStockThreshold: threshold,
	}, nil
}

func sortRiskLots(items []domain.RiskLot, by domain.RiskLotSort) {
	sort.SliceStable(items, func(i, j int) bool {
		return compareRiskLots(items[i], items[j], by) < 0
	})
}

func compareRiskLots(a, b domain.RiskLot, by domain.RiskLotSort) int {
	onHandDesc := func() int { return b.OnHand.Cmp(a.OnHand) }

	var keys []func() int
	switch by {
	case domain.SortExpiryAsc:
		keys = []func() int{
			func() int { return compareExpiry(a.ExpiryDate, b.ExpiryDate, false) },
			onHandDesc,
		}
	case domain.SortExpiryDesc:
		keys = []func() int{
			func() int { return compareExpiry(a.ExpiryDate, b.ExpiryDate, true) },
			onHandDesc,
		}
	case domain.SortOnHandDesc:
		keys = []func() int{
			onHandDesc,
			func() int { return compareExpiry(a.ExpiryDate, b.ExpiryDate, false) },
		}
	default:
		keys = []func() int{
			func() int { return cmp.Compare(a.Category.Rank(), b.Category.Rank()) },
			func() int { return compareExpiry(a.ExpiryDate, b.ExpiryDate, false) },
			onHandDesc,
		}
	}

	for _, key := range keys {
		if c := key(); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.LotID, b.LotID); c != 0 {
		return c
	}
	if c := compareOptionalID(a.WarehouseID, b.WarehouseID); c != 0 {
		return c
	}
	return compareOptionalID(a.LocationID, b.LocationID)
}

// compareExpiry puts missing dates last in both directions.
func compareExpiry(a, b *time.Time, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := a.Compare(*b)
	if desc {
		return -c
	}
	return c
}

func compareOptionalID(a, b *int64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(*a, *b)
}
