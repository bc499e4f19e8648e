// Package memory holds in-process repositories with the same contracts as the
// Postgres ones. It is test support: service and router tests run against it.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/andresuchdata/farmrisk/internal/domain"
)

type Ledger struct {
	mu   sync.RWMutex
	lots []domain.LotSnapshot
}

func NewLedger(lots ...domain.LotSnapshot) *Ledger {
	return &Ledger{lots: append([]domain.LotSnapshot(nil), lots...)}
}

func (l *Ledger) Add(lots ...domain.LotSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lots = append(l.lots, lots...)
}

func (l *Ledger) ListOnHandLots(ctx context.Context, filter domain.LotFilter) ([]domain.LotSnapshot, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]domain.LotSnapshot, 0, len(l.lots))
	for _, lot := range l.lots {
		if filter.FarmID != nil && (lot.FarmID == nil || *lot.FarmID != *filter.FarmID) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(lot.ItemName), q) &&
			!strings.Contains(strings.ToLower(lot.LotCode), q) {
			continue
		}
		out = append(out, lot)
	}
	return out, nil
}

// ListOnHandLotsLite sums every location of a lot into one row, keeping only positive totals.
func (l *Ledger) ListOnHandLotsLite(ctx context.Context, farmID *int64) ([]domain.LotSnapshot, error) {
	rows, err := l.ListOnHandLots(ctx, domain.LotFilter{FarmID: farmID})
	if err != nil {
		return nil, err
	}

	index := make(map[int64]int, len(rows))
	lots := make([]domain.LotSnapshot, 0, len(rows))
	for _, row := range rows {
		if i, ok := index[row.LotID]; ok {
			lots[i].OnHand = lots[i].OnHand.Add(row.OnHand)
			continue
		}
		row.WarehouseID, row.LocationID, row.SupplierName = nil, nil, ""
		index[row.LotID] = len(lots)
		lots = append(lots, row)
	}

	out := lots[:0]
	for _, lot := range lots {
		if lot.HasStock() {
			out = append(out, lot)
		}
	}
	return out, nil
}
