package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/farmrisk/internal/domain"
)

const onHandExpr = `SUM(CASE m.movement_type
            WHEN 'IN' THEN m.quantity
            WHEN 'OUT' THEN -m.quantity
            ELSE m.quantity
        END)`

type ledgerRepository struct {
	db *DB
}

func NewLedgerRepository(db *DB) *ledgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) ListOnHandLots(ctx context.Context, filter domain.LotFilter) ([]domain.LotSnapshot, error) {
	where := buildLotFilterClause(filter)

	query := onHandLotsQuery(where.sql())

	var lots []domain.LotSnapshot
	if err := r.db.SelectContext(ctx, &lots, query, where.args...); err != nil {
		return nil, fmt.Errorf("error listing on-hand lots: %w", err)
	}

	return lots, nil
}

func (r *ledgerRepository) ListOnHandLotsLite(ctx context.Context, farmID *int64) ([]domain.LotSnapshot, error) {
	where := buildLotFilterClause(domain.LotFilter{FarmID: farmID})

	query := onHandLotsLiteQuery(where.sql())

	var lots []domain.LotSnapshot
	if err := r.db.SelectContext(ctx, &lots, query, where.args...); err != nil {
		return nil, fmt.Errorf("error listing on-hand lots: %w", err)
	}

	return lots, nil
}

// onHandLotsQuery nets movements per lot, warehouse and location.
func onHandLotsQuery(where string) string {
	return `
        SELECT
            l.id AS lot_id,
            i.id AS item_id,
            i.name AS item_name,
            l.lot_code,
            l.farm_id,
            COALESCE(f.name, '') AS farm_name,
            i.unit,
            COALESCE(l.supplier_name, '') AS supplier_name,
            m.warehouse_id,
            m.location_id,
            l.expiry_date,
            ` + onHandExpr + ` AS on_hand
        FROM stock_movements m
        JOIN supply_lots l ON l.id = m.lot_id
        JOIN supply_items i ON i.id = l.item_id
        LEFT JOIN farms f ON f.id = l.farm_id
        WHERE 1=1` + where + `
        GROUP BY l.id, i.id, i.name, l.lot_code, l.farm_id, f.name, i.unit,
                 l.supplier_name, m.warehouse_id, m.location_id, l.expiry_date
        HAVING ` + onHandExpr + ` > 0
        ORDER BY l.id, m.warehouse_id, m.location_id
    `
}

// onHandLotsLiteQuery nets movements per lot across all locations.
func onHandLotsLiteQuery(where string) string {
	return `
        SELECT
            l.id AS lot_id,
            l.item_id,
            i.name AS item_name,
            l.lot_code,
            l.farm_id,
            COALESCE(f.name, '') AS farm_name,
            i.unit,
            l.expiry_date,
            ` + onHandExpr + ` AS on_hand
        FROM stock_movements m
        JOIN supply_lots l ON l.id = m.lot_id
        JOIN supply_items i ON i.id = l.item_id
        LEFT JOIN farms f ON f.id = l.farm_id
        WHERE 1=1` + where + `
        GROUP BY l.id, l.item_id, i.name, l.lot_code, l.farm_id, f.name, i.unit, l.expiry_date
        HAVING ` + onHandExpr + ` > 0
        ORDER BY l.id
    `
}
