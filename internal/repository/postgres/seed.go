package postgres

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// seedTable describes one CSV file and the table it loads into. Rows are
// keyed by id so reseeding updates in place.
type seedTable struct {
	name    string
	file    string
	columns []string
}

// seedTables is in foreign-key order.
var seedTables = []seedTable{
	{name: "users", file: "users.csv", columns: []string{"id", "full_name", "email", "role"}},
	{name: "farms", file: "farms.csv", columns: []string{"id", "name", "owner_user_id"}},
	{name: "supply_items", file: "supply_items.csv", columns: []string{"id", "name", "unit"}},
	{name: "supply_lots", file: "supply_lots.csv", columns: []string{"id", "item_id", "lot_code", "farm_id", "expiry_date", "supplier_name"}},
	{name: "stock_movements", file: "stock_movements.csv", columns: []string{"id", "lot_id", "warehouse_id", "location_id", "movement_type", "quantity"}},
}

// Seed loads the ledger fixtures from dataDir in one transaction. Missing
// files are skipped; empty cells become NULL.
func Seed(ctx context.Context, db *DB, dataDir string) error {
	return db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range seedTables {
			path := filepath.Join(dataDir, table.file)
			n, err := seedFromCSV(ctx, tx, table, path)
			if errors.Is(err, os.ErrNotExist) {
				log.Warn().Str("file", path).Msg("seed file not found, skipping")
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to seed %s: %w", table.name, err)
			}

			if _, err := tx.ExecContext(ctx, resetSequenceQuery(table.name)); err != nil {
				return fmt.Errorf("failed to reset %s id sequence: %w", table.name, err)
			}
			log.Info().Str("table", table.name).Int("rows", n).Msg("seeded")
		}
		return nil
	})
}

func seedFromCSV(ctx context.Context, tx *sqlx.Tx, table seedTable, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	indexes, err := columnIndexes(header, table.columns)
	if err != nil {
		return 0, err
	}

	query := buildSeedQuery(table.name, table.columns)
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("failed to read CSV record: %w", err)
		}

		args := make([]interface{}, len(indexes))
		for i, idx := range indexes {
			args[i] = nullIfEmpty(record[idx])
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return rows, fmt.Errorf("failed to insert record %d: %w", rows+1, err)
		}
		rows++
	}
	return rows, nil
}

func columnIndexes(header, columns []string) ([]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.ToLower(strings.TrimSpace(h))] = i
	}

	indexes := make([]int, len(columns))
	for i, col := range columns {
		idx, ok := positions[col]
		if !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
		indexes[i] = idx
	}
	return indexes, nil
}

func buildSeedQuery(table string, columns []string) string {
	placeholders := make([]string, len(columns))
	updates := make([]string, 0, len(columns)-1)
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col != "id" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(updates, ", "),
	)
}

func resetSequenceQuery(table string) string {
	return fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
		table,
	)
}

// nullIfEmpty returns nil for blank cells so they insert as NULL.
func nullIfEmpty(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
