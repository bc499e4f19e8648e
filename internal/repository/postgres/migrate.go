package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/andresuchdata/farmrisk/internal/repository"
)

//go:embed schema.sql
var schema string

// Migrate applies the idempotent schema.
func Migrate(ctx context.Context, db *DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

var (
	_ repository.LedgerReader           = (*ledgerRepository)(nil)
	_ repository.AlertRepository        = (*alertRepository)(nil)
	_ repository.NotificationRepository = (*notificationRepository)(nil)
	_ repository.IdentityRepository     = (*identityRepository)(nil)
)
