package memory

import "github.com/andresuchdata/farmrisk/internal/repository"

var (
	_ repository.LedgerReader           = (*Ledger)(nil)
	_ repository.AlertRepository        = (*AlertStore)(nil)
	_ repository.NotificationRepository = (*AlertStore)(nil)
	_ repository.IdentityRepository     = (*Identity)(nil)
)
