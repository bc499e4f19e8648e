package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/farmrisk/internal/domain"
)

// RefreshArchive is the JSON document written for every committed refresh.
type RefreshArchive struct {
	RefreshedAt time.Time      `json:"refreshed_at"`
	WindowDays  int            `json:"window_days"`
	Alerts      []domain.Alert `json:"alerts"`
}

type RefreshArchiver struct {
	store ObjectStorage
}

func NewRefreshArchiver(store ObjectStorage) *RefreshArchiver {
	if store == nil {
		store = NewNoopStorage()
	}
	return &RefreshArchiver{store: store}
}

// Archive uploads the snapshot and returns the object key.
func (a *RefreshArchiver) Archive(ctx context.Context, doc RefreshArchive) (string, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode refresh archive: %w", err)
	}

	key := RefreshArchiveKey(doc.RefreshedAt)
	if err := a.store.UploadObject(ctx, key, payload, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}

func RefreshArchiveKey(at time.Time) string {
	return fmt.Sprintf("alerts/refresh/%s/%d.json", at.Format("2006-01-02"), at.UnixNano())
}
