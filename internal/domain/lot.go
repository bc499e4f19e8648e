package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LotSnapshot is the on-hand position of one lot at one warehouse location,
// derived from ledger movements on every read.
type LotSnapshot struct {
	LotID        int64           `json:"lot_id" db:"lot_id"`
	ItemID       int64           `json:"item_id" db:"item_id"`
	ItemName     string          `json:"item_name" db:"item_name"`
	LotCode      string          `json:"lot_code" db:"lot_code"`
	FarmID       *int64          `json:"farm_id" db:"farm_id"`
	FarmName     string          `json:"farm_name" db:"farm_name"`
	Unit         string          `json:"unit" db:"unit"`
	SupplierName string          `json:"supplier_name,omitempty" db:"supplier_name"`
	WarehouseID  *int64          `json:"warehouse_id,omitempty" db:"warehouse_id"`
	LocationID   *int64          `json:"location_id,omitempty" db:"location_id"`
	ExpiryDate   *time.Time      `json:"expiry_date" db:"expiry_date"`
	OnHand       decimal.Decimal `json:"on_hand" db:"on_hand"`
}

// HasStock reports whether the lot carries a strictly positive quantity.
func (l LotSnapshot) HasStock() bool {
	return l.OnHand.IsPositive()
}

// LotFilter narrows a ledger scan.
type LotFilter struct {
	FarmID *int64
	Search string
}

type Farm struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	OwnerUserID *int64 `json:"owner_user_id" db:"owner_user_id"`
}

type User struct {
	ID       int64  `json:"id" db:"id"`
	FullName string `json:"full_name" db:"full_name"`
	Email    string `json:"email" db:"email"`
	Role     string `json:"role" db:"role"`
}
