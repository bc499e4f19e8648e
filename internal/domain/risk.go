package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskCategory is the five-bucket lot classification. Lower rank means more urgent.
type RiskCategory string

const (
	RiskExpired       RiskCategory = "EXPIRED"
	RiskExpiring      RiskCategory = "EXPIRING"
	RiskLowStock      RiskCategory = "LOW_STOCK"
	RiskUnknownExpiry RiskCategory = "UNKNOWN_EXPIRY"
	RiskHealthy       RiskCategory = "HEALTHY"
)

var riskCategoryRanks = map[RiskCategory]int{
	RiskExpired:       0,
	RiskExpiring:      1,
	RiskLowStock:      2,
	RiskUnknownExpiry: 3,
	RiskHealthy:       4,
}

func (c RiskCategory) Rank() int {
	if rank, ok := riskCategoryRanks[c]; ok {
		return rank
	}
	return len(riskCategoryRanks)
}

// ExpiryStatus is the three-bucket classification used by the dashboard widget.
type ExpiryStatus string

const (
	ExpiryExpired      ExpiryStatus = "EXPIRED"
	ExpiryExpiringSoon ExpiryStatus = "EXPIRING_SOON"
	ExpiryHealthy      ExpiryStatus = "HEALTHY"
)

func (s ExpiryStatus) Rank() int {
	switch s {
	case ExpiryExpired:
		return 0
	case ExpiryExpiringSoon:
		return 1
	default:
		return 2
	}
}

// RiskStatusFilter is the closed vocabulary accepted by the risk-lot listing.
type RiskStatusFilter string

const (
	RiskFilterAll           RiskStatusFilter = "ALL"
	RiskFilterRisk          RiskStatusFilter = "RISK"
	RiskFilterExpired       RiskStatusFilter = "EXPIRED"
	RiskFilterExpiring      RiskStatusFilter = "EXPIRING"
	RiskFilterLowStock      RiskStatusFilter = "LOW_STOCK"
	RiskFilterUnknownExpiry RiskStatusFilter = "UNKNOWN_EXPIRY"
)

var riskStatusFilterCodes = func() map[string]RiskStatusFilter {
	codes := codeTable(RiskFilterAll, RiskFilterRisk, RiskFilterExpired, RiskFilterExpiring,
		RiskFilterLowStock, RiskFilterUnknownExpiry)
	codes[normalizeCode("ALL_RISK")] = RiskFilterAll
	return codes
}()

// ParseRiskStatusFilter always fails closed; blank means ALL.
func ParseRiskStatusFilter(raw string) (RiskStatusFilter, error) {
	status, ok, err := ParseCode("status", raw, riskStatusFilterCodes, FailClosed)
	if err != nil {
		return "", err
	}
	if !ok {
		return RiskFilterAll, nil
	}
	return status, nil
}

// Matches reports whether a lot in category c passes the filter.
func (f RiskStatusFilter) Matches(c RiskCategory) bool {
	switch f {
	case RiskFilterAll:
		return true
	case RiskFilterRisk:
		return c != RiskHealthy
	default:
		return string(f) == string(c)
	}
}

type RiskLotSort string

const (
	SortExpiryAsc  RiskLotSort = "EXPIRY_ASC"
	SortExpiryDesc RiskLotSort = "EXPIRY_DESC"
	SortOnHandDesc RiskLotSort = "ON_HAND_DESC"
	SortDefault    RiskLotSort = "DEFAULT"
)

var riskLotSortCodes = keyedCodeTable(compactCode, SortExpiryAsc, SortExpiryDesc, SortOnHandDesc, SortDefault)

// ParseRiskLotSort ignores separators as well as case, so ONHAND_DESC is ON_HAND_DESC.
func ParseRiskLotSort(raw string) (RiskLotSort, error) {
	sort, ok, err := parseCode("sort", raw, compactCode, riskLotSortCodes, FailClosed)
	if err != nil {
		return "", err
	}
	if !ok {
		return SortDefault, nil
	}
	return sort, nil
}

// RiskLotQuery carries the raw drill-down parameters; nil pointers take defaults.
type RiskLotQuery struct {
	FarmID            *int64
	Status            string
	WindowDays        *int
	Search            string
	Sort              string
	LowStockThreshold *decimal.Decimal
	Page              int
	Limit             int
}

type RiskLot struct {
	LotSnapshot
	Category     RiskCategory `json:"category"`
	DaysToExpiry *int         `json:"days_to_expiry"`
}

type RiskLotPage struct {
	Items             []RiskLot        `json:"items"`
	Page              int              `json:"page"`
	Limit             int              `json:"limit"`
	Total             int              `json:"total"`
	TotalPages        int              `json:"total_pages"`
	Status            RiskStatusFilter `json:"status"`
	Sort              RiskLotSort      `json:"sort"`
	WindowDays        int              `json:"window_days"`
	LowStockThreshold decimal.Decimal  `json:"low_stock_threshold"`
}

// InventoryHealthQuery carries the widget parameters; nil pointers take defaults.
type InventoryHealthQuery struct {
	WindowDays      *int
	IncludeExpiring *bool
	Limit           *int
}

type RiskLotEntry struct {
	LotID        int64           `json:"lot_id"`
	ItemName     string          `json:"item_name"`
	LotCode      string          `json:"lot_code"`
	Unit         string          `json:"unit"`
	ExpiryDate   *time.Time      `json:"expiry_date"`
	DaysToExpiry int             `json:"days_to_expiry"`
	OnHand       decimal.Decimal `json:"on_hand"`
	Status       ExpiryStatus    `json:"status"`
}

type FarmRisk struct {
	FarmID       int64           `json:"farm_id"`
	FarmName     string          `json:"farm_name"`
	ExpiredLots  int             `json:"expired_lots"`
	ExpiringLots int             `json:"expiring_lots"`
	QtyAtRisk    decimal.Decimal `json:"qty_at_risk"`
	TopRiskLots  []RiskLotEntry  `json:"top_risk_lots"`
}

type InventoryHealthSummary struct {
	ExpiredLots       int             `json:"expired_lots"`
	ExpiringLots      int             `json:"expiring_lots"`
	UnknownExpiryLots int             `json:"unknown_expiry_lots"`
	FarmsAtRisk       int             `json:"farms_at_risk"`
	QtyAtRisk         decimal.Decimal `json:"qty_at_risk"`
}

type InventoryHealth struct {
	AsOf            time.Time              `json:"as_of"`
	WindowDays      int                    `json:"window_days"`
	IncludeExpiring bool                   `json:"include_expiring"`
	Summary         InventoryHealthSummary `json:"summary"`
	Farms           []FarmRisk             `json:"farms"`
}
