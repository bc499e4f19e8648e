package risk

import (
	"time"

	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/shopspring/decimal"
)

// Classify maps a stocked lot onto the five-bucket risk scale. First match wins:
// unknown expiry, expired, expiring within the window, low stock, healthy.
// Callers drop lots with onHand <= 0 before classifying.
func Classify(onHand decimal.Decimal, expiry *time.Time, today time.Time, windowDays int, lowStock decimal.Decimal) domain.RiskCategory {
	if expiry == nil {
		return domain.RiskUnknownExpiry
	}

	days := DaysBetween(today, *expiry)
	switch {
	case days < 0:
		return domain.RiskExpired
	case days <= windowDays:
		return domain.RiskExpiring
	case onHand.LessThanOrEqual(lowStock):
		return domain.RiskLowStock
	default:
		return domain.RiskHealthy
	}
}

// ClassifyExpiry is the three-bucket variant without a low-stock dimension.
func ClassifyExpiry(expiry, today time.Time, windowDays int) domain.ExpiryStatus {
	days := DaysBetween(today, expiry)
	switch {
	case days < 0:
		return domain.ExpiryExpired
	case days <= windowDays:
		return domain.ExpiryExpiringSoon
	default:
		return domain.ExpiryHealthy
	}
}

// DaysToExpiry returns nil for lots without an expiry date.
func DaysToExpiry(expiry *time.Time, today time.Time) *int {
	if expiry == nil {
		return nil
	}
	days := DaysBetween(today, *expiry)
	return &days
}
