package risk

import "github.com/andresuchdata/farmrisk/internal/domain"

const (
	highSeverityDays   = 7
	mediumSeverityDays = 30
)

// ResolveSeverity grades a farm-level alert. Expired stock is always critical;
// expiring stock is graded by the closest expiry among its lots.
func ResolveSeverity(alertType domain.AlertType, minDaysToExpiry int) domain.AlertSeverity {
	if alertType == domain.AlertInventoryExpired {
		return domain.SeverityCritical
	}
	switch {
	case minDaysToExpiry <= highSeverityDays:
		return domain.SeverityHigh
	case minDaysToExpiry <= mediumSeverityDays:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}
