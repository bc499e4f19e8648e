package domain

import (
	"time"

	"github.com/lib/pq"
)

type AlertType string

const (
	AlertInventoryExpired  AlertType = "INVENTORY_EXPIRED"
	AlertInventoryExpiring AlertType = "INVENTORY_EXPIRING"
)

type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "CRITICAL"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityLow      AlertSeverity = "LOW"
)

type AlertStatus string

const (
	AlertStatusNew       AlertStatus = "NEW"
	AlertStatusSent      AlertStatus = "SENT"
	AlertStatusDismissed AlertStatus = "DISMISSED"
	AlertStatusResolved  AlertStatus = "RESOLVED"
)

var (
	alertTypeCodes     = codeTable(AlertInventoryExpired, AlertInventoryExpiring)
	alertSeverityCodes = codeTable(SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow)
	alertStatusCodes   = codeTable(AlertStatusNew, AlertStatusSent, AlertStatusDismissed, AlertStatusResolved)
)

func ParseAlertType(raw string, policy ParsePolicy) (AlertType, bool, error) {
	return ParseCode("type", raw, alertTypeCodes, policy)
}

func ParseAlertSeverity(raw string, policy ParsePolicy) (AlertSeverity, bool, error) {
	return ParseCode("severity", raw, alertSeverityCodes, policy)
}

func ParseAlertStatus(raw string, policy ParsePolicy) (AlertStatus, bool, error) {
	return ParseCode("status", raw, alertStatusCodes, policy)
}

// alertTransitions lists the status changes an administrator may apply.
// RESOLVED has no outgoing edges.
var alertTransitions = map[AlertStatus][]AlertStatus{
	AlertStatusNew:       {AlertStatusSent, AlertStatusDismissed},
	AlertStatusSent:      {AlertStatusResolved, AlertStatusNew},
	AlertStatusDismissed: {AlertStatusNew},
}

// CanTransition reports whether from -> to is allowed. Same-status moves are always allowed.
func CanTransition(from, to AlertStatus) bool {
	if from == to {
		return true
	}
	for _, next := range alertTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Sendable reports whether an alert in status s may be dispatched to recipients.
func (s AlertStatus) Sendable() bool {
	return s == AlertStatusNew || s == AlertStatusSent
}

type Alert struct {
	ID                  int64         `json:"id" db:"id"`
	Type                AlertType     `json:"type" db:"type"`
	Severity            AlertSeverity `json:"severity" db:"severity"`
	Status              AlertStatus   `json:"status" db:"status"`
	FarmID              *int64        `json:"farm_id" db:"farm_id"`
	SeasonID            *int64        `json:"season_id" db:"season_id"`
	PlotID              *int64        `json:"plot_id" db:"plot_id"`
	CropID              *int64        `json:"crop_id" db:"crop_id"`
	Title               string        `json:"title" db:"title"`
	Message             string        `json:"message" db:"message"`
	SuggestedActionType string        `json:"suggested_action_type" db:"suggested_action_type"`
	SuggestedActionURL  string        `json:"suggested_action_url" db:"suggested_action_url"`
	RecipientFarmerIDs  pq.Int64Array `json:"recipient_farmer_ids" db:"recipient_farmer_ids"`
	CreatedAt           time.Time     `json:"created_at" db:"created_at"`
	CreatedDay          time.Time     `json:"-" db:"created_day"`
	SentAt              *time.Time    `json:"sent_at" db:"sent_at"`
}

// AlertQuery carries raw listing parameters from the transport layer.
type AlertQuery struct {
	Type       string
	Severity   string
	Status     string
	FarmID     *int64
	WindowDays *int
	Page       int
	Limit      int
}

// AlertFilter is the parsed form of AlertQuery handed to storage.
type AlertFilter struct {
	Type         *AlertType
	Severity     *AlertSeverity
	Status       *AlertStatus
	FarmID       *int64
	CreatedSince *time.Time
	Page         int
	Limit        int
}

type AlertPage struct {
	Items      []Alert `json:"items"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
}
