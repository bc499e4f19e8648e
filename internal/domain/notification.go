package domain

import "time"

type Notification struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	Title     string     `json:"title" db:"title"`
	Message   string     `json:"message" db:"message"`
	Link      string     `json:"link" db:"link"`
	AlertID   *int64     `json:"alert_id" db:"alert_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	ReadAt    *time.Time `json:"read_at" db:"read_at"`
}

type NotificationPage struct {
	Items      []Notification `json:"items"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
}

type Channel string

const ChannelInApp Channel = "IN_APP"

type RecipientMode string

const (
	RecipientsAllFarmersInFarm RecipientMode = "ALL_FARMERS_IN_FARM"
	RecipientsSelected         RecipientMode = "SELECTED"
)

var (
	channelCodes       = codeTable(ChannelInApp)
	recipientModeCodes = codeTable(RecipientsAllFarmersInFarm, RecipientsSelected)
)

// ParseChannel accepts a blank channel (defaults to IN_APP) and rejects anything else.
func ParseChannel(raw string) (Channel, error) {
	channel, ok, err := ParseCode("channel", raw, channelCodes, FailClosed)
	if err != nil {
		return "", err
	}
	if !ok {
		return ChannelInApp, nil
	}
	return channel, nil
}

func ParseRecipientMode(raw string) (RecipientMode, error) {
	mode, ok, err := ParseCode("recipient_mode", raw, recipientModeCodes, FailClosed)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", NewValidationError("recipient_mode", "is required")
	}
	return mode, nil
}

type SendAlertRequest struct {
	Channel            string  `json:"channel"`
	RecipientMode      string  `json:"recipient_mode"`
	RecipientFarmerIDs []int64 `json:"recipient_farmer_ids"`
}

// AlertDispatch is everything persisted atomically when an alert is sent.
type AlertDispatch struct {
	AlertID       int64
	FromStatuses  []AlertStatus
	RecipientIDs  []int64
	Notifications []Notification
	SentAt        time.Time
}

// AlertSentEvent is published after a dispatch commits.
type AlertSentEvent struct {
	AlertID      int64     `json:"alert_id"`
	FarmID       *int64    `json:"farm_id"`
	Type         AlertType `json:"type"`
	RecipientIDs []int64   `json:"recipient_ids"`
	SentAt       time.Time `json:"sent_at"`
}
