package service

import (
	"context"
	"strings"
	"time"

	"github.com/andresuchdata/farmrisk/internal/cache"
	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/andresuchdata/farmrisk/internal/repository"
	"github.com/andresuchdata/farmrisk/internal/risk"
	"github.com/rs/zerolog/log"
)

const (
	adminLinkPrefix  = "/admin/"
	farmerLinkPrefix = "/farmer/"
)

// NotificationDispatcher fans an alert out to farmer inboxes and serves those inboxes.
type NotificationDispatcher struct {
	alerts        repository.AlertRepository
	notifications repository.NotificationRepository
	identity      repository.IdentityRepository
	publisher     cache.AlertEventPublisher
	clock         risk.Clock
}

func NewNotificationDispatcher(
	alerts repository.AlertRepository,
	notifications repository.NotificationRepository,
	identity repository.IdentityRepository,
	publisher cache.AlertEventPublisher,
	clock risk.Clock,
) *NotificationDispatcher {
	if publisher == nil {
		publisher = cache.NewNoopAlertEventPublisher()
	}
	if clock == nil {
		clock = risk.NewSystemClock(time.UTC)
	}
	return &NotificationDispatcher{
		alerts:        alerts,
		notifications: notifications,
		identity:      identity,
		publisher:     publisher,
		clock:         clock,
	}
}

// SendAlert delivers an in-app notification to each recipient and marks the
// alert SENT. Either every notification is stored with the status change, or
// nothing is.
func (d *NotificationDispatcher) SendAlert(ctx context.Context, alertID int64, req domain.SendAlertRequest) (*domain.Alert, error) {
	if _, err := domain.ParseChannel(req.Channel); err != nil {
		return nil, err
	}
	mode, err := domain.ParseRecipientMode(req.RecipientMode)
	if err != nil {
		return nil, err
	}

	alert, err := d.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if !alert.Status.Sendable() {
		return nil, &domain.TransitionError{From: alert.Status, To: domain.AlertStatusSent}
	}

	recipientIDs, err := d.resolveRecipients(ctx, alert, mode, req.RecipientFarmerIDs)
	if err != nil {
		return nil, err
	}

	now := d.clock.Now()
	link := farmerLink(alert.SuggestedActionURL)
	notifications := make([]domain.Notification, 0, len(recipientIDs))
	for _, userID := range recipientIDs {
		notifications = append(notifications, domain.Notification{
			UserID:    userID,
			Title:     alert.Title,
			Message:   alert.Message,
			Link:      link,
			AlertID:   &alert.ID,
			CreatedAt: now,
		})
	}

	sent, err := d.alerts.RecordDispatch(ctx, domain.AlertDispatch{
		AlertID:       alert.ID,
		FromStatuses:  []domain.AlertStatus{domain.AlertStatusNew, domain.AlertStatusSent},
		RecipientIDs:  recipientIDs,
		Notifications: notifications,
		SentAt:        now,
	})
	if err != nil {
		return nil, err
	}

	event := domain.AlertSentEvent{
		AlertID:      sent.ID,
		FarmID:       sent.FarmID,
		Type:         sent.Type,
		RecipientIDs: recipientIDs,
		SentAt:       now,
	}
	if err := d.publisher.PublishAlertSent(ctx, event); err != nil {
		log.Warn().Err(err).Int64("alert_id", sent.ID).Msg("alert dispatch: publish event failed")
	}

	log.Info().
		Int64("alert_id", sent.ID).
		Str("mode", string(mode)).
		Int("recipients", len(recipientIDs)).
		Msg("alert sent")

	return sent, nil
}

func (d *NotificationDispatcher) resolveRecipients(ctx context.Context, alert *domain.Alert, mode domain.RecipientMode, selected []int64) ([]int64, error) {
	var ids []int64
	switch mode {
	case domain.RecipientsAllFarmersInFarm:
		if alert.FarmID == nil {
			return nil, domain.NewValidationError("recipient_mode", "alert %d is not tied to a farm", alert.ID)
		}
		farm, err := d.identity.FindFarm(ctx, *alert.FarmID)
		if err != nil {
			return nil, err
		}
		if farm.OwnerUserID == nil {
			return nil, domain.NewNotFoundError("farm owner", farm.ID)
		}
		ids = []int64{*farm.OwnerUserID}
	case domain.RecipientsSelected:
		if len(selected) == 0 {
			return nil, domain.NewValidationError("recipient_farmer_ids", "must not be empty")
		}
		ids = uniqueIDs(selected)
	}

	users, err := d.identity.FindUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[int64]struct{}, len(users))
	for _, u := range users {
		found[u.ID] = struct{}{}
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.InconsistentRecipientsError{Missing: missing}
	}
	return ids, nil
}

// uniqueIDs keeps the first occurrence of each id in order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// farmerLink points an admin deep link at the farmer-facing route.
func farmerLink(adminURL string) string {
	if rest, ok := strings.CutPrefix(adminURL, adminLinkPrefix); ok {
		return farmerLinkPrefix + rest
	}
	return adminURL
}

func (d *NotificationDispatcher) ListNotifications(ctx context.Context, userID int64, unreadOnly bool, page, limit int) (*domain.NotificationPage, error) {
	if err := domain.ValidatePage(page, limit); err != nil {
		return nil, err
	}
	if _, err := d.identity.FindUser(ctx, userID); err != nil {
		return nil, err
	}

	items, total, err := d.notifications.ListForUser(ctx, userID, unreadOnly, page, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = make([]domain.Notification, 0)
	}

	return &domain.NotificationPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: domain.TotalPages(total, limit),
	}, nil
}

// MarkNotificationRead sets read_at once; later calls keep the first timestamp.
func (d *NotificationDispatcher) MarkNotificationRead(ctx context.Context, userID, notificationID int64) (*domain.Notification, error) {
	return d.notifications.MarkRead(ctx, userID, notificationID, d.clock.Now())
}
