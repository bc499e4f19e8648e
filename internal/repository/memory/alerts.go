package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/lib/pq"
)

type alertKey struct {
	farmID int64
	typ    domain.AlertType
	day    string
}

// AlertStore keeps alerts and notifications together so dispatches stay atomic.
type AlertStore struct {
	mu            sync.Mutex
	nextAlertID   int64
	nextNotifID   int64
	alerts        map[int64]domain.Alert
	byDay         map[alertKey]int64
	notifications []domain.Notification
}

func NewAlertStore() *AlertStore {
	return &AlertStore{
		alerts: make(map[int64]domain.Alert),
		byDay:  make(map[alertKey]int64),
	}
}

func keyOf(a domain.Alert) alertKey {
	var farm int64
	if a.FarmID != nil {
		farm = *a.FarmID
	}
	return alertKey{farmID: farm, typ: a.Type, day: a.CreatedDay.Format("2006-01-02")}
}

func (s *AlertStore) UpsertDaily(ctx context.Context, alerts []domain.Alert) ([]domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := make([]domain.Alert, 0, len(alerts))
	for _, a := range alerts {
		key := keyOf(a)
		if id, ok := s.byDay[key]; ok {
			existing := s.alerts[id]
			existing.Severity = a.Severity
			existing.Title = a.Title
			existing.Message = a.Message
			existing.SuggestedActionType = a.SuggestedActionType
			existing.SuggestedActionURL = a.SuggestedActionURL
			s.alerts[id] = existing
			saved = append(saved, existing)
			continue
		}

		s.nextAlertID++
		a.ID = s.nextAlertID
		if a.RecipientFarmerIDs == nil {
			a.RecipientFarmerIDs = pq.Int64Array{}
		}
		s.alerts[a.ID] = a
		s.byDay[key] = a.ID
		saved = append(saved, a)
	}
	return saved, nil
}

func (s *AlertStore) GetByID(ctx context.Context, id int64) (*domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, domain.NewNotFoundError("alert", id)
	}
	return &a, nil
}

func (s *AlertStore) List(ctx context.Context, filter domain.AlertFilter) ([]domain.Alert, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]domain.Alert, 0)
	for _, a := range s.alerts {
		if filter.Type != nil && a.Type != *filter.Type {
			continue
		}
		if filter.Severity != nil && a.Severity != *filter.Severity {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.FarmID != nil && (a.FarmID == nil || *a.FarmID != *filter.FarmID) {
			continue
		}
		if filter.CreatedSince != nil && a.CreatedAt.Before(*filter.CreatedSince) {
			continue
		}
		matched = append(matched, a)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start, end := domain.PageBounds(len(matched), filter.Page, filter.Limit)
	return matched[start:end], len(matched), nil
}

func (s *AlertStore) UpdateStatus(ctx context.Context, id int64, from, to domain.AlertStatus) (*domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[id]
	if !ok {
		return nil, domain.NewNotFoundError("alert", id)
	}
	if a.Status != from {
		return nil, fmt.Errorf("%w: alert %d is now %s", domain.ErrConflict, id, a.Status)
	}
	a.Status = to
	s.alerts[id] = a
	return &a, nil
}

func (s *AlertStore) RecordDispatch(ctx context.Context, dispatch domain.AlertDispatch) (*domain.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.alerts[dispatch.AlertID]
	if !ok {
		return nil, domain.NewNotFoundError("alert", dispatch.AlertID)
	}
	allowed := false
	for _, st := range dispatch.FromStatuses {
		if a.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: alert %d is now %s", domain.ErrConflict, a.ID, a.Status)
	}

	for _, n := range dispatch.Notifications {
		s.nextNotifID++
		n.ID = s.nextNotifID
		s.notifications = append(s.notifications, n)
	}

	sentAt := dispatch.SentAt
	a.Status = domain.AlertStatusSent
	a.SentAt = &sentAt
	a.RecipientFarmerIDs = append(pq.Int64Array{}, dispatch.RecipientIDs...)
	s.alerts[a.ID] = a
	return &a, nil
}

func (s *AlertStore) ListForUser(ctx context.Context, userID int64, unreadOnly bool, page, limit int) ([]domain.Notification, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]domain.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID != userID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	start, end := domain.PageBounds(len(matched), page, limit)
	return matched[start:end], len(matched), nil
}

func (s *AlertStore) MarkRead(ctx context.Context, userID, notificationID int64, at time.Time) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.notifications {
		if n.ID != notificationID || n.UserID != userID {
			continue
		}
		if n.ReadAt == nil {
			readAt := at
			n.ReadAt = &readAt
			s.notifications[i] = n
		}
		return &n, nil
	}
	return nil, domain.NewNotFoundError("notification", notificationID)
}

// Notifications returns a copy of every stored notification.
func (s *AlertStore) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.notifications...)
}

// Len returns the number of stored alerts.
func (s *AlertStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}
