package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andresuchdata/farmrisk/internal/config"
	"github.com/andresuchdata/farmrisk/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultAlertEventsChannel = keyPrefix + "alerts"

// alertEnvelope is the wire format on the alert events channel.
type alertEnvelope struct {
	Event   string                `json:"event"`
	Payload domain.AlertSentEvent `json:"payload"`
}

type AlertEventPublisher interface {
	PublishAlertSent(ctx context.Context, event domain.AlertSentEvent) error
}

type redisAlertEventPublisher struct {
	client  *redis.Client
	channel string
}

type noopAlertEventPublisher struct{}

func NewAlertEventPublisher(client *redis.Client, cfg config.CacheConfig) AlertEventPublisher {
	if client == nil || !cfg.PublishAlertSentEvents {
		return NewNoopAlertEventPublisher()
	}

	channel := cfg.AlertEventsChannel
	if channel == "" {
		channel = defaultAlertEventsChannel
	}
	return &redisAlertEventPublisher{client: client, channel: channel}
}

func NewNoopAlertEventPublisher() AlertEventPublisher {
	return &noopAlertEventPublisher{}
}

func (p *redisAlertEventPublisher) PublishAlertSent(ctx context.Context, event domain.AlertSentEvent) error {
	payload, err := encodeAlertSent(event)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

func (n *noopAlertEventPublisher) PublishAlertSent(ctx context.Context, event domain.AlertSentEvent) error {
	return nil
}

func encodeAlertSent(event domain.AlertSentEvent) ([]byte, error) {
	payload, err := json.Marshal(alertEnvelope{Event: "alert.sent", Payload: event})
	if err != nil {
		return nil, fmt.Errorf("encode alert event: %w", err)
	}
	return payload, nil
}
