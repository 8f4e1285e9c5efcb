package redis

import (
	"context"
	"encoding/json"

	"auction-marketplace/internal/domain"
	"auction-marketplace/pkg/logger"

	"github.com/go-redis/redis/v8"
)

type RedisEventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewEventSubscriber(client *redis.Client, log logger.Logger) *RedisEventSubscriber {
	return &RedisEventSubscriber{
		client: client,
		log:    log,
	}
}

func (r *RedisEventSubscriber) SubscribeToMarketEvents(ctx context.Context, handler domain.EventHandler) error {
	pubsub := r.client.Subscribe(ctx, marketEventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	r.log.Info("Subscribed to market events")

	for {
		select {
		case msg := <-ch:
			var event domain.MarketEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.log.Error("Failed to parse event", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(&event); err != nil {
				r.log.Error("Failed to handle event", "type", event.Type, "listing_id", event.ListingID, "error", err)
			}

		case <-ctx.Done():
			r.log.Info("Event subscriber stopped")
			return ctx.Err()
		}
	}
}
