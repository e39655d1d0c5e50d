package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/wordarena/backend/internal/events"
)

// StartEventSubscriber relays arena events from Redis into the hub. Without
// Redis the live feed stays up but idle.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Printf("[WS] Redis not configured, live feed will stay idle")
		return
	}

	sub := rdb.Subscribe(ctx, events.Channel)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		log.Printf("[WS] Subscribed to %s", events.Channel)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				payload := []byte(msg.Payload)
				hub.Dispatch(gameRoom(payload), payload)
			}
		}
	}()
}

// gameRoom extracts the game id an event belongs to, if any.
func gameRoom(payload []byte) string {
	var probe struct {
		GameID json.Number `json:"game_id"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return ""
	}
	return probe.GameID.String()
}
