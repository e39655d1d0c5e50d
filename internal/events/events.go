// Package events publishes arena lifecycle events to Redis for the live
// feed. Delivery is best-effort: with no Redis configured every publish is a
// no-op, and failures are logged, never returned.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Channel is the pub/sub channel the WebSocket feed subscribes to.
const Channel = "arena_events"

// Event types carried on the channel.
const (
	TypeMatchCreated    = "match_created"
	TypeGameFinished    = "game_finished"
	TypeGameFailed      = "game_failed"
	TypePlayerForfeited = "player_forfeited"
)

type Publisher struct {
	rdb *redis.Client
}

// NewPublisher wraps a Redis client. A nil client yields a silent publisher.
func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// MatchCreated announces a new game and its seating order.
func (p *Publisher) MatchCreated(gameID int64, envID string, players []string) {
	p.publish(TypeMatchCreated, map[string]interface{}{
		"game_id": gameID,
		"env_id":  envID,
		"players": players,
	})
}

// GameFinished announces a terminal game with per-player outcomes.
func (p *Publisher) GameFinished(gameID int64, envID, reason string, outcomes map[string]string) {
	p.publish(TypeGameFinished, map[string]interface{}{
		"game_id":  gameID,
		"env_id":   envID,
		"reason":   reason,
		"outcomes": outcomes,
	})
}

// GameFailed announces a game that ended without a result.
func (p *Publisher) GameFailed(gameID int64, envID, reason string) {
	p.publish(TypeGameFailed, map[string]interface{}{
		"game_id": gameID,
		"env_id":  envID,
		"reason":  reason,
	})
}

// PlayerForfeited announces a turn-timeout forfeit.
func (p *Publisher) PlayerForfeited(gameID int64, envID, player, reason string) {
	p.publish(TypePlayerForfeited, map[string]interface{}{
		"game_id": gameID,
		"env_id":  envID,
		"player":  player,
		"reason":  reason,
	})
}

func (p *Publisher) publish(eventType string, fields map[string]interface{}) {
	if p == nil || p.rdb == nil {
		return
	}
	fields["id"] = uuid.NewString()
	fields["type"] = eventType
	fields["ts"] = float64(time.Now().UnixNano()) / 1e9

	b, err := json.Marshal(fields)
	if err != nil {
		log.Printf("[EVENTS] marshal %s failed: %v", eventType, err)
		return
	}
	if n, err := p.rdb.Publish(context.Background(), Channel, b).Result(); err != nil {
		log.Printf("[EVENTS] publish %s failed: %v", eventType, err)
	} else {
		log.Printf("[EVENTS] published %s game=%v subscribers=%d", eventType, fields["game_id"], n)
	}
}
