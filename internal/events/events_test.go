package events

import "testing"

// Dev setups run without Redis; every publish path must tolerate that.
func TestPublisherWithoutRedisIsSilent(t *testing.T) {
	p := NewPublisher(nil)
	p.MatchCreated(1, "NimDuel-v0", []string{"a", "b"})
	p.GameFinished(1, "NimDuel-v0", "done", map[string]string{"a": "Win", "b": "Loss"})
	p.GameFailed(2, "NimDuel-v0", "stalled")
	p.PlayerForfeited(3, "NimDuel-v0", "a", "timed out")

	var nilPub *Publisher
	nilPub.GameFailed(4, "NimDuel-v0", "also fine")
}
