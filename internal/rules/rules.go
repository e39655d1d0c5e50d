package rules

import (
	"encoding/json"
	"fmt"
	"sync"
)

// GameSenderID is the sender id used for messages that come from the game
// itself rather than from a player.
const GameSenderID = -1

// Message is one line of a game transcript addressed to a player. On the
// wire and in turn_logs it is a two-element array [sender_id, text], e.g.
// [[-1,"You are Player 0"],[1,"I take 2"]].
type Message struct {
	SenderID int
	Text     string
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{m.SenderID, m.Text})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("message must be a [sender, text] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &m.SenderID); err != nil {
		return fmt.Errorf("message sender: %w", err)
	}
	if err := json.Unmarshal(pair[1], &m.Text); err != nil {
		return fmt.Errorf("message text: %w", err)
	}
	return nil
}

// EncodeMessages renders messages as the JSON stored in turn_logs and
// returned from check_turn.
func EncodeMessages(msgs []Message) string {
	if len(msgs) == 0 {
		return "[]"
	}
	b, err := json.Marshal(msgs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeMessages parses the stored JSON form back into messages. Invalid
// input yields nil.
func DecodeMessages(raw string) []Message {
	var msgs []Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil
	}
	return msgs
}

// StepInfo carries terminal metadata out of a step. Reason is empty until
// the engine decides the game.
type StepInfo struct {
	Reason string
}

// Engine is the capability surface the server needs from a rules
// implementation. A session owns its engine exclusively and serializes all
// calls, so implementations do not need internal locking.
//
// Observation drains the messages queued for a player since that player's
// previous Observation call. ForceObservation returns whatever is queued
// plus a terminal summary and works after the game is done. Close returns
// the per-player rewards and is only meaningful once Done reports true.
type Engine interface {
	Reset() error
	EnvID() string
	NumPlayers() int
	CurrentPlayer() int
	Done() bool
	Observation(playerID int) []Message
	ForceObservation(playerID int) []Message
	Step(action string) (bool, StepInfo, error)
	Close() map[int]float64
}

// Factory constructs a fresh engine for one game.
type Factory func() (Engine, error)

type registration struct {
	numPlayers int
	factory    Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]registration)
)

// Register makes an environment id constructible via Make. Built-in engines
// register themselves from init; additional engines may be registered before
// the server starts.
func Register(envID string, numPlayers int, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[envID] = registration{numPlayers: numPlayers, factory: f}
}

// Make constructs and resets an engine for envID.
func Make(envID string) (Engine, error) {
	registryMu.RLock()
	reg, ok := registry[envID]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown environment %q", envID)
	}
	eng, err := reg.factory()
	if err != nil {
		return nil, fmt.Errorf("environment %q: %w", envID, err)
	}
	if err := eng.Reset(); err != nil {
		return nil, fmt.Errorf("environment %q reset: %w", envID, err)
	}
	return eng, nil
}

// Players returns the player count an environment id was registered with.
func Players(envID string) (int, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[envID]
	return reg.numPlayers, ok
}

// Registered reports whether envID is constructible.
func Registered(envID string) bool {
	_, ok := Players(envID)
	return ok
}
