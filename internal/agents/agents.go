// Package agents provides the in-process players that drive Standard
// participants: a deterministic scripted agent for development and tests,
// and an OpenRouter-compatible chat-completions client for real models.
package agents

import (
	"context"
	"sync"

	"github.com/wordarena/backend/internal/config"
)

// Agent produces the next action for a Standard participant given the full
// observation transcript so far. Act may block on the network; callers bound
// it with the request context.
type Agent interface {
	Act(ctx context.Context, observation string) (string, error)
}

// New picks the agent implementation for a Standard participant. With an
// OpenRouter key configured the participant name is used as the provider
// model name; otherwise a scripted fallback keeps dev setups playable.
func New(cfg *config.Config, name string) Agent {
	if cfg != nil && cfg.OpenRouterAPIKey != "" {
		return NewOpenRouterAgent(cfg, name)
	}
	return NewScriptedAgent("1")
}

// ScriptedAgent cycles through a fixed list of actions. The zero-argument
// default always answers "1", which is legal in every built-in environment.
type ScriptedAgent struct {
	mu      sync.Mutex
	actions []string
	next    int
}

func NewScriptedAgent(actions ...string) *ScriptedAgent {
	if len(actions) == 0 {
		actions = []string{"1"}
	}
	return &ScriptedAgent{actions: actions}
}

func (s *ScriptedAgent) Act(ctx context.Context, observation string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	action := s.actions[s.next%len(s.actions)]
	s.next++
	return action, nil
}
