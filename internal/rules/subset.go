package rules

import (
	"fmt"
	"math/rand"
)

// subsetEngine is a meta-environment: on Reset it picks one concrete variant
// from its pool and delegates everything to it. EnvID reports the chosen
// variant, which the session writes back to the game row as specific_env_id.
type subsetEngine struct {
	pool   []string
	picked Engine
}

func newSubset(pool []string) *subsetEngine {
	return &subsetEngine{pool: pool}
}

func (s *subsetEngine) Reset() error {
	if len(s.pool) == 0 {
		return fmt.Errorf("subset has no variants")
	}
	envID := s.pool[rand.Intn(len(s.pool))]
	eng, err := Make(envID)
	if err != nil {
		return err
	}
	s.picked = eng
	return nil
}

func (s *subsetEngine) EnvID() string                           { return s.picked.EnvID() }
func (s *subsetEngine) NumPlayers() int                         { return s.picked.NumPlayers() }
func (s *subsetEngine) CurrentPlayer() int                      { return s.picked.CurrentPlayer() }
func (s *subsetEngine) Done() bool                              { return s.picked.Done() }
func (s *subsetEngine) Observation(playerID int) []Message      { return s.picked.Observation(playerID) }
func (s *subsetEngine) ForceObservation(playerID int) []Message { return s.picked.ForceObservation(playerID) }
func (s *subsetEngine) Close() map[int]float64                  { return s.picked.Close() }

func (s *subsetEngine) Step(action string) (bool, StepInfo, error) {
	return s.picked.Step(action)
}

func init() {
	Register("NimDuel-v0", 2, func() (Engine, error) { return newNim("NimDuel-v0", false), nil })
	Register("NimMisere-v0", 2, func() (Engine, error) { return newNim("NimMisere-v0", true), nil })
	Register("BalancedSubset-v0", 2, func() (Engine, error) {
		return newSubset([]string{"NimDuel-v0", "NimMisere-v0"}), nil
	})
}
