// Package matchmaker pairs queued participants into games and enforces the
// turn and queue timeouts. One worker goroutine drives both from a single
// ticker so forfeits always free seats before new games claim them.
package matchmaker

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"

	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/events"
	"github.com/wordarena/backend/internal/models"
	"github.com/wordarena/backend/internal/session"
	"github.com/wordarena/backend/internal/store"
)

type Matchmaker struct {
	store  *store.Store
	cfg    *config.Config
	reg    *session.Registry
	events *events.Publisher
	rng    *rand.Rand
}

// New returns a matchmaker. rng drives shuffle and match acceptance; pass a
// seeded source in tests for deterministic pairing.
func New(st *store.Store, cfg *config.Config, reg *session.Registry, pub *events.Publisher, rng *rand.Rand) *Matchmaker {
	return &Matchmaker{store: st, cfg: cfg, reg: reg, events: pub, rng: rng}
}

// Tick runs one matchmaking pass over the whole catalog. A failed pass for
// one environment never blocks the others.
func (m *Matchmaker) Tick(now float64) error {
	envs, err := m.store.ListEnvironments()
	if err != nil {
		return fmt.Errorf("list environments: %w", err)
	}
	for _, env := range envs {
		if err := m.matchEnvironment(env, now); err != nil {
			log.Printf("[MATCHMAKER] Pass for %s failed: %v", env.ID, err)
		}
	}
	return nil
}

func (m *Matchmaker) matchEnvironment(env models.Environment, now float64) error {
	entries, err := m.store.ListQueue(env.ID)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	candidates := make([]candidate, 0, len(entries)+len(m.cfg.StandardModels))
	for _, e := range entries {
		p, err := m.store.GetParticipant(e.ParticipantName)
		if err != nil {
			return fmt.Errorf("participant %s: %w", e.ParticipantName, err)
		}
		elo, ok, err := m.store.LatestRating(e.ParticipantName, env.ID)
		if err != nil {
			return err
		}
		if !ok {
			elo = m.cfg.DefaultElo
		}
		timeLimit := e.TimeLimit
		if timeLimit <= 0 {
			timeLimit = m.cfg.DefaultQueueTimeLimit
		}
		inQueue := now - e.JoinedAt
		candidates = append(candidates, candidate{
			Name:         e.ParticipantName,
			Email:        p.Email,
			Elo:          elo,
			TimeInQueue:  inQueue,
			PctQueue:     inQueue / timeLimit,
			IsHuman:      e.IsHuman,
			Standard:     m.cfg.IsStandard(e.ParticipantName),
			HumanIP:      e.HumanIP,
			QueueEntryID: e.ID,
		})
	}

	// Standard models are always available. The placeholder email keeps two
	// of them from ever being paired with each other.
	for _, name := range m.cfg.StandardModels {
		elo, ok, err := m.store.LatestRating(name, env.ID)
		if err != nil {
			return err
		}
		if !ok {
			elo = m.cfg.DefaultElo
		}
		candidates = append(candidates, candidate{
			Name:        name,
			Email:       " ",
			Elo:         elo,
			TimeInQueue: -1,
			Standard:    true,
		})
	}

	m.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	recency := func(a, b string) (int, error) {
		return m.store.RecencyCount(a, b, now-m.cfg.RecentWindowSecs)
	}

	type scored struct {
		score float64
		combo []candidate
	}
	var ranked []scored
	for _, idxs := range kCombinations(len(candidates), env.NumPlayers) {
		combo := make([]candidate, len(idxs))
		for i, ci := range idxs {
			combo[i] = candidates[ci]
		}
		sc, err := scoreCombo(m.cfg, combo, recency)
		if err != nil {
			return err
		}
		ranked = append(ranked, scored{score: sc, combo: combo})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	taken := make(map[string]bool)
	for _, r := range ranked {
		conflict := false
		for _, c := range r.combo {
			if taken[c.Name] {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}
		if m.rng.Float64() >= r.score {
			continue
		}
		for _, c := range r.combo {
			taken[c.Name] = true
		}
		if err := m.createGame(env, r.combo, now); err != nil {
			log.Printf("[MATCHMAKER] Failed to create game in %s: %v", env.ID, err)
		}
	}
	return nil
}

// createGame persists the match, consumes the queue rows and brings up the
// game session. Seat order follows the combination, so player ids inherit
// the shuffle.
func (m *Matchmaker) createGame(env models.Environment, combo []candidate, now float64) error {
	seats := make([]store.Seat, len(combo))
	for i, c := range combo {
		seats[i] = store.Seat{
			Name:         c.Name,
			IsHuman:      c.IsHuman,
			HumanIP:      c.HumanIP,
			QueueEntryID: c.QueueEntryID,
		}
	}

	gameID, err := m.store.CreateGameWithPlayers(env.ID, now, seats)
	if err != nil {
		return err
	}

	for _, c := range combo {
		if c.IsHuman && c.HumanIP.Valid {
			if err := m.store.IncrementHumanGames(c.HumanIP.String); err != nil {
				log.Printf("[MATCHMAKER] Failed to count game for human %s: %v", c.HumanIP.String, err)
			}
		}
	}

	names := make([]string, len(combo))
	labels := make([]string, len(combo))
	for i, c := range combo {
		names[i] = c.Name
		switch {
		case c.IsHuman:
			labels[i] = c.Name + " (human)"
		case c.Standard:
			labels[i] = c.Name + " (standard)"
		default:
			labels[i] = c.Name
		}
	}

	// Initialize the rules engine now. If it cannot come up, fail the game
	// rather than leave the players polling an empty shell.
	if _, err := m.reg.Get(gameID); err != nil {
		log.Printf("[MATCHMAKER] Game %d: session init failed: %v", gameID, err)
		if ferr := m.reg.FailGame(gameID, "Environment failed to initialize."); ferr != nil {
			log.Printf("[MATCHMAKER] Game %d: could not mark failed: %v", gameID, ferr)
		}
		return nil
	}

	m.events.MatchCreated(gameID, env.ID, names)
	log.Printf("[MATCHMAKER] ✓ Match created: game=%d env=%s players=[%s]",
		gameID, env.ID, strings.Join(labels, ", "))
	return nil
}
