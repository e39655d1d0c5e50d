// Package session owns the live games: one engine per active game, driven
// through a per-game lock. The registry is the single authority mapping game
// ids to sessions; handlers, the matchmaker and the sweeper all go through
// it, so every engine call in the process is serialized per game.
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/wordarena/backend/internal/agents"
	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/elo"
	"github.com/wordarena/backend/internal/events"
	"github.com/wordarena/backend/internal/models"
	"github.com/wordarena/backend/internal/rules"
	"github.com/wordarena/backend/internal/store"
)

var (
	ErrNotYourTurn = errors.New("not your turn")
	ErrGameOver    = errors.New("game is over")
	ErrEngine      = errors.New("rules engine failure")
)

// Registry tracks live sessions. Sessions are created eagerly when the
// matchmaker forms a game and lazily when a poll arrives for an active game
// with no session (first request after a restart).
type Registry struct {
	store   *store.Store
	cfg     *config.Config
	updater *elo.Updater
	events  *events.Publisher

	// NewAgent builds the in-process player for a Standard seat. Tests
	// substitute scripted agents here.
	NewAgent func(cfg *config.Config, name string) agents.Agent

	mu      sync.Mutex
	entries map[int64]*entry
}

type entry struct {
	once sync.Once
	sess *Session
	err  error
}

func NewRegistry(st *store.Store, cfg *config.Config, updater *elo.Updater, pub *events.Publisher) *Registry {
	return &Registry{
		store:    st,
		cfg:      cfg,
		updater:  updater,
		events:   pub,
		NewAgent: agents.New,
		entries:  make(map[int64]*entry),
	}
}

// Get returns the session for an active game, constructing it on first use.
// Construction includes the initial local drive, so by the time the first
// remote poll returns, any leading Standard turns are already played.
func (r *Registry) Get(gameID int64) (*Session, error) {
	r.mu.Lock()
	e, ok := r.entries[gameID]
	if !ok {
		e = &entry{}
		r.entries[gameID] = e
	}
	r.mu.Unlock()

	e.once.Do(func() {
		e.sess, e.err = r.construct(gameID)
	})
	if e.err != nil {
		// Do not pin the failure: the next caller rebuilds from scratch.
		r.Remove(gameID)
		return nil, e.err
	}
	return e.sess, nil
}

// Lookup returns a live session without constructing one.
func (r *Registry) Lookup(gameID int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[gameID]
	if !ok || e.sess == nil {
		return nil, false
	}
	return e.sess, true
}

// Remove drops a session. Terminal transitions call this; the engine is not
// touched (Close already ran or the game never needed it).
func (r *Registry) Remove(gameID int64) {
	r.mu.Lock()
	delete(r.entries, gameID)
	r.mu.Unlock()
}

// construct loads the game, builds the engine (recording the chosen variant
// the first time) and plays any leading local turns.
func (r *Registry) construct(gameID int64) (*Session, error) {
	g, err := r.store.GetGame(gameID)
	if err != nil {
		return nil, fmt.Errorf("load game %d: %w", gameID, err)
	}
	if g.Status != models.GameActive {
		return nil, store.ErrGameNotActive
	}

	variant := g.EnvID
	if g.SpecificEnvID.Valid {
		variant = g.SpecificEnvID.String
	}
	eng, err := rules.Make(variant)
	if err != nil {
		return nil, fmt.Errorf("game %d: %w", gameID, err)
	}
	if !g.SpecificEnvID.Valid {
		if err := r.store.SetSpecificEnv(gameID, eng.EnvID()); err != nil {
			return nil, fmt.Errorf("record variant for game %d: %w", gameID, err)
		}
	}

	seats, err := r.store.PlayerGames(gameID)
	if err != nil {
		return nil, fmt.Errorf("load seats for game %d: %w", gameID, err)
	}

	s := &Session{
		reg:     r,
		store:   r.store,
		cfg:     r.cfg,
		eng:     eng,
		gameID:  gameID,
		envID:   g.EnvID,
		seatIDs: make(map[int]int64, len(seats)),
		names:   make(map[int]string, len(seats)),
		locals:  make(map[int]agents.Agent),
	}
	for _, seat := range seats {
		s.seatIDs[seat.PlayerID] = seat.ID
		s.names[seat.PlayerID] = seat.ParticipantName
		if !seat.IsHuman && r.cfg.IsStandard(seat.ParticipantName) {
			s.locals[seat.PlayerID] = r.NewAgent(r.cfg, seat.ParticipantName)
		}
	}
	log.Printf("[SESSION] game %d: %s with %d players (%d local)", gameID, eng.EnvID(), len(seats), len(s.locals))

	s.mu.Lock()
	err = s.driveLocked()
	s.mu.Unlock()
	if err != nil {
		log.Printf("[SESSION] initial drive for game %d: %v", gameID, err)
	}
	return s, nil
}

// ForfeitGame ends an active game against offender: -1/Loss for the
// offender, 0/Win for everyone else, ratings applied. The status guard in
// FinishGame keeps this exactly-once against concurrent finalization.
func (r *Registry) ForfeitGame(gameID int64, offender, reason string, now float64) error {
	g, err := r.store.GetGame(gameID)
	if err != nil {
		return fmt.Errorf("load game %d: %w", gameID, err)
	}
	seats, err := r.store.PlayerGames(gameID)
	if err != nil {
		return fmt.Errorf("load seats for game %d: %w", gameID, err)
	}

	rewards := make(map[int]float64, len(seats))
	outcomes := make(map[int]string, len(seats))
	byName := make(map[string]string, len(seats))
	for _, seat := range seats {
		if seat.ParticipantName == offender {
			rewards[seat.PlayerID] = -1
			outcomes[seat.PlayerID] = models.OutcomeLoss
		} else {
			rewards[seat.PlayerID] = 0
			outcomes[seat.PlayerID] = models.OutcomeWin
		}
		byName[seat.ParticipantName] = outcomes[seat.PlayerID]
	}

	if err := r.store.FinishGame(gameID, reason, rewards, outcomes); err != nil {
		return err
	}
	if _, err := r.updater.Apply(gameID, g.EnvID, rewards, now); err != nil {
		log.Printf("[ELO] forfeit update for game %d: %v", gameID, err)
	}
	r.events.PlayerForfeited(gameID, g.EnvID, offender, reason)
	r.events.GameFinished(gameID, g.EnvID, reason, byName)
	r.Remove(gameID)
	return nil
}

// FailGame ends an active game without a result: no rewards, no outcomes,
// ratings untouched.
func (r *Registry) FailGame(gameID int64, reason string) error {
	g, err := r.store.GetGame(gameID)
	if err != nil {
		return fmt.Errorf("load game %d: %w", gameID, err)
	}
	if err := r.store.FailGame(gameID, reason); err != nil {
		return err
	}
	r.events.GameFailed(gameID, g.EnvID, reason)
	r.Remove(gameID)
	return nil
}
