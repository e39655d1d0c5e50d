package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wordarena/backend/internal/agents"
	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/elo"
	"github.com/wordarena/backend/internal/models"
	"github.com/wordarena/backend/internal/rules"
	"github.com/wordarena/backend/internal/store"
)

// TurnState is what one poll of an active game sees.
type TurnState struct {
	MyTurn      bool
	Done        bool
	Observation string
}

// Session drives one live game. All methods serialize on the session lock;
// the engine is never touched concurrently.
type Session struct {
	mu    sync.Mutex
	reg   *Registry
	store *store.Store
	cfg   *config.Config
	eng   rules.Engine

	gameID int64
	envID  string // catalog id, the rating key

	seatIDs map[int]int64  // player_id -> player_games.id
	names   map[int]string // player_id -> participant name
	locals  map[int]agents.Agent
}

// GameID returns the game this session drives.
func (s *Session) GameID() int64 { return s.gameID }

// CheckTurn implements the polling contract: refresh the seat's liveness
// clock, then either hand back the pending observation (creating it exactly
// once) or report that it is someone else's turn.
func (s *Session) CheckTurn(playerID int, now float64) (TurnState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.eng.Done() {
		return TurnState{Done: true, Observation: rules.EncodeMessages(s.eng.ForceObservation(playerID))}, nil
	}

	seatID, ok := s.seatIDs[playerID]
	if !ok {
		return TurnState{}, fmt.Errorf("game %d has no player %d", s.gameID, playerID)
	}
	if err := s.store.UpdateLastAction(seatID, now); err != nil {
		return TurnState{}, err
	}

	if s.eng.CurrentPlayer() != playerID {
		return TurnState{}, nil
	}

	// At most one unanswered observation per seat: repeat polls see the
	// stored row, and the forfeit clock stays anchored at first delivery.
	pending, err := s.store.PendingTurnLog(seatID)
	if err == nil {
		return TurnState{MyTurn: true, Observation: pending.Observation}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return TurnState{}, err
	}

	obs := rules.EncodeMessages(s.eng.Observation(playerID))
	if _, err := s.store.InsertTurnLog(models.TurnLog{
		PlayerGameID:    seatID,
		ParticipantName: s.names[playerID],
		Observation:     obs,
		TsObservation:   now,
	}); err != nil {
		return TurnState{}, err
	}
	return TurnState{MyTurn: true, Observation: obs}, nil
}

// SubmitAction plays one remote action: answer the pending observation, step
// the engine, then hand the turn onward (driving local seats, finalizing on
// a terminal step). Returns whether the game is done.
func (s *Session) SubmitAction(playerID int, action string, now float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.eng.Done() {
		return true, ErrGameOver
	}

	seatID, ok := s.seatIDs[playerID]
	if !ok {
		return false, fmt.Errorf("game %d has no player %d", s.gameID, playerID)
	}
	if err := s.store.UpdateLastAction(seatID, now); err != nil {
		return false, err
	}
	if s.eng.CurrentPlayer() != playerID {
		return false, ErrNotYourTurn
	}

	done, info, err := s.eng.Step(action)
	if err != nil {
		return false, fmt.Errorf("%w: game %d: %v", ErrEngine, s.gameID, err)
	}

	s.answerPending(seatID, action, now)
	if err := s.store.UpdateLastAction(seatID, store.Now()); err != nil {
		return false, err
	}

	if done {
		return true, s.finalize(info)
	}
	if err := s.driveLocked(); err != nil {
		return s.eng.Done(), err
	}
	return s.eng.Done(), nil
}

// TerminalObservation renders the final transcript for a player of a
// concluded game whose session is still resident.
func (s *Session) TerminalObservation(playerID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rules.EncodeMessages(s.eng.ForceObservation(playerID))
}

// answerPending fills the seat's unanswered observation, if one exists. A
// missing row (action submitted without a poll) is tolerated.
func (s *Session) answerPending(seatID int64, action string, now float64) {
	pending, err := s.store.PendingTurnLog(seatID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[SESSION] pending lookup for seat %d: %v", seatID, err)
		}
		return
	}
	if err := s.store.FillTurnLog(pending.ID, action, now); err != nil {
		log.Printf("[SESSION] answer pending for seat %d: %v", seatID, err)
	}
}

// driveLocked plays local seats until the game ends or the turn reaches a
// remote player. Must be called with the session lock held.
//
// Each local turn writes its pending row before the agent is invoked, so an
// agent that hangs or errors leaves the same trail as a silent remote player
// and is forfeited by the sweeper.
func (s *Session) driveLocked() error {
	for !s.eng.Done() {
		playerID := s.eng.CurrentPlayer()
		agent, ok := s.locals[playerID]
		if !ok {
			return nil
		}
		seatID := s.seatIDs[playerID]
		now := store.Now()

		var obs string
		var pendingID int64
		pending, err := s.store.PendingTurnLog(seatID)
		switch {
		case err == nil:
			pendingID, obs = pending.ID, pending.Observation
		case errors.Is(err, store.ErrNotFound):
			obs = rules.EncodeMessages(s.eng.Observation(playerID))
			pendingID, err = s.store.InsertTurnLog(models.TurnLog{
				PlayerGameID:    seatID,
				ParticipantName: s.names[playerID],
				Observation:     obs,
				TsObservation:   now,
			})
			if err != nil {
				return err
			}
		default:
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.StepTimeoutSecs*float64(time.Second)))
		action, err := agent.Act(ctx, Transcript(obs))
		cancel()
		if err != nil {
			// Leave the pending row; the sweeper treats this seat like any
			// other silent player.
			log.Printf("[SESSION] game %d: agent %s failed: %v", s.gameID, s.names[playerID], err)
			return nil
		}

		now = store.Now()
		done, info, err := s.eng.Step(action)
		if err != nil {
			return fmt.Errorf("%w: game %d: %v", ErrEngine, s.gameID, err)
		}
		if err := s.store.FillTurnLog(pendingID, action, now); err != nil {
			return err
		}
		if err := s.store.UpdateLastAction(seatID, now); err != nil {
			return err
		}
		if done {
			return s.finalize(info)
		}
	}
	return nil
}

// finalize runs the terminal transition for a game the engine just ended:
// rewards from Close, outcomes from reward ranking, one rating row per
// player, the finished event, session removal. Must be called with the
// session lock held.
func (s *Session) finalize(info rules.StepInfo) error {
	now := store.Now()
	rewards := s.eng.Close()
	reason := info.Reason
	if reason == "" {
		reason = "No reason provided"
	}
	outcomes := Outcomes(rewards)

	err := s.store.FinishGame(s.gameID, reason, rewards, outcomes)
	if errors.Is(err, store.ErrGameNotActive) {
		// Lost the race against the sweeper or an admin terminate. Their
		// transition owns the ratings.
		s.reg.Remove(s.gameID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("finalize game %d: %w", s.gameID, err)
	}
	log.Printf("[SESSION] game %d finished: %s", s.gameID, reason)

	if _, err := s.reg.updater.Apply(s.gameID, s.envID, rewards, now); err != nil {
		// The terminal transition already committed; the guard makes it
		// unrepeatable, so surfacing this as a request failure helps no one.
		log.Printf("[ELO] update for game %d: %v", s.gameID, err)
	}

	byName := make(map[string]string, len(outcomes))
	for playerID, outcome := range outcomes {
		byName[s.names[playerID]] = outcome
	}
	s.reg.events.GameFinished(s.gameID, s.envID, reason, byName)
	s.reg.Remove(s.gameID)
	return nil
}

// Outcomes ranks rewards into Win/Loss/Draw: beating the worst reward wins,
// trailing the best loses, a flat field draws.
func Outcomes(rewards map[int]float64) map[int]string {
	var worst, best float64
	first := true
	for _, r := range rewards {
		if first {
			worst, best = r, r
			first = false
			continue
		}
		if r < worst {
			worst = r
		}
		if r > best {
			best = r
		}
	}
	out := make(map[int]string, len(rewards))
	for playerID, r := range rewards {
		switch elo.Score(r, worst, best) {
		case 1:
			out[playerID] = models.OutcomeWin
		case 0:
			out[playerID] = models.OutcomeLoss
		default:
			out[playerID] = models.OutcomeDraw
		}
	}
	return out
}

// Transcript renders an encoded observation as the plain-text prompt local
// agents consume: one "[SENDER] text" line per message.
func Transcript(encoded string) string {
	msgs := rules.DecodeMessages(encoded)
	if len(msgs) == 0 {
		return "No observation."
	}
	var b strings.Builder
	for _, m := range msgs {
		if m.SenderID == rules.GameSenderID {
			b.WriteString("\n[GAME] ")
		} else {
			fmt.Fprintf(&b, "\n[Player %d] ", m.SenderID)
		}
		b.WriteString(m.Text)
	}
	return b.String()
}
