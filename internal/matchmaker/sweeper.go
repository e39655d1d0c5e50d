package matchmaker

import (
	"errors"
	"fmt"
	"log"

	"github.com/wordarena/backend/internal/store"
)

// Sweep enforces the clocks. Three passes, in order: forfeit games whose
// current player has sat on a delivered observation past the step timeout,
// fail games where a seat went silent before ever being owed a turn, and
// drop queue entries whose owner stopped polling. Races with a concurrent
// finish are benign: the status guard makes the first transition win.
func (m *Matchmaker) Sweep(now float64) {
	turnCutoff := now - m.cfg.StepTimeoutSecs

	overdue, err := m.store.OverdueTurns(turnCutoff)
	if err != nil {
		log.Printf("[SWEEPER] Failed to scan overdue turns: %v", err)
	} else {
		handled := make(map[int64]bool)
		for _, ot := range overdue {
			if handled[ot.GameID] {
				continue
			}
			handled[ot.GameID] = true
			reason := fmt.Sprintf("Player '%s' timed out.", ot.ParticipantName)
			err := m.reg.ForfeitGame(ot.GameID, ot.ParticipantName, reason, now)
			if errors.Is(err, store.ErrGameNotActive) {
				continue
			}
			if err != nil {
				log.Printf("[SWEEPER] Failed to forfeit game %d: %v", ot.GameID, err)
				continue
			}
			log.Printf("[SWEEPER] Game %d: %s Game concluded.", ot.GameID, reason)
		}
	}

	stalled, err := m.store.StalledSeats(turnCutoff)
	if err != nil {
		log.Printf("[SWEEPER] Failed to scan stalled seats: %v", err)
	} else {
		failed := make(map[int64]bool)
		for _, pg := range stalled {
			if failed[pg.GameID] {
				continue
			}
			failed[pg.GameID] = true
			err := m.reg.FailGame(pg.GameID, "")
			if errors.Is(err, store.ErrGameNotActive) {
				continue
			}
			if err != nil {
				log.Printf("[SWEEPER] Failed to mark game %d failed: %v", pg.GameID, err)
				continue
			}
			log.Printf("[SWEEPER] Game %d failed: %s never received a turn", pg.GameID, pg.ParticipantName)
		}
	}

	removed, err := m.store.DeleteInactiveQueueEntries(now - m.cfg.QueueInactivitySecs)
	if err != nil {
		log.Printf("[SWEEPER] Failed to prune queue: %v", err)
		return
	}
	for _, e := range removed {
		log.Printf("[SWEEPER] Removed %s from %s queue (no poll for %.0fs)",
			e.ParticipantName, e.EnvID, now-e.LastChecked)
	}
}
