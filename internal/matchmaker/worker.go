package matchmaker

import (
	"context"
	"log"
	"time"

	"github.com/wordarena/backend/internal/store"
)

// Run drives the sweep-then-match loop until ctx is cancelled.
func (m *Matchmaker) Run(ctx context.Context) {
	interval := time.Duration(m.cfg.MatchmakingIntervalSecs) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[MATCHMAKER] Starting matchmaker worker (poll every %v)", interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[MATCHMAKER] Worker stopped")
			return
		case <-ticker.C:
			now := store.Now()
			m.Sweep(now)
			if err := m.Tick(now); err != nil {
				log.Printf("[MATCHMAKER] Tick failed: %v (backing off)", err)
				select {
				case <-ctx.Done():
				case <-time.After(5 * time.Second):
				}
			}
		}
	}
}
