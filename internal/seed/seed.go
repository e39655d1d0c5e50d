// Package seed brings the catalog and the built-in participants into the
// database at startup: the configured environments, the Humanity
// pseudo-participant, the standard models and an initial rating row for each
// of them per environment. Run is idempotent; the server seeds on every boot.
package seed

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"

	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/models"
	"github.com/wordarena/backend/internal/rules"
	"github.com/wordarena/backend/internal/store"
)

// Run seeds the catalog and built-in participants. Environments without a
// registered rules engine are skipped with a warning rather than failing the
// boot: the rest of the catalog still has to come up.
func Run(st *store.Store, cfg *config.Config) error {
	now := store.Now()

	var envIDs []string
	for _, spec := range cfg.Environments {
		players, ok := rules.Players(spec.ID)
		if !ok {
			log.Printf("[SEED] Environment %s has no registered rules engine, skipping", spec.ID)
			continue
		}
		if players != spec.NumPlayers {
			log.Printf("[SEED] Environment %s: configured for %d players, engine takes %d; using engine",
				spec.ID, spec.NumPlayers, players)
		}
		if err := st.UpsertEnvironment(spec.ID, players); err != nil {
			return fmt.Errorf("seed environment %s: %w", spec.ID, err)
		}
		envIDs = append(envIDs, spec.ID)
	}
	if len(envIDs) == 0 {
		return errors.New("no seedable environments configured")
	}
	log.Printf("[SEED] Environments registered: %v", envIDs)

	builtins := []struct {
		name, description, email string
	}{
		{config.HumanityName, "Shared account for human players.", "humans@wordarena.dev"},
	}
	for _, name := range cfg.StandardModels {
		builtins = append(builtins, struct{ name, description, email string }{
			name, "In-process standard agent.", name + "@standard.wordarena.dev",
		})
	}

	for _, b := range builtins {
		if err := ensureParticipant(st, b.name, b.description, b.email, now); err != nil {
			return err
		}
		for _, envID := range envIDs {
			if err := ensureRating(st, b.name, envID, cfg.DefaultElo, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureParticipant(st *store.Store, name, description, email string, now float64) error {
	_, err := st.GetParticipant(name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("look up %s: %w", name, err)
	}
	if _, err := st.CreateParticipant(name, description, email, newToken(), now); err != nil {
		// Two concurrent boots can race the insert; losing is fine.
		if errors.Is(err, store.ErrExists) {
			return nil
		}
		return fmt.Errorf("seed participant %s: %w", name, err)
	}
	log.Printf("[SEED] Participant %s created", name)
	return nil
}

func ensureRating(st *store.Store, name, envID string, elo, now float64) error {
	_, ok, err := st.LatestRating(name, envID)
	if err != nil {
		return fmt.Errorf("rating for %s/%s: %w", name, envID, err)
	}
	if ok {
		return nil
	}
	return st.AppendRatings([]models.Rating{{
		ParticipantName: name,
		EnvID:           envID,
		Elo:             elo,
		UpdatedAt:       now,
	}})
}

// newToken mints a participant bearer token: 16 random bytes, hex encoded.
func newToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
