package store

import (
	"fmt"

	"github.com/wordarena/backend/internal/models"
)

// LatestRating returns the current rating for a (participant, env) pair.
// ok is false when no history exists; callers substitute the default.
func (s *Store) LatestRating(name, envID string) (float64, bool, error) {
	var elo float64
	err := s.db.Get(&elo, `
		SELECT elo FROM ratings
		WHERE participant_name = $1 AND env_id = $2
		ORDER BY updated_at DESC, id DESC
		LIMIT 1`,
		name, envID)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	return elo, true, nil
}

// RecentRatings returns up to limit history rows, newest first. get_results
// reads two: current and previous.
func (s *Store) RecentRatings(name, envID string, limit int) ([]models.Rating, error) {
	var rows []models.Rating
	err := s.db.Select(&rows, `
		SELECT * FROM ratings
		WHERE participant_name = $1 AND env_id = $2
		ORDER BY updated_at DESC, id DESC
		LIMIT $3`,
		name, envID, limit)
	return rows, err
}

// AppendRatings writes one history row per player in a single transaction.
// History is append-only; nothing here mutates existing rows.
func (s *Store) AppendRatings(rows []models.Rating) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, r := range rows {
		_, err := tx.Exec(`
			INSERT INTO ratings (participant_name, env_id, elo, updated_at)
			VALUES ($1, $2, $3, $4)`,
			r.ParticipantName, r.EnvID, r.Elo, r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("append rating for %s: %w", r.ParticipantName, err)
		}
	}
	return tx.Commit()
}

// RecencyCount counts distinct games since the given time in which both
// participants held seats. Used to damp repeat pairings.
func (s *Store) RecencyCount(nameA, nameB string, since float64) (int, error) {
	var n int
	err := s.db.Get(&n, `
		SELECT COUNT(*) FROM games g
		WHERE g.started_at >= $1
		  AND EXISTS (SELECT 1 FROM player_games a WHERE a.game_id = g.id AND a.participant_name = $2)
		  AND EXISTS (SELECT 1 FROM player_games b WHERE b.game_id = g.id AND b.participant_name = $3)`,
		since, nameA, nameB)
	return n, err
}
