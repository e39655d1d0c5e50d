package store

import (
	"fmt"
	"strings"

	"github.com/wordarena/backend/internal/models"
)

// CreateParticipant inserts a new participant. Names are unique; a taken
// name returns ErrExists.
func (s *Store) CreateParticipant(name, description, email, token string, now float64) (models.Participant, error) {
	var p models.Participant
	err := s.db.QueryRowx(`
		INSERT INTO participants (name, description, email, token, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		name, description, email, token, now).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Participant{}, ErrExists
		}
		return models.Participant{}, fmt.Errorf("insert participant: %w", err)
	}
	p.Name, p.Description, p.Email, p.Token, p.CreatedAt = name, description, email, token, now
	return p, nil
}

// GetParticipant looks a participant up by name.
func (s *Store) GetParticipant(name string) (models.Participant, error) {
	var p models.Participant
	err := s.db.Get(&p, `SELECT * FROM participants WHERE name = $1`, name)
	return p, notFound(err)
}

// AuthParticipant resolves the (name, token) pair agent calls authenticate
// with. A mismatch on either field is ErrNotFound.
func (s *Store) AuthParticipant(name, token string) (models.Participant, error) {
	var p models.Participant
	err := s.db.Get(&p, `SELECT * FROM participants WHERE name = $1 AND token = $2`, name, token)
	return p, notFound(err)
}

// CountPlayerGames counts every seat a participant has ever held, across all
// environments. Drives the K-factor threshold.
func (s *Store) CountPlayerGames(name string) (int, error) {
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM player_games WHERE participant_name = $1`, name)
	return n, err
}

// UpsertEnvironment registers a catalog entry, updating the player count if
// the id already exists.
func (s *Store) UpsertEnvironment(id string, numPlayers int) error {
	_, err := s.db.Exec(`
		INSERT INTO environments (id, num_players) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET num_players = EXCLUDED.num_players`,
		id, numPlayers)
	return err
}

// GetEnvironment returns one catalog entry.
func (s *Store) GetEnvironment(id string) (models.Environment, error) {
	var e models.Environment
	err := s.db.Get(&e, `SELECT * FROM environments WHERE id = $1`, id)
	return e, notFound(err)
}

// ListEnvironments returns the whole catalog.
func (s *Store) ListEnvironments() ([]models.Environment, error) {
	var envs []models.Environment
	err := s.db.Select(&envs, `SELECT * FROM environments ORDER BY id`)
	return envs, err
}

// isUniqueViolation matches unique-constraint failures from both lib/pq
// (SQLSTATE 23505) and go-sqlite3.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
