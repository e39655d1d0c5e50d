package store

import (
	"fmt"

	"github.com/wordarena/backend/internal/models"
)

// GetOrCreateHuman resolves a human by source address, creating the row on
// first contact and refreshing last_active otherwise.
func (s *Store) GetOrCreateHuman(ip string, now float64) (models.Human, error) {
	var h models.Human
	err := s.db.Get(&h, `SELECT * FROM humans WHERE ip = $1`, ip)
	if err == nil {
		h.LastActive = now
		_, err = s.db.Exec(`UPDATE humans SET last_active = $1 WHERE id = $2`, now, h.ID)
		return h, err
	}
	if notFound(err) != ErrNotFound {
		return models.Human{}, err
	}

	err = s.db.QueryRowx(`
		INSERT INTO humans (ip, games_played, created_at, last_active)
		VALUES ($1, 0, $2, $2)
		RETURNING id`,
		ip, now).Scan(&h.ID)
	if err != nil {
		return models.Human{}, fmt.Errorf("insert human: %w", err)
	}
	h.IP, h.CreatedAt, h.LastActive = ip, now, now
	return h, nil
}

// HumanByIP returns the record for a source address, if known.
func (s *Store) HumanByIP(ip string) (models.Human, error) {
	var h models.Human
	err := s.db.Get(&h, `SELECT * FROM humans WHERE ip = $1`, ip)
	return h, notFound(err)
}

// IncrementHumanGames bumps the played counter when a human is matched.
func (s *Store) IncrementHumanGames(ip string) error {
	_, err := s.db.Exec(`UPDATE humans SET games_played = games_played + 1 WHERE ip = $1`, ip)
	return err
}

// HumanSeats returns every seat a source address has held, newest game
// first. Feeds the personal stats endpoint.
func (s *Store) HumanSeats(ip string) ([]models.PlayerGame, error) {
	var seats []models.PlayerGame
	err := s.db.Select(&seats, `
		SELECT pg.* FROM player_games pg
		JOIN games g ON g.id = pg.game_id
		WHERE pg.is_human AND pg.human_ip = $1
		ORDER BY g.id DESC`,
		ip)
	return seats, err
}
