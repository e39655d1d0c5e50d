package store

import (
	"database/sql"
	"fmt"

	"github.com/wordarena/backend/internal/models"
)

// Seat describes one participant entering a new game. QueueEntryID is zero
// for synthesized standard candidates, which hold no queue row.
type Seat struct {
	Name         string
	IsHuman      bool
	HumanIP      sql.NullString
	QueueEntryID int64
}

// CreateGameWithPlayers atomically creates the game row, one player_games
// row per seat (player_id = seat index, last_action_time = now) and removes
// the consumed queue entries.
func (s *Store) CreateGameWithPlayers(envID string, now float64, seats []Seat) (int64, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var gameID int64
	err = tx.QueryRowx(`
		INSERT INTO games (env_id, started_at, status)
		VALUES ($1, $2, $3)
		RETURNING id`,
		envID, now, models.GameActive).Scan(&gameID)
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}

	for idx, seat := range seats {
		_, err = tx.Exec(`
			INSERT INTO player_games (game_id, participant_name, player_id, last_action_time, is_human, human_ip)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			gameID, seat.Name, idx, now, seat.IsHuman, seat.HumanIP)
		if err != nil {
			return 0, fmt.Errorf("insert seat %d: %w", idx, err)
		}
		if seat.QueueEntryID != 0 {
			if _, err := tx.Exec(`DELETE FROM queue_entries WHERE id = $1`, seat.QueueEntryID); err != nil {
				return 0, fmt.Errorf("consume queue entry %d: %w", seat.QueueEntryID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return gameID, nil
}

// GetGame returns one game row.
func (s *Store) GetGame(id int64) (models.Game, error) {
	var g models.Game
	err := s.db.Get(&g, `SELECT * FROM games WHERE id = $1`, id)
	return g, notFound(err)
}

// SetSpecificEnv records the concrete rules variant chosen at session init.
// Written once; later lazy re-creations must not overwrite it.
func (s *Store) SetSpecificEnv(gameID int64, specificEnvID string) error {
	_, err := s.db.Exec(`
		UPDATE games SET specific_env_id = $1
		WHERE id = $2 AND specific_env_id IS NULL`,
		specificEnvID, gameID)
	return err
}

// ActiveGameForParticipant finds the active game a participant occupies in
// one environment, if any.
func (s *Store) ActiveGameForParticipant(name, envID string) (models.Game, error) {
	var g models.Game
	err := s.db.Get(&g, `
		SELECT g.* FROM games g
		JOIN player_games pg ON pg.game_id = g.id
		WHERE pg.participant_name = $1 AND g.env_id = $2 AND g.status = $3
		LIMIT 1`,
		name, envID, models.GameActive)
	return g, notFound(err)
}

// ActiveGameForHumanIP finds the active game holding a seat for this source
// address.
func (s *Store) ActiveGameForHumanIP(ip string) (models.Game, error) {
	var g models.Game
	err := s.db.Get(&g, `
		SELECT g.* FROM games g
		JOIN player_games pg ON pg.game_id = g.id
		WHERE pg.human_ip = $1 AND g.status = $2
		LIMIT 1`,
		ip, models.GameActive)
	return g, notFound(err)
}

// ListActiveGames returns every active game, oldest first.
func (s *Store) ListActiveGames() ([]models.Game, error) {
	var games []models.Game
	err := s.db.Select(&games, `SELECT * FROM games WHERE status = $1 ORDER BY id ASC`, models.GameActive)
	return games, err
}

// PlayerGame returns one seat by game and participant name.
func (s *Store) PlayerGame(gameID int64, name string) (models.PlayerGame, error) {
	var pg models.PlayerGame
	err := s.db.Get(&pg, `
		SELECT * FROM player_games WHERE game_id = $1 AND participant_name = $2 LIMIT 1`,
		gameID, name)
	return pg, notFound(err)
}

// PlayerGameByIP returns the human seat in a game by source address.
func (s *Store) PlayerGameByIP(gameID int64, ip string) (models.PlayerGame, error) {
	var pg models.PlayerGame
	err := s.db.Get(&pg, `
		SELECT * FROM player_games WHERE game_id = $1 AND human_ip = $2 LIMIT 1`,
		gameID, ip)
	return pg, notFound(err)
}

// PlayerGameByPosition returns the seat at a player_id position.
func (s *Store) PlayerGameByPosition(gameID int64, playerID int) (models.PlayerGame, error) {
	var pg models.PlayerGame
	err := s.db.Get(&pg, `
		SELECT * FROM player_games WHERE game_id = $1 AND player_id = $2 LIMIT 1`,
		gameID, playerID)
	return pg, notFound(err)
}

// PlayerGames returns all seats of a game in position order.
func (s *Store) PlayerGames(gameID int64) ([]models.PlayerGame, error) {
	var pgs []models.PlayerGame
	err := s.db.Select(&pgs, `SELECT * FROM player_games WHERE game_id = $1 ORDER BY player_id ASC`, gameID)
	return pgs, err
}

// UpdateLastAction refreshes a seat's liveness clock.
func (s *Store) UpdateLastAction(playerGameID int64, now float64) error {
	_, err := s.db.Exec(`UPDATE player_games SET last_action_time = $1 WHERE id = $2`, now, playerGameID)
	return err
}

// FinishGame performs the terminal transition to finished: status + reason
// on the game and reward/outcome on every seat, in one transaction. The
// status guard makes the transition exactly-once: a second caller gets
// ErrGameNotActive and must not re-run rating updates.
func (s *Store) FinishGame(gameID int64, reason string, rewards map[int]float64, outcomes map[int]string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE games SET status = $1, reason = $2
		WHERE id = $3 AND status = $4`,
		models.GameFinished, reason, gameID, models.GameActive)
	if err != nil {
		return fmt.Errorf("finish game %d: %w", gameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGameNotActive
	}

	for playerID, reward := range rewards {
		_, err := tx.Exec(`
			UPDATE player_games SET reward = $1, outcome = $2
			WHERE game_id = $3 AND player_id = $4`,
			reward, outcomes[playerID], gameID, playerID)
		if err != nil {
			return fmt.Errorf("set outcome for seat %d: %w", playerID, err)
		}
	}

	return tx.Commit()
}

// FailGame performs the terminal transition to failed. No rewards, no
// outcomes, ratings untouched. Empty reason stores NULL.
func (s *Store) FailGame(gameID int64, reason string) error {
	var r sql.NullString
	if reason != "" {
		r = sql.NullString{String: reason, Valid: true}
	}
	res, err := s.db.Exec(`
		UPDATE games SET status = $1, reason = $2
		WHERE id = $3 AND status = $4`,
		models.GameFailed, r, gameID, models.GameActive)
	if err != nil {
		return fmt.Errorf("fail game %d: %w", gameID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGameNotActive
	}
	return nil
}
