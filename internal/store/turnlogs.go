package store

import (
	"fmt"

	"github.com/wordarena/backend/internal/models"
)

// InsertTurnLog appends an observation row. Action fields may be pre-filled
// for local seats, whose turns are driven synchronously.
func (s *Store) InsertTurnLog(l models.TurnLog) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO turn_logs (player_game_id, participant_name, observation, ts_observation, action, ts_action)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		l.PlayerGameID, l.ParticipantName, l.Observation, l.TsObservation, l.Action, l.TsAction).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert turn log: %w", err)
	}
	return id, nil
}

// PendingTurnLog returns the seat's unanswered observation, if any. The
// system maintains at most one: check_turn only inserts when none is
// pending, so this row is the turn the participant owes.
func (s *Store) PendingTurnLog(playerGameID int64) (models.TurnLog, error) {
	var l models.TurnLog
	err := s.db.Get(&l, `
		SELECT * FROM turn_logs
		WHERE player_game_id = $1 AND ts_action IS NULL
		ORDER BY ts_observation DESC, id DESC
		LIMIT 1`,
		playerGameID)
	return l, notFound(err)
}

// FillTurnLog answers a pending observation with the submitted action.
func (s *Store) FillTurnLog(logID int64, action string, tsAction float64) error {
	_, err := s.db.Exec(`
		UPDATE turn_logs SET action = $1, ts_action = $2 WHERE id = $3`,
		action, tsAction, logID)
	return err
}

// CountTurnLogs counts a seat's rows; zero distinguishes a stalled game
// (no observation ever delivered) from an abandoned turn.
func (s *Store) CountTurnLogs(playerGameID int64) (int, error) {
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM turn_logs WHERE player_game_id = $1`, playerGameID)
	return n, err
}

// OverdueTurn is a pending observation on an active game that has aged past
// the step deadline.
type OverdueTurn struct {
	GameID          int64   `db:"game_id"`
	ParticipantName string  `db:"participant_name"`
	TsObservation   float64 `db:"ts_observation"`
}

// OverdueTurns finds every pending observation on an active game older than
// cutoff (strictly), one row per offending log.
func (s *Store) OverdueTurns(cutoff float64) ([]OverdueTurn, error) {
	var overdue []OverdueTurn
	err := s.db.Select(&overdue, `
		SELECT g.id AS game_id, tl.participant_name, tl.ts_observation
		FROM turn_logs tl
		JOIN player_games pg ON pg.id = tl.player_game_id
		JOIN games g ON g.id = pg.game_id
		WHERE g.status = $1 AND tl.ts_action IS NULL AND tl.ts_observation < $2
		ORDER BY tl.ts_observation ASC`,
		models.GameActive, cutoff)
	return overdue, err
}

// StalledSeats finds seats in active games that never received a single
// observation and whose last_action_time is older than cutoff. Their games
// never loaded.
func (s *Store) StalledSeats(cutoff float64) ([]models.PlayerGame, error) {
	var seats []models.PlayerGame
	err := s.db.Select(&seats, `
		SELECT pg.* FROM player_games pg
		JOIN games g ON g.id = pg.game_id
		WHERE g.status = $1
		  AND pg.outcome IS NULL
		  AND pg.last_action_time < $2
		  AND NOT EXISTS (SELECT 1 FROM turn_logs tl WHERE tl.player_game_id = pg.id)`,
		models.GameActive, cutoff)
	return seats, err
}
