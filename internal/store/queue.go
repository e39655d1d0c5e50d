package store

import (
	"database/sql"
	"fmt"

	"github.com/wordarena/backend/internal/models"
)

// JoinQueue appends a queue entry and returns its id.
func (s *Store) JoinQueue(e models.QueueEntry) (int64, error) {
	var id int64
	err := s.db.QueryRowx(`
		INSERT INTO queue_entries (env_id, participant_name, joined_at, time_limit, last_checked, is_human, human_ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		e.EnvID, e.ParticipantName, e.JoinedAt, e.TimeLimit, e.LastChecked, e.IsHuman, e.HumanIP).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert queue entry: %w", err)
	}
	return id, nil
}

// QueueEntryByName finds a participant's queue entry in any environment.
// Join refuses duplicates across the whole queue, not per environment.
func (s *Store) QueueEntryByName(name string) (models.QueueEntry, error) {
	var e models.QueueEntry
	err := s.db.Get(&e, `SELECT * FROM queue_entries WHERE participant_name = $1 LIMIT 1`, name)
	return e, notFound(err)
}

// QueueEntryByNameEnv finds a participant's entry in one environment.
func (s *Store) QueueEntryByNameEnv(name, envID string) (models.QueueEntry, error) {
	var e models.QueueEntry
	err := s.db.Get(&e, `SELECT * FROM queue_entries WHERE participant_name = $1 AND env_id = $2 LIMIT 1`, name, envID)
	return e, notFound(err)
}

// QueueEntryByHumanIP finds the Humanity entry held by one source address.
func (s *Store) QueueEntryByHumanIP(ip string) (models.QueueEntry, error) {
	var e models.QueueEntry
	err := s.db.Get(&e, `SELECT * FROM queue_entries WHERE is_human AND human_ip = $1 LIMIT 1`, ip)
	return e, notFound(err)
}

// ListQueue returns an environment's queue ordered by join time.
func (s *Store) ListQueue(envID string) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.Select(&entries, `SELECT * FROM queue_entries WHERE env_id = $1 ORDER BY joined_at ASC`, envID)
	return entries, err
}

// ListQueueAll returns every queue entry, for the admin surface.
func (s *Store) ListQueueAll() ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.Select(&entries, `SELECT * FROM queue_entries ORDER BY env_id, joined_at ASC`)
	return entries, err
}

// TouchQueueEntry refreshes the inactivity clock. Status polls call this;
// concurrent polls collapse to the last writer.
func (s *Store) TouchQueueEntry(id int64, now float64) error {
	_, err := s.db.Exec(`UPDATE queue_entries SET last_checked = $1 WHERE id = $2`, now, id)
	return err
}

// DeleteQueueEntry removes one entry (leave_matchmaking).
func (s *Store) DeleteQueueEntry(id int64) error {
	res, err := s.db.Exec(`DELETE FROM queue_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInactiveQueueEntries removes every entry whose last_checked is
// strictly older than cutoff and returns the removed rows for logging.
func (s *Store) DeleteInactiveQueueEntries(cutoff float64) ([]models.QueueEntry, error) {
	var stale []models.QueueEntry
	if err := s.db.Select(&stale, `SELECT * FROM queue_entries WHERE last_checked < $1`, cutoff); err != nil {
		return nil, err
	}
	if len(stale) == 0 {
		return nil, nil
	}
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	for _, e := range stale {
		if _, err := tx.Exec(`DELETE FROM queue_entries WHERE id = $1`, e.ID); err != nil {
			return nil, fmt.Errorf("delete queue entry %d: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stale, nil
}

// NullIP wraps an ip string for the human_ip column.
func NullIP(ip string) sql.NullString {
	if ip == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: ip, Valid: true}
}
