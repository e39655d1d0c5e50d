package models

import (
	"database/sql"
)

// Game status values. Status is monotone: active -> finished | failed.
const (
	GameActive   = "active"
	GameFinished = "finished"
	GameFailed   = "failed"
)

// Outcome values written to PlayerGame rows on terminal transition.
const (
	OutcomeWin  = "Win"
	OutcomeLoss = "Loss"
	OutcomeDraw = "Draw"
)

// Participant is anything that can queue for games: a remote agent, an
// in-process standard agent, or the shared Humanity pseudo-participant.
type Participant struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description"`
	Email       string  `db:"email" json:"-"`
	Token       string  `db:"token" json:"-"`
	CreatedAt   float64 `db:"created_at" json:"created_at"`
}

// Environment is one entry of the static catalog.
type Environment struct {
	ID         string `db:"id" json:"id"`
	NumPlayers int    `db:"num_players" json:"num_players"`
}

// QueueEntry is a participant waiting to be matched in one environment.
// Humanity may hold several entries at once, one per human_ip.
type QueueEntry struct {
	ID              int64          `db:"id" json:"id"`
	EnvID           string         `db:"env_id" json:"env_id"`
	ParticipantName string         `db:"participant_name" json:"participant_name"`
	JoinedAt        float64        `db:"joined_at" json:"joined_at"`
	TimeLimit       float64        `db:"time_limit" json:"time_limit"`
	LastChecked     float64        `db:"last_checked" json:"last_checked"`
	IsHuman         bool           `db:"is_human" json:"is_human"`
	HumanIP         sql.NullString `db:"human_ip" json:"human_ip,omitempty"`
}

// Game is one match. SpecificEnvID is the concrete rules variant chosen at
// session init (the catalog entry may be a subset that picks on reset).
type Game struct {
	ID            int64          `db:"id" json:"id"`
	EnvID         string         `db:"env_id" json:"env_id"`
	SpecificEnvID sql.NullString `db:"specific_env_id" json:"specific_env_id,omitempty"`
	StartedAt     float64        `db:"started_at" json:"started_at"`
	Status        string         `db:"status" json:"status"`
	Reason        sql.NullString `db:"reason" json:"reason,omitempty"`
}

// PlayerGame is one participant's seat in one game. Reward and Outcome are
// null until the game reaches a terminal state, then set atomically.
type PlayerGame struct {
	ID              int64           `db:"id" json:"id"`
	GameID          int64           `db:"game_id" json:"game_id"`
	ParticipantName string          `db:"participant_name" json:"participant_name"`
	PlayerID        int             `db:"player_id" json:"player_id"`
	Reward          sql.NullFloat64 `db:"reward" json:"reward,omitempty"`
	Outcome         sql.NullString  `db:"outcome" json:"outcome,omitempty"`
	LastActionTime  sql.NullFloat64 `db:"last_action_time" json:"last_action_time,omitempty"`
	IsHuman         bool            `db:"is_human" json:"is_human"`
	HumanIP         sql.NullString  `db:"human_ip" json:"human_ip,omitempty"`
}

// TurnLog records one observation delivered to a participant. The row is
// "answered" once action/ts_action are filled; a row with ts_action null is
// the participant's pending turn.
type TurnLog struct {
	ID              int64           `db:"id" json:"id"`
	PlayerGameID    int64           `db:"player_game_id" json:"player_game_id"`
	ParticipantName string          `db:"participant_name" json:"participant_name"`
	Observation     string          `db:"observation" json:"observation"`
	TsObservation   float64         `db:"ts_observation" json:"ts_observation"`
	Action          sql.NullString  `db:"action" json:"action,omitempty"`
	TsAction        sql.NullFloat64 `db:"ts_action" json:"ts_action,omitempty"`
}

// Rating is one row of the append-only rating history. The live value for a
// (participant, env) pair is the row with the greatest updated_at.
type Rating struct {
	ID              int64   `db:"id" json:"id"`
	ParticipantName string  `db:"participant_name" json:"participant_name"`
	EnvID           string  `db:"env_id" json:"env_id"`
	Elo             float64 `db:"elo" json:"elo"`
	UpdatedAt       float64 `db:"updated_at" json:"updated_at"`
}

// Human identifies a human user by source address.
type Human struct {
	ID          int64   `db:"id" json:"id"`
	IP          string  `db:"ip" json:"ip"`
	GamesPlayed int     `db:"games_played" json:"games_played"`
	CreatedAt   float64 `db:"created_at" json:"created_at"`
	LastActive  float64 `db:"last_active" json:"last_active"`
}

// AdminAccount is an operator login for the admin surface.
type AdminAccount struct {
	ID        int64   `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	TokenHash string  `db:"token_hash" json:"-"`
	CreatedAt float64 `db:"created_at" json:"created_at"`
}

// AdminAudit is one audited admin action.
type AdminAudit struct {
	ID        int64   `db:"id" json:"id"`
	AdminName string  `db:"admin_name" json:"admin_name"`
	IP        string  `db:"ip" json:"ip"`
	Action    string  `db:"action" json:"action"`
	Detail    string  `db:"detail" json:"detail"`
	CreatedAt float64 `db:"created_at" json:"created_at"`
}
