// Package elo maintains the append-only rating history. Ratings move only
// when a game reaches finished; failed games leave them untouched.
package elo

import (
	"fmt"
	"log"
	"math"

	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/models"
	"github.com/wordarena/backend/internal/store"
)

// Player is one rated seat at update time.
type Player struct {
	Name   string
	Reward float64
	Prev   float64
	K      float64
}

// Score maps a reward to a game score against the field: beating the worst
// reward is a win, trailing the best is a loss, a flat field is a draw.
func Score(reward, worst, best float64) float64 {
	switch {
	case reward > worst:
		return 1.0
	case reward < best:
		return 0.0
	default:
		return 0.5
	}
}

// Compute returns the post-game rating per player, index-aligned with the
// input. Expected score is taken against the mean of the opponents' previous
// ratings; results round to two decimals.
func Compute(players []Player) []float64 {
	out := make([]float64, len(players))
	if len(players) < 2 {
		for i, p := range players {
			out[i] = p.Prev
		}
		return out
	}

	worst, best := players[0].Reward, players[0].Reward
	for _, p := range players[1:] {
		worst = math.Min(worst, p.Reward)
		best = math.Max(best, p.Reward)
	}

	for i, p := range players {
		var sum float64
		for j, o := range players {
			if j != i {
				sum += o.Prev
			}
		}
		avgOpp := sum / float64(len(players)-1)
		expected := 1.0 / (1.0 + math.Pow(10, (avgOpp-p.Prev)/400.0))
		score := Score(p.Reward, worst, best)
		out[i] = round2(p.Prev + p.K*(score-expected))
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Updater loads ratings, computes the post-game values and appends history.
type Updater struct {
	store *store.Store
	cfg   *config.Config
}

func NewUpdater(st *store.Store, cfg *config.Config) *Updater {
	return &Updater{store: st, cfg: cfg}
}

// Apply rates every seat of a finished game and appends one history row per
// player, all sharing the same updated_at. Ratings key on the catalog
// environment id even when the game ran a specific variant. Returns the
// appended rows.
func (u *Updater) Apply(gameID int64, envID string, rewards map[int]float64, now float64) ([]models.Rating, error) {
	seats, err := u.store.PlayerGames(gameID)
	if err != nil {
		return nil, fmt.Errorf("load seats for game %d: %w", gameID, err)
	}
	if len(seats) == 0 {
		return nil, fmt.Errorf("game %d has no seats", gameID)
	}

	players := make([]Player, len(seats))
	for i, seat := range seats {
		prev, ok, err := u.store.LatestRating(seat.ParticipantName, envID)
		if err != nil {
			return nil, fmt.Errorf("load rating for %s: %w", seat.ParticipantName, err)
		}
		if !ok {
			prev = u.cfg.DefaultElo
		}
		k, err := u.kFactor(seat.ParticipantName)
		if err != nil {
			return nil, err
		}
		players[i] = Player{
			Name:   seat.ParticipantName,
			Reward: rewards[seat.PlayerID],
			Prev:   prev,
			K:      k,
		}
	}

	newElos := Compute(players)
	rows := make([]models.Rating, len(players))
	for i, p := range players {
		rows[i] = models.Rating{
			ParticipantName: p.Name,
			EnvID:           envID,
			Elo:             newElos[i],
			UpdatedAt:       now,
		}
		log.Printf("[ELO] game %d env %s: %s %.2f -> %.2f", gameID, envID, p.Name, p.Prev, newElos[i])
	}
	if err := u.store.AppendRatings(rows); err != nil {
		return nil, fmt.Errorf("append ratings for game %d: %w", gameID, err)
	}
	return rows, nil
}

// kFactor picks the K for one participant. Humans and standard agents use
// fixed low factors; everyone else starts high and settles after crossing
// the games threshold. The seat count includes the game being rated.
func (u *Updater) kFactor(name string) (float64, error) {
	if name == config.HumanityName {
		return u.cfg.HumanK, nil
	}
	if u.cfg.IsStandard(name) {
		return u.cfg.StandardK, nil
	}
	n, err := u.store.CountPlayerGames(name)
	if err != nil {
		return 0, fmt.Errorf("count games for %s: %w", name, err)
	}
	if n < u.cfg.GamesThreshold {
		return u.cfg.InitialK, nil
	}
	return u.cfg.ReducedK, nil
}
