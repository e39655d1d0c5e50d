package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/store"
)

// GetResults reports the post-game summary: stored reward and outcome, the
// terminal reason and the rating movement. Unauthenticated by design; game
// ids are not secrets and the payload reveals nothing actionable.
func GetResults(st *store.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name   string `json:"name" binding:"required"`
			GameID int64  `json:"game_id" binding:"required"`
			EnvID  string `json:"env_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Name, game_id and env_id required."})
			return
		}

		g, err := st.GetGame(req.GameID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Game not found."})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		pg, err := st.PlayerGame(req.GameID, req.Name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "No seat in this game."})
			return
		}

		ratings, err := st.RecentRatings(req.Name, req.EnvID, 2)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		if len(ratings) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "No rating recorded yet."})
			return
		}
		current := ratings[0].Elo
		prev := cfg.DefaultElo
		if len(ratings) > 1 {
			prev = ratings[1].Elo
		}

		seats, err := st.PlayerGames(req.GameID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"reward":            pg.Reward.Float64,
			"outcome":           pg.Outcome.String,
			"reason":            gameReason(g),
			"current_elo_score": current,
			"prev_elo_score":    prev,
			"opponent_names":    opponentNames(seats, pg.ID),
		})
	}
}
