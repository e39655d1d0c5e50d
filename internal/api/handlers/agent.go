package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/models"
	"github.com/wordarena/backend/internal/store"
)

// RegisterModel creates a participant and hands back its bearer token. Names
// are first come, first served.
func RegisterModel(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name        string `json:"name" binding:"required"`
			Description string `json:"description"`
			Email       string `json:"email" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Name and email required."})
			return
		}

		token := generateToken()
		if _, err := st.CreateParticipant(req.Name, req.Description, req.Email, token, store.Now()); err != nil {
			if errors.Is(err, store.ErrExists) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Model name already registered."})
				return
			}
			log.Printf("[API] Register %s failed: %v", req.Name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register model."})
			return
		}

		log.Printf("[API] Registered model %s", req.Name)
		c.JSON(http.StatusOK, gin.H{
			"message": "Model registered successfully.",
			"token":   token,
		})
	}
}

// JoinMatchmaking enqueues a participant for one environment. A participant
// holds at most one queue entry across all environments and may not queue
// for an environment it is already playing in.
func JoinMatchmaking(st *store.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name           string  `json:"name" binding:"required"`
			Token          string  `json:"token" binding:"required"`
			EnvID          string  `json:"env_id" binding:"required"`
			QueueTimeLimit float64 `json:"queue_time_limit"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Name, token and env_id required."})
			return
		}
		if !authAgent(st, c, req.Name, req.Token) {
			return
		}

		env, err := st.GetEnvironment(req.EnvID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Unknown environment."})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}

		if _, err := st.QueueEntryByName(req.Name); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already in matchmaking queue."})
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}

		if _, err := st.ActiveGameForParticipant(req.Name, env.ID); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already in an active game in this environment."})
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}

		limit := req.QueueTimeLimit
		if limit <= 0 {
			limit = cfg.DefaultQueueTimeLimit
		}
		now := store.Now()
		if _, err := st.JoinQueue(models.QueueEntry{
			EnvID:           env.ID,
			ParticipantName: req.Name,
			JoinedAt:        now,
			TimeLimit:       limit,
			LastChecked:     now,
		}); err != nil {
			log.Printf("[API] Join queue for %s failed: %v", req.Name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join matchmaking."})
			return
		}

		log.Printf("[API] %s joined %s queue (limit %.0fs)", req.Name, env.ID, limit)
		c.JSON(http.StatusOK, gin.H{"message": "Joined matchmaking queue."})
	}
}

// LeaveMatchmaking removes a participant's queue entry for one environment.
func LeaveMatchmaking(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name  string `json:"name" binding:"required"`
			Token string `json:"token" binding:"required"`
			EnvID string `json:"env_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Name, token and env_id required."})
			return
		}
		if !authAgent(st, c, req.Name, req.Token) {
			return
		}

		entry, err := st.QueueEntryByNameEnv(req.Name, req.EnvID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Not in matchmaking queue."})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		if err := st.DeleteQueueEntry(entry.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave matchmaking."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Left matchmaking queue."})
	}
}

// CheckMatchmakingStatus is the queue poll. Still queued refreshes the
// inactivity clock and reports the wait; matched reports the game and seat.
func CheckMatchmakingStatus(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Query("name")
		envID := c.Query("env_id")
		if !authAgent(st, c, name, c.Query("token")) {
			return
		}

		now := store.Now()
		entry, err := st.QueueEntryByNameEnv(name, envID)
		if err == nil {
			if terr := st.TouchQueueEntry(entry.ID, now); terr != nil {
				log.Printf("[API] Touch queue entry %d failed: %v", entry.ID, terr)
			}
			c.JSON(http.StatusOK, gin.H{
				"status":           "Searching",
				"queue_time":       now - entry.JoinedAt,
				"queue_time_limit": entry.TimeLimit,
			})
			return
		}
		if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}

		g, err := st.ActiveGameForParticipant(name, envID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Not in matchmaking or an active game."})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		seats, err := st.PlayerGames(g.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		var self models.PlayerGame
		for _, seat := range seats {
			if seat.ParticipantName == name {
				self = seat
				break
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        "Match found",
			"game_id":       g.ID,
			"player_id":     self.PlayerID,
			"opponent_name": opponentNames(seats, self.ID),
			"num_players":   len(seats),
		})
	}
}
