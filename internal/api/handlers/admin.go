package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/wordarena/backend/internal/admin"
	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/session"
	"github.com/wordarena/backend/internal/store"
)

// AdminLogin exchanges an operator name and token for a session JWT.
func AdminLogin(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name  string `json:"name" binding:"required"`
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name and token required."})
			return
		}
		signed, err := admin.Authenticate(db, cfg.JWTSecret, req.Name, req.Token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials."})
			return
		}
		admin.LogAction(db, req.Name, c.ClientIP(), "login", "")
		c.JSON(http.StatusOK, gin.H{"token": signed})
	}
}

// AdminQueue lists queue entries, optionally filtered to one environment.
func AdminQueue(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		envID := c.Query("env_id")
		entries, err := func() (interface{}, error) {
			if envID != "" {
				return st.ListQueue(envID)
			}
			return st.ListQueueAll()
		}()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"queue": entries})
	}
}

// AdminGames lists active games with their seats and whether a live session
// is resident.
func AdminGames(st *store.Store, reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		games, err := st.ListActiveGames()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		out := make([]gin.H, 0, len(games))
		for _, g := range games {
			seats, err := st.PlayerGames(g.ID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
				return
			}
			_, live := reg.Lookup(g.ID)
			out = append(out, gin.H{
				"game":         g,
				"players":      seats,
				"session_live": live,
			})
		}
		c.JSON(http.StatusOK, gin.H{"games": out})
	}
}

// AdminTerminateGame force-fails an active game: no rewards, no rating
// movement, session removed. The action is audited.
func AdminTerminateGame(db *sqlx.DB, reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid game id."})
			return
		}
		var req struct {
			Reason string `json:"reason"`
		}
		c.ShouldBindJSON(&req)
		reason := req.Reason
		if reason == "" {
			reason = "Terminated by operator."
		}

		err = reg.FailGame(gameID, reason)
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found."})
			return
		case errors.Is(err, store.ErrGameNotActive):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Game is not active."})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to terminate game."})
			return
		}

		admin.LogAction(db, c.GetString("admin_name"), c.ClientIP(), "terminate_game",
			fmt.Sprintf("game=%d reason=%s", gameID, reason))
		c.JSON(http.StatusOK, gin.H{"message": "Game terminated."})
	}
}

// AdminAuditLogs pages through the audit trail, newest first.
func AdminAuditLogs(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit <= 0 || limit > 500 {
			limit = 50
		}
		offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
		if err != nil || offset < 0 {
			offset = 0
		}
		logs, err := admin.AuditLogs(db, c.Query("name"), limit, offset)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs})
	}
}
