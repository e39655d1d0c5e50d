package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordarena/backend/internal/models"
	"github.com/wordarena/backend/internal/session"
	"github.com/wordarena/backend/internal/store"
)

// CheckTurn is the turn poll. A concluded game answers with the final
// transcript and done=true so the agent learns how it ended; an active game
// either hands out the pending observation or reports whose turn it is.
func CheckTurn(st *store.Store, reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Query("name")
		if !authAgent(st, c, name, c.Query("token")) {
			return
		}
		gameID, ok := queryInt64(c, "game_id")
		if !ok {
			return
		}
		playerID, ok := queryInt64(c, "player_id")
		if !ok {
			return
		}

		g, err := st.GetGame(gameID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Game not found."})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		pg, err := st.PlayerGame(gameID, name)
		if err != nil || pg.PlayerID != int(playerID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No seat in this game."})
			return
		}

		if g.Status != models.GameActive {
			c.JSON(http.StatusOK, gin.H{
				"status":      "Game concluded",
				"observation": concludedObservation(reg, gameID, pg.PlayerID),
				"done":        true,
			})
			return
		}

		sess, err := reg.Get(gameID)
		if errors.Is(err, store.ErrGameNotActive) {
			// Concluded between the status read and session lookup.
			c.JSON(http.StatusOK, gin.H{
				"status":      "Game concluded",
				"observation": concludedObservation(reg, gameID, pg.PlayerID),
				"done":        true,
			})
			return
		}
		if err != nil {
			log.Printf("[API] Session for game %d: %v", gameID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Game session unavailable."})
			return
		}

		state, err := sess.CheckTurn(pg.PlayerID, store.Now())
		if err != nil {
			log.Printf("[API] Check turn game %d player %d: %v", gameID, pg.PlayerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		switch {
		case state.Done:
			c.JSON(http.StatusOK, gin.H{
				"status":      "Game concluded",
				"observation": state.Observation,
				"done":        true,
			})
		case state.MyTurn:
			c.JSON(http.StatusOK, gin.H{
				"status":      "Your turn",
				"game_id":     gameID,
				"observation": state.Observation,
				"done":        false,
			})
		default:
			c.JSON(http.StatusOK, gin.H{"status": "Not your turn"})
		}
	}
}

// Step submits one action. Submitting to a finished game is not an error:
// the agent gets done=true and moves on, which makes retries after a race
// with the sweeper harmless.
func Step(st *store.Store, reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name       string `json:"name" binding:"required"`
			Token      string `json:"token" binding:"required"`
			EnvID      string `json:"env_id"`
			GameID     int64  `json:"game_id" binding:"required"`
			ActionText string `json:"action_text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Name, token and game_id required."})
			return
		}
		if !authAgent(st, c, req.Name, req.Token) {
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
		if g.Status != models.GameActive {
			c.JSON(http.StatusOK, gin.H{"message": "Game concluded.", "done": true})
			return
		}

		sess, err := reg.Get(req.GameID)
		if errors.Is(err, store.ErrGameNotActive) {
			c.JSON(http.StatusOK, gin.H{"message": "Game concluded.", "done": true})
			return
		}
		if err != nil {
			log.Printf("[API] Session for game %d: %v", req.GameID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Game session unavailable."})
			return
		}

		done, err := sess.SubmitAction(pg.PlayerID, req.ActionText, store.Now())
		switch {
		case errors.Is(err, session.ErrGameOver):
			c.JSON(http.StatusOK, gin.H{"message": "Game concluded.", "done": true})
		case errors.Is(err, session.ErrNotYourTurn):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Not your turn."})
		case errors.Is(err, session.ErrEngine):
			// A broken engine cannot produce a result; the game is failed
			// with no rewards and no rating movement.
			log.Printf("[API] Game %d: %v", req.GameID, err)
			if ferr := reg.FailGame(req.GameID, fmt.Sprintf("engine error: %v", err)); ferr != nil &&
				!errors.Is(ferr, store.ErrGameNotActive) {
				log.Printf("[API] Game %d: could not mark failed: %v", req.GameID, ferr)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Engine failure; game aborted."})
		case err != nil:
			log.Printf("[API] Step game %d: %v", req.GameID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
		default:
			c.JSON(http.StatusOK, gin.H{"message": "Action submitted.", "done": done})
		}
	}
}
