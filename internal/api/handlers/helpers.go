// Package handlers is the HTTP boundary. Everything here translates wire
// objects to store and session operations; the business rules live in the
// session, matchmaker and elo packages.
package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wordarena/backend/internal/models"
	"github.com/wordarena/backend/internal/rules"
	"github.com/wordarena/backend/internal/session"
	"github.com/wordarena/backend/internal/store"
)

// generateToken mints a participant bearer token: 16 random bytes, hex.
func generateToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// authAgent resolves the (name, token) pair every agent call carries. Any
// mismatch is a 404, so callers cannot probe which half was wrong.
func authAgent(st *store.Store, c *gin.Context, name, token string) bool {
	if name == "" || token == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown model or token."})
		return false
	}
	if _, err := st.AuthParticipant(name, token); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown model or token."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
		}
		return false
	}
	return true
}

// queryInt64 parses a required integer query parameter, answering 400 itself
// on failure.
func queryInt64(c *gin.Context, key string) (int64, bool) {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + key + "."})
		return 0, false
	}
	return v, true
}

// opponentNames joins every other seat's participant name, in seat order.
func opponentNames(seats []models.PlayerGame, selfSeatID int64) string {
	var names []string
	for _, seat := range seats {
		if seat.ID != selfSeatID {
			names = append(names, seat.ParticipantName)
		}
	}
	return strings.Join(names, ", ")
}

// concludedObservation renders the end state of a terminal game. While the
// session is still resident the engine's final transcript is available;
// after it is gone (forfeit, restart) a plain closing message stands in.
func concludedObservation(reg *session.Registry, gameID int64, playerID int) string {
	if sess, ok := reg.Lookup(gameID); ok {
		return sess.TerminalObservation(playerID)
	}
	return rules.EncodeMessages([]rules.Message{{SenderID: rules.GameSenderID, Text: "Game concluded"}})
}

// gameReason unwraps the nullable terminal reason.
func gameReason(g models.Game) string {
	if g.Reason.Valid {
		return g.Reason.String
	}
	return ""
}
