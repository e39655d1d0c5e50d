package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/models"
	"github.com/wordarena/backend/internal/session"
	"github.com/wordarena/backend/internal/store"
)

// Human play is authenticated by source address: every endpoint keys on
// c.ClientIP(). All humans share the Humanity participant, so their queue
// rows and seats are distinguished by human_ip alone.

// HumanRegister creates or refreshes the Human record for the caller's
// address.
func HumanRegister(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		h, err := st.GetOrCreateHuman(c.ClientIP(), store.Now())
		if err != nil {
			log.Printf("[API] Human register for %s failed: %v", c.ClientIP(), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"human_id": h.ID})
	}
}

// HumanJoinMatchmaking enqueues Humanity for the human environment on behalf
// of this address. One queue entry per address.
func HumanJoinMatchmaking(st *store.Store, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := store.Now()

		if _, err := st.QueueEntryByHumanIP(ip); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already in matchmaking queue."})
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		if _, err := st.ActiveGameForHumanIP(ip); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already in an active game."})
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}

		if _, err := st.GetOrCreateHuman(ip, now); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		env, err := st.GetEnvironment(cfg.HumanEnvID)
		if err != nil {
			log.Printf("[API] Human environment %s missing: %v", cfg.HumanEnvID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Human play unavailable."})
			return
		}

		if _, err := st.JoinQueue(models.QueueEntry{
			EnvID:           env.ID,
			ParticipantName: config.HumanityName,
			JoinedAt:        now,
			TimeLimit:       cfg.DefaultQueueTimeLimit,
			LastChecked:     now,
			IsHuman:         true,
			HumanIP:         store.NullIP(ip),
		}); err != nil {
			log.Printf("[API] Human join queue for %s failed: %v", ip, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join matchmaking."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Joined matchmaking queue."})
	}
}

// HumanCheckMatchmakingStatus is the human queue poll. Unlike the agent
// variant it never 404s: the frontend polls this in a loop and renders all
// three states.
func HumanCheckMatchmakingStatus(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := store.Now()

		if entry, err := st.QueueEntryByHumanIP(ip); err == nil {
			if terr := st.TouchQueueEntry(entry.ID, now); terr != nil {
				log.Printf("[API] Touch queue entry %d failed: %v", entry.ID, terr)
			}
			c.JSON(http.StatusOK, gin.H{"status": "Searching"})
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}

		g, err := st.ActiveGameForHumanIP(ip)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusOK, gin.H{"status": "Not in matchmaking or game"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		pg, err := st.PlayerGameByIP(g.ID, ip)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		seats, err := st.PlayerGames(g.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}
		envID := g.EnvID
		if g.SpecificEnvID.Valid {
			envID = g.SpecificEnvID.String
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        "Match found",
			"game_id":       g.ID,
			"player_id":     pg.PlayerID,
			"opponent_name": opponentNames(seats, pg.ID),
			"env_id":        envID,
		})
	}
}

// HumanCheckTurn is the human turn poll for one game.
func HumanCheckTurn(st *store.Store, reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		gameID, ok := queryInt64(c, "game_id")
		if !ok {
			return
		}
		pg, err := st.PlayerGameByIP(gameID, ip)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "No game for this address."})
			return
		}
		g, err := st.GetGame(gameID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found."})
			return
		}
		if g.Status != models.GameActive {
			c.JSON(http.StatusOK, gin.H{
				"status":      "Game concluded",
				"observation": "Game has ended",
				"done":        true,
			})
			return
		}

		sess, err := reg.Get(gameID)
		if errors.Is(err, store.ErrGameNotActive) {
			c.JSON(http.StatusOK, gin.H{
				"status":      "Game concluded",
				"observation": "Game has ended",
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
			log.Printf("[API] Human check turn game %d: %v", gameID, err)
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
				"observation": state.Observation,
				"done":        false,
			})
		default:
			c.JSON(http.StatusOK, gin.H{"status": "Not your turn"})
		}
	}
}

// HumanMakeMove submits the human's action. On a terminal step the response
// carries the reward and reason so the frontend can show the result screen
// without a second round trip.
func HumanMakeMove(st *store.Store, reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			GameID int64  `json:"game_id" binding:"required"`
			Move   string `json:"move"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. game_id required."})
			return
		}
		ip := c.ClientIP()

		pg, err := st.PlayerGameByIP(req.GameID, ip)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "No game for this address."})
			return
		}
		g, err := st.GetGame(req.GameID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found."})
			return
		}
		if g.Status != models.GameActive {
			c.JSON(http.StatusOK, completedResponse(st, req.GameID, pg.ID))
			return
		}

		sess, err := reg.Get(req.GameID)
		if errors.Is(err, store.ErrGameNotActive) {
			c.JSON(http.StatusOK, completedResponse(st, req.GameID, pg.ID))
			return
		}
		if err != nil {
			log.Printf("[API] Session for game %d: %v", req.GameID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Game session unavailable."})
			return
		}

		done, err := sess.SubmitAction(pg.PlayerID, req.Move, store.Now())
		switch {
		case errors.Is(err, session.ErrGameOver):
			c.JSON(http.StatusOK, completedResponse(st, req.GameID, pg.ID))
		case errors.Is(err, session.ErrNotYourTurn):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Not your turn."})
		case errors.Is(err, session.ErrEngine):
			log.Printf("[API] Game %d: %v", req.GameID, err)
			if ferr := reg.FailGame(req.GameID, fmt.Sprintf("engine error: %v", err)); ferr != nil &&
				!errors.Is(ferr, store.ErrGameNotActive) {
				log.Printf("[API] Game %d: could not mark failed: %v", req.GameID, ferr)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Engine failure; game aborted."})
		case err != nil:
			log.Printf("[API] Human move game %d: %v", req.GameID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
		case done:
			c.JSON(http.StatusOK, completedResponse(st, req.GameID, pg.ID))
		default:
			c.JSON(http.StatusOK, gin.H{"status": "Move accepted", "done": false})
		}
	}
}

// completedResponse re-reads the terminal rows so the payload reflects the
// finalized reward and reason.
func completedResponse(st *store.Store, gameID, seatID int64) gin.H {
	resp := gin.H{"status": "Game completed", "done": true}
	if g, err := st.GetGame(gameID); err == nil {
		resp["reason"] = gameReason(g)
	}
	if seats, err := st.PlayerGames(gameID); err == nil {
		for _, seat := range seats {
			if seat.ID == seatID && seat.Reward.Valid {
				resp["reward"] = seat.Reward.Float64
			}
		}
	}
	return resp
}

// HumanGetMatchOutcome reports the final outcome for one seat of a game.
func HumanGetMatchOutcome(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameID, ok := queryInt64(c, "game_id")
		if !ok {
			return
		}
		playerID, ok := queryInt64(c, "player_id")
		if !ok {
			return
		}
		pg, err := st.PlayerGameByPosition(gameID, int(playerID))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found."})
			return
		}
		g, err := st.GetGame(gameID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found."})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"outcome": pg.Outcome.String,
			"reason":  gameReason(g),
		})
	}
}

// HumanGetStats reports the caller's personal record. An unknown address
// gets the all-zero shape rather than an error.
func HumanGetStats(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		h, err := st.HumanByIP(ip)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"games_played": 0,
				"win_rate":     0.0,
				"wins":         0,
				"losses":       0,
				"draws":        0,
				"recent_games": []gin.H{},
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}

		seats, err := st.HumanSeats(ip)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error."})
			return
		}

		var wins, losses, draws int
		recent := make([]gin.H, 0, 10)
		for _, seat := range seats {
			switch seat.Outcome.String {
			case models.OutcomeWin:
				wins++
			case models.OutcomeLoss:
				losses++
			case models.OutcomeDraw:
				draws++
			}
			if len(recent) < 10 {
				entry := gin.H{"outcome": seat.Outcome.String}
				if g, gerr := st.GetGame(seat.GameID); gerr == nil {
					if g.SpecificEnvID.Valid {
						entry["environment"] = g.SpecificEnvID.String
					} else {
						entry["environment"] = g.EnvID
					}
				}
				if all, aerr := st.PlayerGames(seat.GameID); aerr == nil {
					entry["opponent"] = opponentNames(all, seat.ID)
				}
				recent = append(recent, entry)
			}
		}

		winRate := 0.0
		if decided := wins + losses + draws; decided > 0 {
			winRate = float64(wins) / float64(decided)
		}
		c.JSON(http.StatusOK, gin.H{
			"games_played": h.GamesPlayed,
			"win_rate":     winRate,
			"wins":         wins,
			"losses":       losses,
			"draws":        draws,
			"recent_games": recent,
		})
	}
}
