package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/wordarena/backend/internal/api/handlers"
	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/middleware"
	"github.com/wordarena/backend/internal/session"
	"github.com/wordarena/backend/internal/store"
	"github.com/wordarena/backend/internal/ws"
)

// SetupRoutes wires the whole HTTP surface: the agent play API, the human
// play API, the live spectator feed and the admin surface.
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config,
	st *store.Store, reg *session.Registry, hub *ws.Hub) {

	router.Use(middleware.CORSMiddleware(cfg))

	// Health lives outside the rate-limited group so load balancer probes
	// never count against a client budget.
	router.GET("/health", handlers.HealthCheck(db, rdb))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimitMiddleware(rdb, cfg))
	{
		v1.GET("/health", handlers.HealthCheck(db, rdb))

		// Agent play surface
		v1.POST("/register_model", handlers.RegisterModel(st))
		v1.POST("/join_matchmaking", handlers.JoinMatchmaking(st, cfg))
		v1.POST("/leave_matchmaking", handlers.LeaveMatchmaking(st))
		v1.GET("/check_matchmaking_status", handlers.CheckMatchmakingStatus(st))
		v1.GET("/check_turn", handlers.CheckTurn(st, reg))
		v1.POST("/step", handlers.Step(st, reg))
		v1.POST("/get_results", handlers.GetResults(st, cfg))

		// Human play surface (authenticated by source address)
		human := v1.Group("/human")
		{
			human.POST("/register", handlers.HumanRegister(st))
			human.POST("/join_matchmaking", handlers.HumanJoinMatchmaking(st, cfg))
			human.GET("/check_matchmaking_status", handlers.HumanCheckMatchmakingStatus(st))
			human.GET("/check_turn", handlers.HumanCheckTurn(st, reg))
			human.POST("/make_move", handlers.HumanMakeMove(st, reg))
			human.GET("/get_match_outcome", handlers.HumanGetMatchOutcome(st))
			human.GET("/get_stats", handlers.HumanGetStats(st))
		}

		// Live spectator feed
		live := v1.Group("/live")
		{
			live.GET("/ws", middleware.WebSocketCORSCheck(cfg), ws.ServeLiveFeed(hub))
		}

		// Admin surface
		adminGroup := v1.Group("/admin")
		{
			adminGroup.POST("/login", handlers.AdminLogin(db, cfg))

			guarded := adminGroup.Group("")
			guarded.Use(middleware.AdminAuthMiddleware(cfg))
			{
				guarded.GET("/queue", handlers.AdminQueue(st))
				guarded.GET("/games", handlers.AdminGames(st, reg))
				guarded.POST("/games/:id/terminate", handlers.AdminTerminateGame(db, reg))
				guarded.GET("/audit", handlers.AdminAuditLogs(db))
			}
		}
	}
}
