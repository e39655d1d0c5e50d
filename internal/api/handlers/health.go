package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

// HealthCheck reports process uptime and dependency reachability. Redis is
// optional, so a missing client reports "disabled" rather than degrading the
// status.
func HealthCheck(db *sqlx.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK

		dbStatus := "ok"
		if err := db.Ping(); err != nil {
			dbStatus = "unreachable"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "ok"
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				redisStatus = "unreachable"
			}
		}

		c.JSON(code, gin.H{
			"status":  status,
			"service": "wordarena-api",
			"uptime":  time.Since(startTime).String(),
			"db":      dbStatus,
			"redis":   redisStatus,
		})
	}
}
