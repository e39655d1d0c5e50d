package main

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/wordarena/backend/internal/api"
	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/database"
	"github.com/wordarena/backend/internal/elo"
	"github.com/wordarena/backend/internal/events"
	"github.com/wordarena/backend/internal/matchmaker"
	"github.com/wordarena/backend/internal/migrations"
	"github.com/wordarena/backend/internal/redis"
	"github.com/wordarena/backend/internal/seed"
	"github.com/wordarena/backend/internal/session"
	"github.com/wordarena/backend/internal/store"
	"github.com/wordarena/backend/internal/ws"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Redis is optional: without it the rate limiter and live feed stand
	// down but matchmaking and play are unaffected.
	rdb, err := redis.Connect(cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable (%v), continuing without it", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	st := store.New(db)

	// Seed the environment catalog, Humanity and the standard models.
	if err := seed.Run(st, cfg); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	pub := events.NewPublisher(rdb)
	updater := elo.NewUpdater(st, cfg)
	registry := session.NewRegistry(st, cfg, updater, pub)

	ctx := context.Background()

	// Matchmaker + sweeper worker
	mm := matchmaker.New(st, cfg, registry, pub, rand.New(rand.NewSource(time.Now().UnixNano())))
	go mm.Run(ctx)

	// Live spectator feed
	hub := ws.NewHub()
	go hub.Run(ctx)
	ws.StartEventSubscriber(ctx, rdb, hub)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, db, rdb, cfg, st, registry, hub)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting WordArena server on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
