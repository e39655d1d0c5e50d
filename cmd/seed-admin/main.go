package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/wordarena/backend/internal/admin"
	"github.com/wordarena/backend/internal/config"
	"github.com/wordarena/backend/internal/database"
	"github.com/wordarena/backend/internal/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	name := os.Getenv("ADMIN_NAME")
	if name == "" {
		name = "admin"
		log.Printf("Using default admin name: %s", name)
	}
	token := os.Getenv("ADMIN_TOKEN")
	if token == "" {
		token = "change-me-in-production"
		log.Printf("WARNING: Using default admin token. Set ADMIN_TOKEN env var in production!")
	}

	if err := admin.CreateAccount(db, name, token, store.Now()); err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	log.Printf("✓ Admin account created/updated successfully")
	log.Printf("  Name: %s", name)
	log.Println("\nYou can now login at /api/v1/admin/login with:")
	log.Printf("  Name: %s", name)
	log.Printf("  Token: %s", token)
}
