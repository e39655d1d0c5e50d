package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// HumanityName is the shared pseudo-participant under which all human
// players compete. It is seeded at startup and never registered over HTTP.
const HumanityName = "Humanity"

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Catalog
	Environments   []EnvironmentSpec
	HumanEnvID     string
	StandardModels []string

	// Rating
	DefaultElo     float64
	InitialK       float64
	ReducedK       float64
	GamesThreshold int
	HumanK         float64
	StandardK      float64

	// Matchmaking
	MatchmakingIntervalSecs  int
	QueueInactivitySecs      float64
	StepTimeoutSecs          float64
	MaxEloDelta              float64
	PctTimeBase              float64
	NumRecentGamesCap        int
	MinWaitForStandardSecs   float64
	RecentWindowSecs         float64
	DefaultQueueTimeLimit    float64
	RateLimitPerMinute       int

	// Agents (OpenRouter-compatible chat completions)
	OpenRouterAPIKey  string
	OpenRouterBaseURL string

	// Security
	JWTSecret string
}

// EnvironmentSpec is one entry of the seeded environment catalog.
type EnvironmentSpec struct {
	ID         string
	NumPlayers int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/wordarena?sslmode=disable"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Catalog
		Environments:   parseEnvironments(getEnv("ENVIRONMENTS", "BalancedSubset-v0:2")),
		HumanEnvID:     getEnv("HUMAN_ENV_ID", "BalancedSubset-v0"),
		StandardModels: parseList(getEnv("STANDARD_MODELS", "")),

		// Rating
		DefaultElo:     getEnvFloat("DEFAULT_ELO", 1000),
		InitialK:       getEnvFloat("INITIAL_K", 32),
		ReducedK:       getEnvFloat("REDUCED_K", 16),
		GamesThreshold: getEnvInt("GAMES_THRESHOLD", 50),
		HumanK:         getEnvFloat("HUMAN_K_FACTOR", 8),
		StandardK:      getEnvFloat("STANDARD_MODEL_K_FACTOR", 8),

		// Matchmaking
		MatchmakingIntervalSecs: getEnvInt("MATCHMAKING_INTERVAL_SECONDS", 3),
		QueueInactivitySecs:     getEnvFloat("MATCHMAKING_INACTIVITY_SECONDS", 30),
		StepTimeoutSecs:         getEnvFloat("STEP_TIMEOUT_SECONDS", 180),
		MaxEloDelta:             getEnvFloat("MAX_ELO_DELTA", 400),
		PctTimeBase:             getEnvFloat("PCT_TIME_BASE", 0.5),
		NumRecentGamesCap:       getEnvInt("NUM_RECENT_GAMES_CAP", 25),
		MinWaitForStandardSecs:  getEnvFloat("MIN_WAIT_FOR_STANDARD_SECONDS", 60),
		RecentWindowSecs:        getEnvFloat("RECENT_WINDOW_HOURS", 3) * 3600,
		DefaultQueueTimeLimit:   getEnvFloat("DEFAULT_QUEUE_TIME_LIMIT_SECONDS", 300),
		RateLimitPerMinute:      getEnvInt("RATE_LIMIT_PER_MINUTE", 100000),

		// Agents
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),

		// Security
		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
	}
}

// IsStandard reports whether name is one of the configured in-process agents.
func (c *Config) IsStandard(name string) bool {
	for _, m := range c.StandardModels {
		if m == name {
			return true
		}
	}
	return false
}

// parseEnvironments parses "EnvA-v0:2,EnvB-v0:3" into catalog entries.
// Entries without a player count default to 2.
func parseEnvironments(raw string) []EnvironmentSpec {
	var specs []EnvironmentSpec
	for _, part := range parseList(raw) {
		id, countStr, found := strings.Cut(part, ":")
		count := 2
		if found {
			if n, err := strconv.Atoi(countStr); err == nil && n >= 2 {
				count = n
			}
		}
		if id != "" {
			specs = append(specs, EnvironmentSpec{ID: id, NumPlayers: count})
		}
	}
	return specs
}

func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
