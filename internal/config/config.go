package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, read from the environment with an
// optional .env file for local development.
type Config struct {
	Addr          string
	PostgresDSN   string
	JWTSecret     string
	RateBurst     int
	RatePerSecond int
	MigrationsDir string
	SeedsDir      string
}

// Load reads configuration. A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:          getenv("SUDOSOS_ADDR", ":8080"),
		PostgresDSN:   os.Getenv("SUDOSOS_PG_DSN"),
		JWTSecret:     os.Getenv("SUDOSOS_JWT_SECRET"),
		RateBurst:     getint("SUDOSOS_RATE_BURST", 20),
		RatePerSecond: getint("SUDOSOS_RATE_PER_SECOND", 10),
		MigrationsDir: getenv("SUDOSOS_MIGRATIONS_DIR", "migrations"),
		SeedsDir:      getenv("SUDOSOS_SEEDS_DIR", "migrations/seeds"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
