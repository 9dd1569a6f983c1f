package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/yukikurage/standup-board/internal/constants"
)

type Config struct {
	// Board client
	APIURL  string
	UserID  uint64
	Timeout time.Duration
	Mode    string

	// Reference collaborator
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string
	DBLogLevel string
	GinMode    string
	CollabAddr string
	Seed       bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring .env file: %v", err)
	}

	return &Config{
		APIURL:  getEnv("BOARD_API_URL", constants.DefaultAPIURL),
		UserID:  getEnvUint("BOARD_USER_ID", 0),
		Timeout: getEnvDuration("BOARD_TIMEOUT", constants.DefaultRequestTimeout),
		Mode:    getEnv("BOARD_MODE", "standup"),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "boarduser"),
		DBPassword: getEnv("DB_PASSWORD", "boardpassword"),
		DBName:     getEnv("DB_NAME", "standup_board"),
		DBPath:     getEnv("DB_PATH", "standup_board.db"),
		DBLogLevel: getEnv("DB_LOG_LEVEL", "warn"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		CollabAddr: getEnv("COLLAB_ADDR", constants.DefaultCollabAddr),
		Seed:       getEnvBool("COLLAB_SEED", false),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// getEnvDuration accepts Go durations ("15s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	log.Printf("Invalid %s=%q, using %s", key, value, defaultValue)
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
