package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	DBPath     string
	UsersCSV   string
	PublicDir  string
	FleetPath  string
}

const (
	defaultListenAddr = ":3000"
	defaultDBPath     = "./data/bookings.db"
	defaultUsersCSV   = "./public/users.csv"
)

// Load loads configuration from environment variables only.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile loads configuration from an optional .env file and environment variables.
func LoadWithFile(envFile string) (*Config, error) {
	// Attempt to load .env file if provided, but don't fail if it doesn't exist.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		ListenAddr: getEnvOrDefault("LISTEN_ADDR", defaultListenAddr),
		DBPath:     getEnvOrDefault("DB_PATH", defaultDBPath),
		UsersCSV:   getEnvOrDefault("USERS_CSV", defaultUsersCSV),
		PublicDir:  os.Getenv("PUBLIC_DIR"),
		FleetPath:  os.Getenv("FLEET_CONFIG"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required fields are set.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("LISTEN_ADDR is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.UsersCSV == "" {
		return fmt.Errorf("USERS_CSV is required")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
