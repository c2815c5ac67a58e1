package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Game holds the gameplay defaults applied when a session is created
// without explicit settings.
type Game struct {
	DefaultMinPlayers    int    `envconfig:"GAME_DEFAULT_MIN_PLAYERS" default:"3"`
	DefaultMaxPlayers    int    `envconfig:"GAME_DEFAULT_MAX_PLAYERS" default:"12"`
	DefaultHandSize      int    `envconfig:"GAME_DEFAULT_HAND_SIZE" default:"10"`
	DefaultMaxScore      int    `envconfig:"GAME_DEFAULT_MAX_SCORE" default:"7"`
	PileWarningThreshold int    `envconfig:"GAME_PILE_WARNING_THRESHOLD" default:"10"`
	SessionCodeAttempts  int    `envconfig:"GAME_SESSION_CODE_ATTEMPTS" default:"5"`
	AutoPlayerName       string `envconfig:"GAME_AUTO_PLAYER_NAME" default:"Rando"`
}

// Config holds the party server configuration.
type Config struct {
	// Server settings
	Port     string `envconfig:"PARTY_SERVER_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// PostgreSQL settings
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Secret field WITHOUT an envconfig tag
	DBPassword string

	// Session lock settings
	LockTimeout       time.Duration `envconfig:"SESSION_LOCK_TIMEOUT" default:"10s"`
	LockRetryInterval time.Duration `envconfig:"SESSION_LOCK_RETRY_INTERVAL" default:"100ms"`

	Game Game
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig loads configuration from environment variables and secrets.
func LoadConfig() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load party server configuration: %w", err)
	}

	var loadErr error
	cfg.DBPassword, loadErr = ReadSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}

	log.Printf("Party server configuration loaded (secrets from files):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  DB Max Conns: %d", cfg.DBMaxConns)
	log.Printf("  DB Idle Timeout: %v", cfg.DBIdleTimeout)
	log.Printf("  Lock Timeout: %v", cfg.LockTimeout)
	log.Printf("  Lock Retry Interval: %v", cfg.LockRetryInterval)
	log.Printf("  Game Defaults: players %d-%d, hand %d, score %d",
		cfg.Game.DefaultMinPlayers, cfg.Game.DefaultMaxPlayers,
		cfg.Game.DefaultHandSize, cfg.Game.DefaultMaxScore)

	return &cfg, nil
}
