package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL     string
	Port            string
	IsProduction    bool
	EnableDBCheck   bool
	MigrationsPath  string
	AllowedOrigins  []string
	EventBufferSize int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("ALLOWED_ORIGINS", []string{"*"})
	viper.SetDefault("EVENT_BUFFER_SIZE", 256)

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:     viper.GetString("PGSQL_URL"),
		Port:            viper.GetString("PORT"),
		IsProduction:    viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:   viper.GetBool("ENABLE_DB_CHECK"),
		MigrationsPath:  viper.GetString("MIGRATIONS_PATH"),
		AllowedOrigins:  viper.GetStringSlice("ALLOWED_ORIGINS"),
		EventBufferSize: viper.GetInt("EVENT_BUFFER_SIZE"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = 256
	}

	return cfg, nil
}
