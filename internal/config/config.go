package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers understood by the server.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port          string
	StorageDriver string
	DatabaseURL   string
	SQLitePath    string
	JWTSecret     string
	JWTIssuer     string
	JWTTTL        time.Duration
	CORSOrigins   []string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LogLevel      string
	BcryptCost    int
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg, err := load(viper.New())
	if err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

// LoadStorage reads configuration for tools that only touch the database,
// so JWT_SECRET may be unset.
func LoadStorage() (Config, error) {
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORAGE_DRIVER", DriverPostgres)
	v.SetDefault("SQLITE_PATH", "budget.db")
	v.SetDefault("JWT_ISSUER", "budget-backend")
	v.SetDefault("JWT_TTL_MINUTES", 60)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("BCRYPT_COST", 0)

	cfg := Config{
		Port:          fallback(v.GetString("PORT"), "8080"),
		StorageDriver: strings.ToLower(fallback(v.GetString("STORAGE_DRIVER"), DriverPostgres)),
		DatabaseURL:   strings.TrimSpace(v.GetString("DATABASE_URL")),
		SQLitePath:    fallback(v.GetString("SQLITE_PATH"), "budget.db"),
		JWTSecret:     strings.TrimSpace(v.GetString("JWT_SECRET")),
		JWTIssuer:     fallback(v.GetString("JWT_ISSUER"), "budget-backend"),
		CORSOrigins:   parseCSV(v.GetString("CORS_ALLOWED_ORIGINS")),
		RedisAddr:     strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		LogLevel:      fallback(v.GetString("LOG_LEVEL"), "info"),
		BcryptCost:    v.GetInt("BCRYPT_COST"),
	}

	if ttlMinutes := v.GetInt("JWT_TTL_MINUTES"); ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
	case DriverSQLite, DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
