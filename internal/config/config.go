package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	OddsAPI  OddsAPIConfig
	Storage  StorageConfig
	Backfill BackfillConfig
	NBA      NBAConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type OddsAPIConfig struct {
	BaseURL string
	APIKey  string
	Timeout int
}

type StorageConfig struct {
	Bucket        string
	RetryAttempts int
	RetryDelay    int
}

type BackfillConfig struct {
	SportKey     string
	QuotaFloor   int
	ErrorCeiling int
	// StrictErrors stops a run once the error ceiling is hit. Lenient mode
	// keeps iterating and only logs the breach on every check.
	StrictErrors bool
}

type NBAConfig struct {
	Seasons []string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "localhost"),
		},
		OddsAPI: OddsAPIConfig{
			BaseURL: getEnv("ODDS_API_URL", "https://api.the-odds-api.com"),
			APIKey:  getEnv("ODDS_API_KEY", ""),
			Timeout: getEnvAsInt("ODDS_API_TIMEOUT", 30),
		},
		Storage: StorageConfig{
			Bucket:        getEnv("S3_ARB_BUCKET", ""),
			RetryAttempts: getEnvAsInt("S3_RETRY_ATTEMPTS", 5),
			RetryDelay:    getEnvAsInt("S3_RETRY_DELAY", 2),
		},
		Backfill: BackfillConfig{
			SportKey:     getEnv("SPORT_KEY", "basketball_nba"),
			QuotaFloor:   getEnvAsInt("QUOTA_FLOOR", 400),
			ErrorCeiling: getEnvAsInt("ERROR_CEILING", 5),
			StrictErrors: getEnvAsBool("STRICT_ERRORS", true),
		},
		NBA: NBAConfig{
			Seasons: getEnvAsSlice("NBA_SEASONS", []string{"2021-22", "2022-23"}),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
