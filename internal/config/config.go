// Package config provides configuration management for the whale tracker application.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/whale-tracker/internal/types"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Reddit   RedditConfig
	Oracle   OracleConfig
	Refresh  RefreshConfig
	Logging  LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
	RPS  int // per-client request rate for the read API
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	Redis      RedisConfig
	ClickHouse ClickHouseConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration for the cycle stats sink.
// The sink is optional; an empty host disables it.
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedditConfig holds forum API configuration
type RedditConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Streams      []string      // subreddits polled in order
	PostLimit    int           // posts requested per stream
	MaxPostAge   time.Duration // posts older than this are skipped
	PostPacing   time.Duration // minimum gap between posts
	StreamPacing time.Duration // minimum gap between streams
	FetchTimeout time.Duration // per-stream fetch budget
}

// OracleConfig holds balance oracle configuration
type OracleConfig struct {
	EthereumRPC     string
	SolanaRPC       string
	BitcoinEndpoint string // empty: bitcoin balances stay unknown
	PriceFeedURL    string
	FallbackETHUSD  float64
	FallbackSOLUSD  float64
	FallbackBTCUSD  float64
	LookupTimeout   time.Duration // per-address budget
	WhaleFloors     map[types.Network]float64
}

// RefreshConfig holds refresh coordinator configuration
type RefreshConfig struct {
	Interval time.Duration // minimum gap between refreshes
	Budget   time.Duration // full refresh budget
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			RPS:  getEnvAsInt("SERVER_RPS", 50),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "whale_tracker"),
				User:           getEnv("POSTGRES_USER", "tracker"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", ""),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "whale_tracker"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
		},
		Reddit: RedditConfig{
			ClientID:     getEnv("REDDIT_CLIENT_ID", ""),
			ClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
			UserAgent:    getEnv("REDDIT_USER_AGENT", "whale-tracker/1.0"),
			Streams:      getEnvAsList("REDDIT_STREAMS", "CryptoCurrency,ethtrader,solana,defi,SolanaNFTs"),
			PostLimit:    getEnvAsInt("REDDIT_POST_LIMIT", 50),
			MaxPostAge:   getEnvAsDuration("REDDIT_MAX_POST_AGE", 7*24*time.Hour),
			PostPacing:   getEnvAsDuration("REDDIT_POST_PACING", 100*time.Millisecond),
			StreamPacing: getEnvAsDuration("REDDIT_STREAM_PACING", 2*time.Second),
			FetchTimeout: getEnvAsDuration("REDDIT_FETCH_TIMEOUT", 30*time.Second),
		},
		Oracle: OracleConfig{
			EthereumRPC:     getEnv("ETHEREUM_RPC_URL", ""),
			SolanaRPC:       getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
			BitcoinEndpoint: getEnv("BITCOIN_BALANCE_URL", ""),
			PriceFeedURL:    getEnv("PRICE_FEED_URL", "https://api.coingecko.com/api/v3/simple/price"),
			FallbackETHUSD:  getEnvAsFloat("PRICE_FALLBACK_ETH_USD", 2000),
			FallbackSOLUSD:  getEnvAsFloat("PRICE_FALLBACK_SOL_USD", 150),
			FallbackBTCUSD:  getEnvAsFloat("PRICE_FALLBACK_BTC_USD", 60000),
			LookupTimeout:   getEnvAsDuration("ORACLE_LOOKUP_TIMEOUT", 3*time.Second),
			WhaleFloors: map[types.Network]float64{
				types.NetworkEthereum: getEnvAsFloat("WHALE_FLOOR_ETHEREUM", 100_000),
				types.NetworkSolana:   getEnvAsFloat("WHALE_FLOOR_SOLANA", 50_000),
				types.NetworkBitcoin:  getEnvAsFloat("WHALE_FLOOR_BITCOIN", 100_000),
			},
		},
		Refresh: RefreshConfig{
			Interval: getEnvAsDuration("REFRESH_INTERVAL", 30*time.Minute),
			Budget:   getEnvAsDuration("REFRESH_BUDGET", 10*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// ValidateForWorker checks configuration the refresh worker cannot run
// without. Called at process start; missing credentials are fatal there
// and never surface at request time.
func (c *Config) ValidateForWorker() error {
	if c.Reddit.ClientID == "" || c.Reddit.ClientSecret == "" {
		return &types.ServiceError{
			Code:    types.ErrCodeConfigInvalid,
			Message: "reddit client credentials are required (REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET)",
		}
	}
	if c.Reddit.UserAgent == "" {
		return &types.ServiceError{
			Code:    types.ErrCodeConfigInvalid,
			Message: "reddit user agent is required (REDDIT_USER_AGENT)",
		}
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList gets a comma-separated environment variable as a string slice
func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
