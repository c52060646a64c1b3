package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	CORS     CORSConfig
	Solana   SolanaConfig
	Oracle   OracleConfig
	Redis    RedisConfig
	Jobs     JobsConfig
}

// DatabaseConfig holds database connection settings. Driver "sqlite" uses
// SQLitePath instead of the Postgres fields.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// SolanaConfig selects on-chain custody. Without a program id the engine
// keeps balances in memory.
type SolanaConfig struct {
	Network                string
	RPCURL                 string
	ProgramID              string
	ServerWalletPrivateKey string
	FeeBps                 uint64
	DevOpeningBalance      uint64
}

// OracleConfig holds price feed settings. PriceFeeds maps a feed id such as
// "SOL/USD" to its CoinGecko coin id.
type OracleConfig struct {
	MaxStaleness  int64
	PriceDecimals int32
	PriceFeeds    map[string]string
}

// RedisConfig points at the observation store. An empty Addr keeps
// observations in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JobsConfig struct {
	ResolverInterval time.Duration
	PollerInterval   time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	feeds, err := ParsePriceFeeds(getEnv("PRICE_FEEDS", "SOL/USD:solana,BTC/USD:bitcoin,ETH/USD:ethereum"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "prediction_market"),
			SQLitePath: getEnv("SQLITE_PATH", "prediction.db"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		},
		Solana: SolanaConfig{
			Network:                getEnv("SOLANA_NETWORK", "devnet"),
			RPCURL:                 getEnv("SOLANA_RPC_URL", ""),
			ProgramID:              getEnv("ESCROW_PROGRAM_ID", ""),
			ServerWalletPrivateKey: getEnv("SERVER_WALLET_PRIVATE_KEY", ""),
			FeeBps:                 uint64(getEnvInt("PLATFORM_FEE_BPS", 200)),
			DevOpeningBalance:      uint64(getEnvInt("DEV_OPENING_BALANCE", 1_000_000_000)),
		},
		Oracle: OracleConfig{
			MaxStaleness:  int64(getEnvInt("ORACLE_MAX_STALENESS", 60)),
			PriceDecimals: int32(getEnvInt("PRICE_DECIMALS", 6)),
			PriceFeeds:    feeds,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Jobs: JobsConfig{
			ResolverInterval: getEnvDuration("RESOLVER_INTERVAL", 30*time.Second),
			PollerInterval:   getEnvDuration("PRICE_POLL_INTERVAL", 15*time.Second),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if config.Solana.FeeBps > 10_000 {
		return nil, fmt.Errorf("PLATFORM_FEE_BPS must be at most 10000, got %d", config.Solana.FeeBps)
	}
	if config.Oracle.MaxStaleness <= 0 {
		return nil, fmt.Errorf("ORACLE_MAX_STALENESS must be positive")
	}
	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", config.Database.Driver)
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// ParsePriceFeeds reads "FEED:coingecko-id" pairs separated by commas.
func ParsePriceFeeds(s string) (map[string]string, error) {
	feeds := make(map[string]string)
	for _, pair := range splitList(s) {
		feed, id, ok := strings.Cut(pair, ":")
		feed, id = strings.TrimSpace(feed), strings.TrimSpace(id)
		if !ok || feed == "" || id == "" {
			return nil, fmt.Errorf("invalid PRICE_FEEDS entry %q, expected FEED:coin-id", pair)
		}
		feeds[feed] = id
	}
	return feeds, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
