package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Chain    ChainConfig
	Indexer  IndexerConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        string
	MetricsPort string
	Env         string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string
	// MaxBetAmount caps single write-route amounts, in display units of USDC.
	MaxBetAmount string
}

// ChainConfig holds blockchain network and relayer settings
type ChainConfig struct {
	Network                string
	RPCURL                 string
	RelayerPrivateKey      string
	BettingContractAddress string
	StakingContractAddress string
	SwapContractAddress    string
	USDCMintAddress        string
	VEXMintAddress         string
}

// IndexerConfig holds GraphQL indexing service settings
type IndexerConfig struct {
	EndpointURL string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds the optional receipts publisher settings
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "betvex"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			MetricsPort: getEnv("METRICS_PORT", "9090"),
			Env:         getEnv("APP_ENV", "local"),
		},
		App: AppConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			MaxBetAmount: getEnv("MAX_BET_AMOUNT", "1000"),
		},
		Chain: ChainConfig{
			Network:                getEnv("CHAIN_NETWORK", "testnet"),
			RPCURL:                 getEnv("CHAIN_RPC_URL", ""),
			RelayerPrivateKey:      getEnv("RELAYER_PRIVATE_KEY", ""),
			BettingContractAddress: getEnv("BETTING_CONTRACT_ADDRESS", ""),
			StakingContractAddress: getEnv("STAKING_CONTRACT_ADDRESS", ""),
			SwapContractAddress:    getEnv("SWAP_CONTRACT_ADDRESS", ""),
			USDCMintAddress:        getEnv("USDC_MINT_ADDRESS", ""),
			VEXMintAddress:         getEnv("VEX_MINT_ADDRESS", ""),
		},
		Indexer: IndexerConfig{
			EndpointURL: getEnv("INDEXER_GQL_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "")),
			Topic:   getEnv("KAFKA_RECEIPTS_TOPIC", "relay.receipts"),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Chain.RelayerPrivateKey == "" {
		return nil, fmt.Errorf("RELAYER_PRIVATE_KEY is required")
	}

	if config.Indexer.EndpointURL == "" {
		return nil, fmt.Errorf("INDEXER_GQL_URL is required")
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

// KafkaEnabled reports whether the receipts publisher should be started
func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
