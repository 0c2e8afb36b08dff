package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	// Ledger
	RPCURL          string
	PrivateKey      string
	ContractAddress string
	ContractABIPath string
	ChainID         int64
	LedgerTimeout   time.Duration

	// Registry persistence
	RegistryPath       string
	DatabaseURL        string
	RegistryDurability string

	RabbitURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		RPCURL:             getEnv("RPC_URL", "http://localhost:8545"),
		PrivateKey:         getEnv("DEPLOYER_PRIVATE_KEY", ""),
		ContractAddress:    getEnv("TICKET_CONTRACT_ADDRESS", ""),
		ContractABIPath:    getEnv("TICKET_CONTRACT_ABI_PATH", "artifacts/contracts/Ticket.sol/Ticket.json"),
		ChainID:            getEnvInt64("CHAIN_ID", 31337),
		LedgerTimeout:      time.Duration(getEnvInt64("LEDGER_TIMEOUT_SECONDS", 120)) * time.Second,
		RegistryPath:       getEnv("REGISTRY_PATH", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RegistryDurability: getEnv("REGISTRY_DURABILITY", "best-effort"),
		RabbitURL:          getEnv("RABBIT_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}
