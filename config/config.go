package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL        string
	ServerPort         int
	RPCURL             string
	ChainPrivateKey    string
	FactoryAddress     string
	CORSAllowedOrigins []string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		rpcURL = "http://localhost:8545"
	}

	privateKey := os.Getenv("CHAIN_PRIVATE_KEY")
	if privateKey == "" {
		privateKey = "0x0000000000000000000000000000000000000000000000000000000000000001"
	}

	factoryAddress := os.Getenv("FACTORY_ADDRESS")
	if factoryAddress == "" {
		factoryAddress = "0x0000000000000000000000000000000000000000"
	}

	origins := []string{"*"}
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	return &Config{
		DatabaseURL:        dbURL,
		ServerPort:         port,
		RPCURL:             rpcURL,
		ChainPrivateKey:    privateKey,
		FactoryAddress:     factoryAddress,
		CORSAllowedOrigins: origins,
	}, nil
}
