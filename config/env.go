package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvBalloonAddress = "NEXT_PUBLIC_CONTRACT_BALLOON_ADDRESS"
	EnvDEXAddress     = "NEXT_PUBLIC_CONTRACT_DEX_ADDRESS"
	EnvProjectID      = "NEXT_PUBLIC_PROJECT_ID"
	EnvRPCURL         = "RPC_URL"
	EnvChainID        = "CHAIN_ID"
	EnvNetwork        = "NETWORK" // hardhat, sepolia
	EnvInfuraKey      = "INFURA_API_KEY"
	EnvPrivateKey     = "PRIVATE_KEY"
)

// DefaultEnvFile is read when no env file is given
const DefaultEnvFile = ".env"

// LoadEnv loads environment variables from path. A missing default .env is
// not an error; a missing explicitly named file is. Variables already set in
// the process environment win.
func LoadEnv(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// GetEnvWithDefault gets an environment variable with a default value
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetRequiredEnv gets an environment variable that must be set
func GetRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s not set", key)
	}
	return value, nil
}
