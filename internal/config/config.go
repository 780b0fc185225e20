package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates the service configuration.
type Config struct {
	Server   ServerConfig
	Presence PresenceConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// PresenceConfig describes coordinator behavior.
type PresenceConfig struct {
	Greeting           string
	SeedDemoIdentities bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	prs, err := loadPresenceConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Presence: prs}, nil
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

func loadPresenceConfig() (PresenceConfig, error) {
	seed, err := parseBoolEnv("SEED_DEMO_IDENTITIES", false)
	if err != nil {
		return PresenceConfig{}, err
	}

	return PresenceConfig{
		Greeting:           getEnvOrDefault("GREETING", "hello from server"),
		SeedDemoIdentities: seed,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
