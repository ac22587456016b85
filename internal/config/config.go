// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds settings for the UI-serving HTTP process
type ServerConfig struct {
	Port           int
	Host           string
	MetricsEnabled bool
}

// BackendConfig points at the remote article/comment REST API
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// IdentityConfig points at the hosted identity provider (Ory Kratos)
type IdentityConfig struct {
	PublicURL     string
	Timeout       time.Duration
	SessionSecret string
	SessionTTL    time.Duration
}

// Config holds the complete application configuration
type Config struct {
	Server         *ServerConfig
	Backend        *BackendConfig
	Identity       *IdentityConfig
	AllowedOrigins []string
	Debug          bool
}

// DefaultServerConfig provides default server settings
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           3000,
		Host:           "0.0.0.0",
		MetricsEnabled: true,
	}
}

// DefaultBackendConfig matches the prototype backend's local default
func DefaultBackendConfig() *BackendConfig {
	return &BackendConfig{
		BaseURL: "http://127.0.0.1:5001",
		Timeout: 10 * time.Second,
	}
}

func DefaultIdentityConfig() *IdentityConfig {
	return &IdentityConfig{
		PublicURL:  "http://localhost:4433",
		Timeout:    30 * time.Second,
		SessionTTL: 24 * time.Hour,
	}
}

// LoadConfig loads configuration from environment variables and applies defaults
func LoadConfig() (*Config, error) {
	// Try to load a .env file from the usual locations; silently fine if absent
	envLocations := []string{
		".env",
		"../../.env",
	}
	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}
	if !envLoaded {
		_ = godotenv.Load()
	}

	serverConfig := DefaultServerConfig()
	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			serverConfig.Port = port
		}
	}
	if host := os.Getenv("HOST"); host != "" {
		serverConfig.Host = host
	}
	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		serverConfig.MetricsEnabled = metricsEnabled == "true"
	}

	backendConfig := DefaultBackendConfig()
	if base := os.Getenv("API_BASE_URL"); base != "" {
		backendConfig.BaseURL = strings.TrimRight(base, "/")
	}
	if timeoutStr := os.Getenv("API_TIMEOUT_SECONDS"); timeoutStr != "" {
		if secs, err := strconv.Atoi(timeoutStr); err == nil && secs > 0 {
			backendConfig.Timeout = time.Duration(secs) * time.Second
		}
	}

	identityConfig := DefaultIdentityConfig()
	if public := os.Getenv("KRATOS_PUBLIC_URL"); public != "" {
		identityConfig.PublicURL = strings.TrimRight(public, "/")
	}
	identityConfig.SessionSecret = os.Getenv("SESSION_SECRET")
	if identityConfig.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if ttlStr := os.Getenv("SESSION_TTL_HOURS"); ttlStr != "" {
		if hours, err := strconv.Atoi(ttlStr); err == nil && hours > 0 {
			identityConfig.SessionTTL = time.Duration(hours) * time.Hour
		}
	}

	config := &Config{
		Server:         serverConfig,
		Backend:        backendConfig,
		Identity:       identityConfig,
		AllowedOrigins: []string{"*"},
		Debug:          false,
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}
	if debug := os.Getenv("DEBUG"); debug == "true" {
		config.Debug = true
	}

	return config, nil
}
