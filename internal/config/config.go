package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "ZENDOWN"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "zendown.db"
	defaultLogLevel      = "info"
	defaultCookieName    = "auth_session"
	defaultSimilarityURL = "http://localhost:8000"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress      string
	DatabasePath     string
	LogLevel         string
	SimilarityURL    string
	SimilarityAPIKey string
	CookieName       string
	AdminUsername    string
	AdminPassword    string
	AllowedOrigins   []string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("similarity.url", defaultSimilarityURL)
	configViper.SetDefault("auth.cookie_name", defaultCookieName)
	configViper.SetDefault("cors.allowed_origins", "")
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:      configViper.GetString("http.address"),
		DatabasePath:     configViper.GetString("database.path"),
		LogLevel:         configViper.GetString("log.level"),
		SimilarityURL:    configViper.GetString("similarity.url"),
		SimilarityAPIKey: configViper.GetString("similarity.api_key"),
		CookieName:       configViper.GetString("auth.cookie_name"),
		AdminUsername:    configViper.GetString("auth.admin_username"),
		AdminPassword:    configViper.GetString("auth.admin_password"),
		AllowedOrigins:   splitOrigins(configViper.GetString("cors.allowed_origins")),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.CookieName) == "" {
		return fmt.Errorf("auth.cookie_name is required")
	}
	if strings.TrimSpace(c.AdminUsername) == "" {
		return fmt.Errorf("auth.admin_username is required")
	}
	if strings.TrimSpace(c.AdminPassword) == "" {
		return fmt.Errorf("auth.admin_password is required")
	}
	return nil
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
