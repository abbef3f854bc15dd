// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultTokenURL   = "https://accounts.spotify.com/api/token"
	DefaultAPIBaseURL = "https://api.spotify.com"
)

// Config is built once at startup and handed to every component.
type Config struct {
	Port       string `env:"PORT" validate:"required"`
	Mode       string `env:"GIN_MODE" validate:"oneof=debug release test"`
	LogLevel   string `env:"LOG_LEVEL" validate:"oneof=trace debug info warn error fatal panic disabled"`
	AdminToken string `env:"ADMIN_TOKEN"`

	Spotify Spotify
	Visits  Visits
}

// Spotify holds the client credentials used against the accounts and web API.
type Spotify struct {
	ClientID     string `env:"SPOTIFY_CLIENT_ID" validate:"required"`
	ClientSecret string `env:"SPOTIFY_CLIENT_SECRET" validate:"required"`
	RedirectURI  string `env:"SPOTIFY_REDIRECT_URI" validate:"required,url"`

	// RefreshToken is produced by the callback bootstrap, so it may be
	// missing on the very first run.
	RefreshToken string `env:"SPOTIFY_REFRESH_TOKEN"`

	TokenURL   string        `env:"SPOTIFY_ACCOUNTS_URL" validate:"required,url"`
	APIBaseURL string        `env:"SPOTIFY_API_URL" validate:"required,url"`
	Timeout    time.Duration `env:"SPOTIFY_TIMEOUT" validate:"gt=0"`
}

type Visits struct {
	DBPath    string        `env:"VISITS_DB" validate:"required"`
	Retention time.Duration `env:"VISITS_RETENTION" validate:"gt=0"`
}

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	timeout, err := getDuration("SPOTIFY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	retention, err := getDuration("VISITS_RETENTION", 365*24*time.Hour)
	if err != nil {
		return nil, err
	}

	c := &Config{
		Port:       GetEnv("PORT", "8080"),
		Mode:       GetEnv("GIN_MODE", "debug"),
		LogLevel:   strings.ToLower(GetEnv("LOG_LEVEL", "info")),
		AdminToken: os.Getenv("ADMIN_TOKEN"),
		Spotify: Spotify{
			ClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("SPOTIFY_REDIRECT_URI"),
			RefreshToken: os.Getenv("SPOTIFY_REFRESH_TOKEN"),
			TokenURL:     GetEnv("SPOTIFY_ACCOUNTS_URL", DefaultTokenURL),
			APIBaseURL:   strings.TrimRight(GetEnv("SPOTIFY_API_URL", DefaultAPIBaseURL), "/"),
			Timeout:      timeout,
		},
		Visits: Visits{
			DBPath:    GetEnv("VISITS_DB", "./data/visits.db"),
			Retention: retention,
		},
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports every invalid field by its environment variable name.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config: %w", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			problems = append(problems, fe.Field()+" is required")
			continue
		}
		problems = append(problems, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("config: %s", strings.Join(problems, "; "))
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(envVar string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", envVar, err)
	}
	return d, nil
}
