package main

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/moviedeck/internal/catalog"
	"github.com/vadimtrunov/moviedeck/internal/config"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	styleRating  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	styleLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	styleTagline = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)

	styleSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("5")).Bold(true)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// loadConfig loads and validates the configuration. The file may be omitted
// when the API key comes from the environment.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOrEnv(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// initCatalog creates the TMDb catalog client from configuration.
func initCatalog(cfg *config.Config, logger *slog.Logger) (*catalog.Client, error) {
	client, err := catalog.New(catalog.Options{
		APIKey:   cfg.TMDb.APIKey,
		BaseURL:  cfg.TMDb.BaseURL,
		Language: cfg.TMDb.Language,
		Timeout:  cfg.TMDb.Timeout,
		CacheTTL: cfg.TMDb.CacheDuration(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	logger.Info("catalog client initialized",
		slog.String("url", sanitizeURL(baseURL(cfg))),
		slog.String("language", cfg.TMDb.Language),
		slog.Duration("cache_ttl", cfg.TMDb.CacheDuration()),
	)
	return client, nil
}

func baseURL(cfg *config.Config) string {
	if cfg.TMDb.BaseURL == "" {
		return catalog.DefaultBaseURL
	}
	return cfg.TMDb.BaseURL
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
