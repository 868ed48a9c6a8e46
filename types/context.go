package types

import (
	"log/slog"

	"github.com/lepinkainen/tempotweak/config"
	"github.com/lepinkainen/tempotweak/logging"
)

// DefaultVersion is the fallback version when AppContext is nil
const DefaultVersion = "dev"

// AppContext holds application-wide context information passed to commands
type AppContext struct {
	Version    string
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
}

// VersionOrDefault returns the build version, tolerating a nil context
func (a *AppContext) VersionOrDefault() string {
	if a == nil || a.Version == "" {
		return DefaultVersion
	}
	return a.Version
}

// ConfigOrDefault returns the loaded config or the built-in defaults
func (a *AppContext) ConfigOrDefault() *config.Config {
	if a == nil || a.Config == nil {
		cfg := config.Default()
		return &cfg
	}
	return a.Config
}

// LoggerOrNop returns the application logger or a logger that discards everything
func (a *AppContext) LoggerOrNop() *slog.Logger {
	if a == nil || a.Logger == nil {
		return logging.NewNop()
	}
	return a.Logger
}
