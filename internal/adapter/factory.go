package adapter

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/logger"
)

// Factory creates SourceAdapter implementations based on configuration
type Factory struct {
	log *logrus.Logger
}

// NewFactory creates a new source adapter factory
func NewFactory(log *logrus.Logger) *Factory {
	return &Factory{log: log}
}

// NewAdapter creates a SourceAdapter for the given source configuration.
// Stream adapters are returned unstarted; the caller owns their Run loop.
func (f *Factory) NewAdapter(cfg config.SourceConfig) (SourceAdapter, error) {
	entry := logger.ForSource(f.log, cfg.Name)

	switch cfg.Kind {
	case "oddsapi":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("source %s: API key is required", cfg.Name)
		}
		return NewOddsAPIAdapter(cfg, entry), nil

	case "stream":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("source %s: websocket URL is required", cfg.Name)
		}
		return NewStreamAdapter(cfg, entry), nil

	default:
		return nil, fmt.Errorf("unknown source kind: %s", cfg.Kind)
	}
}

// BuildAll creates adapters for every enabled source in the configuration.
func (f *Factory) BuildAll(cfg *config.Config) ([]SourceAdapter, error) {
	adapters := make([]SourceAdapter, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		if !src.Enabled {
			continue
		}
		a, err := f.NewAdapter(src)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}
