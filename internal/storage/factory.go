package storage

import (
	"fmt"

	"github.com/noureldenadel/notly/internal/config"
)

// Open creates the gateway selected by configuration and initializes it.
func Open(cfg *config.Config) (Gateway, error) {
	var gw Gateway
	switch cfg.Storage.Backend {
	case "sqlite":
		gw = NewDatabaseBackend(cfg.DatabasePath())
	case "memory":
		gw = NewMemoryBackend()
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}

	if err := gw.Init(); err != nil {
		return nil, fmt.Errorf("init %s backend: %w", cfg.Storage.Backend, err)
	}
	return gw, nil
}
