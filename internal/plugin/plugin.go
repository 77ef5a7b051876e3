package plugin

import (
	"context"
	"net/http"

	"github.com/HerbHall/switchconnector/internal/config"
	"github.com/HerbHall/switchconnector/pkg/plugin"
	"go.uber.org/zap"
)

// Route represents an HTTP route exposed by a plugin.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Dependencies are the shared services handed to a plugin at Init.
type Dependencies struct {
	Config config.Config
	Logger *zap.Logger
	Bus    plugin.EventBus
}

// Plugin defines the interface that all SwitchConnector modules must implement.
type Plugin interface {
	// Name returns the plugin's unique identifier (e.g., "vault", "switches").
	Name() string

	// Version returns the plugin's semantic version.
	Version() string

	// Init initializes the plugin with its configuration subtree, logger and bus.
	Init(ctx context.Context, deps Dependencies) error

	// Start begins the plugin's background operations.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the plugin.
	Stop() error

	// Routes returns the HTTP routes this plugin exposes.
	Routes() []Route
}
