package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/HerbHall/switchconnector/internal/plugin"
	"github.com/HerbHall/switchconnector/internal/server"
	pkgplugin "github.com/HerbHall/switchconnector/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin           = (*Plugin)(nil)
	_ pkgplugin.HealthChecker = (*Plugin)(nil)
)

// Plugin implements the Vault credential inventory module.
type Plugin struct {
	store         *Store
	inventoryFile string
	logger        *zap.Logger
	bus           pkgplugin.EventBus
}

// New creates a Vault plugin over store. When inventoryFile is non-empty it
// is loaded on Start.
func New(store *Store, inventoryFile string) *Plugin {
	return &Plugin{store: store, inventoryFile: inventoryFile}
}

func (p *Plugin) Name() string    { return "vault" }
func (p *Plugin) Version() string { return "0.1.0" }

func (p *Plugin) Init(_ context.Context, deps plugin.Dependencies) error {
	p.logger = deps.Logger
	p.bus = deps.Bus
	p.logger.Info("vault module initialized")
	return nil
}

func (p *Plugin) Start(ctx context.Context) error {
	if p.inventoryFile != "" {
		entries, err := LoadInventoryFile(p.inventoryFile)
		if err != nil {
			return err
		}
		if err := p.Replace(ctx, entries); err != nil {
			return fmt.Errorf("bootstrap inventory: %w", err)
		}
	}
	p.logger.Info("vault module started", zap.Int("devices", p.store.Len()))
	return nil
}

func (p *Plugin) Stop() error {
	p.logger.Info("vault module stopped")
	return nil
}

func (p *Plugin) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "PUT", Path: "/inventory", Handler: p.handleReplaceInventory},
		{Method: "GET", Path: "/inventory", Handler: p.handleListInventory},
	}
}

// Health reports degraded while no device is known.
func (p *Plugin) Health(_ context.Context) pkgplugin.HealthStatus {
	n := p.store.Len()
	if n == 0 {
		return pkgplugin.HealthStatus{Status: pkgplugin.StatusDegraded, Message: "inventory is empty"}
	}
	return pkgplugin.HealthStatus{
		Status:  pkgplugin.StatusHealthy,
		Details: map[string]string{"devices": fmt.Sprint(n)},
	}
}

// Replace swaps the inventory and announces the affected addresses.
func (p *Plugin) Replace(ctx context.Context, entries []Entry) error {
	changed, err := p.store.ReplaceAll(entries)
	if err != nil {
		return err
	}
	p.logger.Info("inventory replaced",
		zap.Int("devices", p.store.Len()),
		zap.Int("changed", len(changed)),
	)
	if p.bus == nil {
		return nil
	}
	// Synchronous so cached drivers are gone before the caller sees success.
	return p.bus.Publish(ctx, pkgplugin.Event{
		Topic:   TopicInventoryReplaced,
		Source:  p.Name(),
		Payload: InventoryReplacedEvent{Changed: changed, Total: p.store.Len()},
	})
}

type inventoryResponse struct {
	Devices []string `json:"devices"`
	Count   int      `json:"count"`
}

func (p *Plugin) handleReplaceInventory(w http.ResponseWriter, r *http.Request) {
	var entries []Entry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		server.BadRequest(w, "body is not a JSON inventory list", r.URL.Path)
		return
	}
	if err := p.Replace(r.Context(), entries); err != nil {
		if errors.Is(err, ErrInvalidAddress) {
			server.BadRequest(w, err.Error(), r.URL.Path)
			return
		}
		p.logger.Error("replace inventory", zap.Error(err))
		server.InternalError(w, "failed to replace inventory", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Successfully updated inventory"})
}

func (p *Plugin) handleListInventory(w http.ResponseWriter, _ *http.Request) {
	devices := p.store.Addresses()
	writeJSON(w, http.StatusOK, inventoryResponse{Devices: devices, Count: len(devices)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
