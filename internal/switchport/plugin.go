package switchport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/switchconnector/internal/audit"
	"github.com/HerbHall/switchconnector/internal/config"
	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/internal/driver/restconf"
	"github.com/HerbHall/switchconnector/internal/driver/sshcli"
	"github.com/HerbHall/switchconnector/internal/metrics"
	"github.com/HerbHall/switchconnector/internal/plugin"
	"github.com/HerbHall/switchconnector/internal/pulse"
	"github.com/HerbHall/switchconnector/internal/store"
	"github.com/HerbHall/switchconnector/internal/vault"
	pkgplugin "github.com/HerbHall/switchconnector/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin           = (*Plugin)(nil)
	_ pkgplugin.HealthChecker = (*Plugin)(nil)
)

// Plugin implements the switches module.
type Plugin struct {
	lookup  driver.CredentialLookup
	metrics *metrics.Metrics
	now     func() time.Time

	// Optional overrides; built from configuration when nil.
	primaryFactory   driver.Factory
	secondaryFactory driver.Factory
	checker          pulse.Checker

	logger      *zap.Logger
	primary     *Cache
	secondary   *Cache
	service     *Service
	db          *store.SQLiteStore
	trail       *audit.Trail
	unsubscribe func()
}

// Option customizes a Plugin.
type Option func(*Plugin)

// WithFactories replaces the RESTCONF and SSH driver factories.
func WithFactories(primary, secondary driver.Factory) Option {
	return func(p *Plugin) {
		p.primaryFactory = primary
		p.secondaryFactory = secondary
	}
}

// WithChecker replaces the ICMP reachability checker.
func WithChecker(c pulse.Checker) Option {
	return func(p *Plugin) { p.checker = c }
}

// WithMetrics records transport attempts in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Plugin) { p.metrics = m }
}

// WithClock sets the time source of the audit trail.
func WithClock(now func() time.Time) Option {
	return func(p *Plugin) { p.now = now }
}

// New creates the switches plugin resolving device credentials via lookup.
func New(lookup driver.CredentialLookup, opts ...Option) *Plugin {
	p := &Plugin{lookup: lookup}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Plugin) Name() string    { return "switches" }
func (p *Plugin) Version() string { return "0.1.0" }

func (p *Plugin) Init(ctx context.Context, deps plugin.Dependencies) error {
	p.logger = deps.Logger
	cfg := deps.Config

	if p.primaryFactory == nil {
		p.primaryFactory = restconf.NewFactory(p.lookup, restconfOptions(cfg), p.logger.Named("restconf"))
	}
	if p.secondaryFactory == nil {
		p.secondaryFactory = sshcli.NewFactory(p.lookup, sshOptions(cfg), p.logger.Named("ssh"))
	}
	if p.checker == nil {
		p.checker = pulse.NewICMPChecker(cfg.GetDuration("pulse.timeout"), cfg.GetInt("pulse.count"))
	}

	path := cfg.GetString("audit.path")
	if path == "" {
		path = ":memory:"
	}
	db, err := store.New(path)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	trail, err := audit.New(ctx, db, p.now)
	if err != nil {
		db.Close()
		return err
	}
	p.db = db
	p.trail = trail

	p.primary = NewCache(p.primaryFactory, p.logger)
	p.secondary = NewCache(p.secondaryFactory, p.logger)
	p.service = NewService(p.primary, p.secondary, p.metrics, p.trail, p.logger)

	if deps.Bus != nil {
		p.unsubscribe = deps.Bus.Subscribe(vault.TopicInventoryReplaced,
			evictOnInventoryChange(p.logger, p.primary, p.secondary))
	}

	p.logger.Info("switches module initialized",
		zap.String("primary", p.primary.Protocol()),
		zap.String("secondary", p.secondary.Protocol()),
		zap.String("audit_path", path),
	)
	return nil
}

func restconfOptions(cfg config.Config) restconf.Options {
	return restconf.Options{
		Port:      cfg.GetInt("restconf.port"),
		Timeout:   cfg.GetDuration("restconf.timeout"),
		RateLimit: cfg.GetFloat64("restconf.rate_limit"),
		Burst:     cfg.GetInt("restconf.burst"),
	}
}

func sshOptions(cfg config.Config) sshcli.Options {
	return sshcli.Options{
		Port:           cfg.GetInt("ssh.port"),
		DialTimeout:    cfg.GetDuration("ssh.dial_timeout"),
		CommandTimeout: cfg.GetDuration("ssh.command_timeout"),
	}
}

func (p *Plugin) Start(_ context.Context) error {
	p.logger.Info("switches module started")
	return nil
}

func (p *Plugin) Stop() error {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	var errs []error
	if p.primary != nil {
		errs = append(errs, p.primary.Close(), p.secondary.Close())
	}
	if p.db != nil {
		errs = append(errs, p.db.Close())
	}
	p.logger.Info("switches module stopped")
	return errors.Join(errs...)
}

func (p *Plugin) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/audit", Handler: p.handleAudit},
		{Method: "GET", Path: "/{ip}/hostname", Handler: p.handleHostname},
		{Method: "GET", Path: "/{ip}/hardware", Handler: p.handleHardware},
		{Method: "GET", Path: "/{ip}/vlans", Handler: p.handleVlans},
		{Method: "GET", Path: "/{ip}/switchport", Handler: p.handleInterfaceConfig},
		{Method: "PUT", Path: "/{ip}/switchport/mode", Handler: p.handleSetMode},
		{Method: "POST", Path: "/{ip}/switchport/tag", Handler: p.handleTag},
		{Method: "DELETE", Path: "/{ip}/switchport/vlans/{vlan}", Handler: p.handleUntag},
		{Method: "GET", Path: "/{ip}/reachability", Handler: p.handleReachability},
	}
}

// Health reports the transports in use and the number of cached drivers.
func (p *Plugin) Health(_ context.Context) pkgplugin.HealthStatus {
	if p.service == nil {
		return pkgplugin.HealthStatus{Status: pkgplugin.StatusUnhealthy, Message: "not initialized"}
	}
	return pkgplugin.HealthStatus{
		Status: pkgplugin.StatusHealthy,
		Details: map[string]string{
			"primary":          p.primary.Protocol(),
			"secondary":        p.secondary.Protocol(),
			"cached_primary":   fmt.Sprint(p.primary.Len()),
			"cached_secondary": fmt.Sprint(p.secondary.Len()),
		},
	}
}

// Service returns the orchestrator, available after Init.
func (p *Plugin) Service() *Service {
	return p.service
}
