package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/HerbHall/switchconnector/internal/config"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// testPlugin is a minimal plugin for testing.
type testPlugin struct {
	name     string
	initErr  error
	routes   []Route
	deps     Dependencies
	started  bool
	stopped  bool
	initCall int
}

func newTestPlugin(name string) *testPlugin {
	return &testPlugin{name: name}
}

func (p *testPlugin) Name() string    { return p.name }
func (p *testPlugin) Version() string { return "1.0.0" }
func (p *testPlugin) Routes() []Route { return p.routes }

func (p *testPlugin) Init(_ context.Context, deps Dependencies) error {
	p.initCall++
	p.deps = deps
	return p.initErr
}

func (p *testPlugin) Stop() error {
	p.stopped = true
	return nil
}

func (p *testPlugin) Start(_ context.Context) error {
	p.started = true
	return nil
}

func testConfig(values map[string]any) config.Config {
	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	return config.New(v)
}

func TestRegister(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	p := newTestPlugin("alpha")
	if err := reg.Register(p); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Duplicate registration should fail.
	if err := reg.Register(p); err == nil {
		t.Fatal("Register() expected error for duplicate, got nil")
	}
}

func TestRegisterEmptyName(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	if err := reg.Register(newTestPlugin("")); err == nil {
		t.Fatal("Register() expected error for empty name, got nil")
	}
}

func TestInitAllPassesSubtree(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	p := newTestPlugin("switches")
	reg.Register(p)

	cfg := testConfig(map[string]any{
		"plugins.switches.enabled":          true,
		"plugins.switches.restconf.timeout": "5s",
	})
	if err := reg.InitAll(context.Background(), cfg, nil); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}
	if p.initCall != 1 {
		t.Fatalf("Init called %d times, want 1", p.initCall)
	}
	if got := p.deps.Config.GetDuration("restconf.timeout").String(); got != "5s" {
		t.Errorf("restconf.timeout = %s, want 5s", got)
	}
	if p.deps.Logger == nil {
		t.Error("expected a named logger in dependencies")
	}
}

func TestInitAllSkipsDisabled(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	p := newTestPlugin("vault")
	reg.Register(p)

	cfg := testConfig(map[string]any{"plugins.vault.enabled": false})
	if err := reg.InitAll(context.Background(), cfg, nil); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}
	if p.initCall != 0 {
		t.Errorf("disabled plugin Init called %d times, want 0", p.initCall)
	}
	if !reg.IsDisabled("vault") {
		t.Error("expected plugin 'vault' to be disabled")
	}
	if len(reg.All()) != 0 {
		t.Errorf("All() returned %d plugins, want 0", len(reg.All()))
	}
}

func TestInitAllFails(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	p := newTestPlugin("a")
	p.initErr = errors.New("init failed")
	reg.Register(p)

	cfg := testConfig(map[string]any{"plugins.a.enabled": true})
	if err := reg.InitAll(context.Background(), cfg, nil); err == nil {
		t.Fatal("InitAll() expected error, got nil")
	}
}

func TestStartAllStopAll(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	a := newTestPlugin("a")
	b := newTestPlugin("b")
	reg.Register(a)
	reg.Register(b)

	cfg := testConfig(map[string]any{"plugins.a.enabled": true, "plugins.b.enabled": false})
	reg.InitAll(context.Background(), cfg, nil)

	if err := reg.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}
	reg.StopAll()

	if !a.started || !a.stopped {
		t.Errorf("enabled plugin started=%v stopped=%v, want both true", a.started, a.stopped)
	}
	if b.started || b.stopped {
		t.Errorf("disabled plugin started=%v stopped=%v, want both false", b.started, b.stopped)
	}
}

func TestGet(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(newTestPlugin("a"))

	if _, ok := reg.Get("a"); !ok {
		t.Error("Get('a') returned false, want true")
	}
	if _, ok := reg.Get("nonexistent"); ok {
		t.Error("Get('nonexistent') returned true, want false")
	}
}

func TestAllRoutes(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	web := newTestPlugin("web")
	web.routes = []Route{{Method: "GET", Path: "/test"}}
	reg.Register(web)
	reg.Register(newTestPlugin("noroutes"))

	cfg := testConfig(map[string]any{"plugins.web.enabled": true, "plugins.noroutes.enabled": true})
	reg.InitAll(context.Background(), cfg, nil)

	routes := reg.AllRoutes()
	if len(routes) != 1 {
		t.Fatalf("AllRoutes() returned %d plugin route sets, want 1", len(routes))
	}
	if _, ok := routes["web"]; !ok {
		t.Error("AllRoutes() missing 'web' routes")
	}
}
