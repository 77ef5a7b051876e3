package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HerbHall/switchconnector/internal/config"
	"github.com/HerbHall/switchconnector/internal/plugin"
	"github.com/HerbHall/switchconnector/internal/testutil"
	pkgplugin "github.com/HerbHall/switchconnector/pkg/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPlugin(t *testing.T, inventoryFile string) (*Plugin, *testutil.MockBus) {
	t.Helper()
	bus := testutil.NewMockBus()
	p := New(NewStore(), inventoryFile)
	require.NoError(t, p.Init(context.Background(), plugin.Dependencies{
		Config: config.New(nil),
		Logger: zap.NewNop(),
		Bus:    bus,
	}))
	return p, bus
}

func TestHandleReplaceInventory(t *testing.T) {
	p, bus := newTestPlugin(t, "")

	body := `[{"ip":"10.0.0.1","username":"admin","password":"secret"}]`
	req := httptest.NewRequest(http.MethodPut, "/inventory", strings.NewReader(body))
	rec := httptest.NewRecorder()
	p.handleReplaceInventory(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	c, ok := p.store.Lookup("10.0.0.1")
	require.True(t, ok)
	assert.Equal(t, "admin", c.Username)

	events := bus.Events()
	require.Len(t, events, 1)
	assert.Equal(t, TopicInventoryReplaced, events[0].Topic)
	payload, ok := events[0].Payload.(InventoryReplacedEvent)
	require.True(t, ok)
	assert.Equal(t, []string{"10.0.0.1"}, payload.Changed)
	assert.Equal(t, 1, payload.Total)
}

func TestHandleReplaceInventoryRejectsNonJSON(t *testing.T) {
	p, bus := newTestPlugin(t, "")

	req := httptest.NewRequest(http.MethodPut, "/inventory", strings.NewReader("ip=10.0.0.1"))
	rec := httptest.NewRecorder()
	p.handleReplaceInventory(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Empty(t, bus.Events())
}

func TestHandleReplaceInventoryRejectsBadAddress(t *testing.T) {
	p, _ := newTestPlugin(t, "")

	body := `[{"ip":"switch-1","username":"admin","password":"secret"}]`
	req := httptest.NewRequest(http.MethodPut, "/inventory", strings.NewReader(body))
	rec := httptest.NewRecorder()
	p.handleReplaceInventory(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, p.store.Len())
}

func TestHandleListInventoryOmitsPasswords(t *testing.T) {
	p, _ := newTestPlugin(t, "")
	_, err := p.store.ReplaceAll([]Entry{{Address: "10.0.0.1", Username: "admin", Password: "secret"}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	p.handleListInventory(rec, httptest.NewRequest(http.MethodGet, "/inventory", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")

	var resp inventoryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []string{"10.0.0.1"}, resp.Devices)
	assert.Equal(t, 1, resp.Count)
}

func TestStartLoadsInventoryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.yaml")
	require.NoError(t, os.WriteFile(path, []byte("devices:\n  - ip: 10.0.0.5\n    username: u\n    password: p\n"), 0o600))

	p, bus := newTestPlugin(t, path)
	require.NoError(t, p.Start(context.Background()))

	_, ok := p.store.Lookup("10.0.0.5")
	assert.True(t, ok)
	assert.Len(t, bus.Events(), 1)
}

func TestHealth(t *testing.T) {
	p, _ := newTestPlugin(t, "")
	assert.Equal(t, pkgplugin.StatusDegraded, p.Health(context.Background()).Status)

	_, err := p.store.ReplaceAll([]Entry{{Address: "10.0.0.1"}})
	require.NoError(t, err)
	h := p.Health(context.Background())
	assert.Equal(t, pkgplugin.StatusHealthy, h.Status)
	assert.Equal(t, "1", h.Details["devices"])
}
