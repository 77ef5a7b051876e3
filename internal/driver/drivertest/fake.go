// Package drivertest provides in-memory drivers for testing code built on
// the driver package.
package drivertest

import (
	"context"
	"errors"
	"sync"

	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/pkg/models"
)

// ErrNotConfigured is returned by a Driver method with no behaviour set.
var ErrNotConfigured = errors.New("drivertest: operation not configured")

// Driver is a driver.Driver whose operations are plain funcs. Unset funcs
// fail with ErrNotConfigured. Every call is counted by operation name.
type Driver struct {
	HostnameFn         func(ctx context.Context) (string, error)
	HardwareInfoFn     func(ctx context.Context) (models.HardwareInfo, error)
	InterfaceConfigFn  func(ctx context.Context, iface string) (models.SwitchportConfig, error)
	VlansFn            func(ctx context.Context) ([]models.Vlan, error)
	SetInterfaceModeFn func(ctx context.Context, iface string, mode models.SwitchportMode) error
	TagInterfaceFn     func(ctx context.Context, iface, vlans string, appendVlans bool) (models.TagResult, error)
	UntagInterfaceFn   func(ctx context.Context, iface string, vlanID int) error

	mu     sync.Mutex
	calls  map[string]int
	closed bool
}

// Compile-time interface guard.
var _ driver.Driver = (*Driver)(nil)

func (d *Driver) record(op string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calls == nil {
		d.calls = make(map[string]int)
	}
	d.calls[op]++
}

// Calls returns how often op was invoked.
func (d *Driver) Calls(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op]
}

// TotalCalls returns the number of operation calls, Close excluded.
func (d *Driver) TotalCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		n += c
	}
	return n
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *Driver) Hostname(ctx context.Context) (string, error) {
	d.record("hostname")
	if d.HostnameFn == nil {
		return "", ErrNotConfigured
	}
	return d.HostnameFn(ctx)
}

func (d *Driver) HardwareInfo(ctx context.Context) (models.HardwareInfo, error) {
	d.record("hardware")
	if d.HardwareInfoFn == nil {
		return models.HardwareInfo{}, ErrNotConfigured
	}
	return d.HardwareInfoFn(ctx)
}

func (d *Driver) InterfaceConfig(ctx context.Context, iface string) (models.SwitchportConfig, error) {
	d.record("switchport")
	if d.InterfaceConfigFn == nil {
		return models.SwitchportConfig{}, ErrNotConfigured
	}
	return d.InterfaceConfigFn(ctx, iface)
}

func (d *Driver) Vlans(ctx context.Context) ([]models.Vlan, error) {
	d.record("vlans")
	if d.VlansFn == nil {
		return nil, ErrNotConfigured
	}
	return d.VlansFn(ctx)
}

func (d *Driver) SetInterfaceMode(ctx context.Context, iface string, mode models.SwitchportMode) error {
	d.record("set_mode")
	if d.SetInterfaceModeFn == nil {
		return ErrNotConfigured
	}
	return d.SetInterfaceModeFn(ctx, iface, mode)
}

func (d *Driver) TagInterface(ctx context.Context, iface, vlans string, appendVlans bool) (models.TagResult, error) {
	d.record("tag")
	if d.TagInterfaceFn == nil {
		return models.TagResult{}, ErrNotConfigured
	}
	return d.TagInterfaceFn(ctx, iface, vlans, appendVlans)
}

func (d *Driver) UntagInterface(ctx context.Context, iface string, vlanID int) error {
	d.record("untag")
	if d.UntagInterfaceFn == nil {
		return ErrNotConfigured
	}
	return d.UntagInterfaceFn(ctx, iface, vlanID)
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Factory hands out one Driver per address. Addresses without a driver fail
// with driver.ErrDeviceNotHandled.
type Factory struct {
	Name string

	mu      sync.Mutex
	drivers map[string]*Driver
	builds  map[string]int
}

// Compile-time interface guard.
var _ driver.Factory = (*Factory)(nil)

// NewFactory returns an empty Factory for protocol.
func NewFactory(protocol string) *Factory {
	return &Factory{
		Name:    protocol,
		drivers: make(map[string]*Driver),
		builds:  make(map[string]int),
	}
}

// Set makes New(addr) return d.
func (f *Factory) Set(addr string, d *Driver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drivers[addr] = d
}

// Remove makes New(addr) fail with DeviceNotHandled.
func (f *Factory) Remove(addr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drivers, addr)
}

// Builds returns how many drivers were constructed for addr.
func (f *Factory) Builds(addr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.builds[addr]
}

func (f *Factory) Protocol() string { return f.Name }

func (f *Factory) New(addr string) (driver.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[addr]
	if !ok {
		return nil, driver.NotHandled(addr)
	}
	f.builds[addr]++
	return d, nil
}
