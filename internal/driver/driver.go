// Package driver defines the operations every switch management transport
// implements and the failure taxonomy the fallback orchestrator inspects.
package driver

import (
	"context"
	"fmt"

	"github.com/HerbHall/switchconnector/internal/vault"
	"github.com/HerbHall/switchconnector/pkg/models"
)

// Driver executes switch operations against one device over one transport.
// Interface names may be abbreviated; drivers normalize them.
type Driver interface {
	Hostname(ctx context.Context) (string, error)
	HardwareInfo(ctx context.Context) (models.HardwareInfo, error)
	InterfaceConfig(ctx context.Context, iface string) (models.SwitchportConfig, error)
	Vlans(ctx context.Context) ([]models.Vlan, error)
	SetInterfaceMode(ctx context.Context, iface string, mode models.SwitchportMode) error
	// TagInterface sets the VLAN membership of iface to vlans, or adds vlans to
	// the current membership when appendVlans is true (trunk ports only).
	TagInterface(ctx context.Context, iface, vlans string, appendVlans bool) (models.TagResult, error)
	UntagInterface(ctx context.Context, iface string, vlanID int) error
	// Close releases resources held for the device.
	Close() error
}

// Factory builds drivers for a single protocol.
type Factory interface {
	// Protocol names the transport, e.g. models.ProtocolRESTCONF.
	Protocol() string
	// New returns a driver for addr, or an error wrapping ErrDeviceNotHandled
	// when no credentials are known for it.
	New(addr string) (Driver, error)
}

// CredentialLookup resolves the credentials of a device address.
type CredentialLookup func(addr string) (vault.Credentials, bool)

// Credentials resolves addr through lookup, failing with ErrDeviceNotHandled
// when the address is absent.
func Credentials(lookup CredentialLookup, addr string) (vault.Credentials, error) {
	if lookup == nil {
		return vault.Credentials{}, NotHandled(addr)
	}
	c, ok := lookup(addr)
	if !ok {
		return vault.Credentials{}, NotHandled(addr)
	}
	return c, nil
}

// NotHandled returns the DeviceNotHandled error for addr.
func NotHandled(addr string) error {
	return fmt.Errorf("%w: credentials for device %s not available", ErrDeviceNotHandled, addr)
}
