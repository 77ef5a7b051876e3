package sshcli

import (
	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/pkg/models"
	"go.uber.org/zap"
)

// Factory builds SSH drivers from the credential store.
type Factory struct {
	lookup driver.CredentialLookup
	dial   Dialer
	logger *zap.Logger
}

// Compile-time interface guard.
var _ driver.Factory = (*Factory)(nil)

// NewFactory returns a Factory that dials real SSH sessions.
func NewFactory(lookup driver.CredentialLookup, opts Options, logger *zap.Logger) *Factory {
	return NewFactoryWithDialer(lookup, NewDialer(opts), logger)
}

// NewFactoryWithDialer returns a Factory that opens sessions through dial.
func NewFactoryWithDialer(lookup driver.CredentialLookup, dial Dialer, logger *zap.Logger) *Factory {
	return &Factory{lookup: lookup, dial: dial, logger: logger}
}

func (f *Factory) Protocol() string { return models.ProtocolSSH }

// New returns a driver for addr, or ErrDeviceNotHandled without credentials.
func (f *Factory) New(addr string) (driver.Driver, error) {
	creds, err := driver.Credentials(f.lookup, addr)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("create ssh driver", zap.String("device", addr))
	return New(addr, creds, f.dial, f.logger), nil
}
