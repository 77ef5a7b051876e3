package restconf

import (
	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/pkg/models"
	"go.uber.org/zap"
)

// Factory builds RESTCONF drivers from the credential store.
type Factory struct {
	lookup driver.CredentialLookup
	opts   Options
	logger *zap.Logger
}

// Compile-time interface guard.
var _ driver.Factory = (*Factory)(nil)

// NewFactory returns a Factory resolving credentials through lookup.
func NewFactory(lookup driver.CredentialLookup, opts Options, logger *zap.Logger) *Factory {
	return &Factory{lookup: lookup, opts: opts, logger: logger}
}

func (f *Factory) Protocol() string { return models.ProtocolRESTCONF }

// New returns a driver for addr, or ErrDeviceNotHandled without credentials.
func (f *Factory) New(addr string) (driver.Driver, error) {
	creds, err := driver.Credentials(f.lookup, addr)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("create restconf driver", zap.String("device", addr))
	return New(addr, creds, f.opts, f.logger), nil
}
