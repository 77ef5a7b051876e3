package switchport

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HerbHall/switchconnector/internal/audit"
	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/internal/driver/drivertest"
	"github.com/HerbHall/switchconnector/internal/ifname"
	"github.com/HerbHall/switchconnector/internal/metrics"
	"github.com/HerbHall/switchconnector/internal/testutil"
	"github.com/HerbHall/switchconnector/internal/vlan"
	"github.com/HerbHall/switchconnector/pkg/models"
)

const testDevice = "10.0.0.1"

type fixture struct {
	svc       *Service
	primary   *drivertest.Driver
	secondary *drivertest.Driver
	pf, sf    *drivertest.Factory
	trail     *audit.Trail
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		primary:   &drivertest.Driver{},
		secondary: &drivertest.Driver{},
		pf:        drivertest.NewFactory(models.ProtocolRESTCONF),
		sf:        drivertest.NewFactory(models.ProtocolSSH),
		metrics:   metrics.New(),
	}
	f.pf.Set(testDevice, f.primary)
	f.sf.Set(testDevice, f.secondary)

	trail, err := audit.New(context.Background(), testutil.NewStore(t), testutil.NewClock().Now)
	require.NoError(t, err)
	f.trail = trail

	logger := zap.NewNop()
	f.svc = NewService(NewCache(f.pf, logger), NewCache(f.sf, logger), f.metrics, trail, logger)
	return f
}

func transportErr(protocol string, kind driver.Kind) error {
	return &driver.TransportError{Protocol: protocol, Op: "test", Kind: kind, Err: errors.New(string(kind))}
}

func TestHardwareInfoPrimarySucceeds(t *testing.T) {
	f := newFixture(t)
	f.primary.HardwareInfoFn = func(context.Context) (models.HardwareInfo, error) {
		return testutil.NewHardwareInfo(testutil.WithProtocol("")), nil
	}

	got, err := f.svc.HardwareInfo(context.Background(), testDevice)
	require.NoError(t, err)
	assert.Equal(t, models.ProtocolRESTCONF, got.ManagementProtocol)
	assert.Equal(t, "lab-sw1", got.Hostname)
	assert.Zero(t, f.secondary.TotalCalls())
}

func TestHardwareInfoFallsBackToSecondary(t *testing.T) {
	f := newFixture(t)
	f.primary.HardwareInfoFn = func(context.Context) (models.HardwareInfo, error) {
		return models.HardwareInfo{}, transportErr(models.ProtocolRESTCONF, driver.KindStatus)
	}
	f.secondary.HardwareInfoFn = func(context.Context) (models.HardwareInfo, error) {
		return testutil.NewHardwareInfo(testutil.WithProtocol("")), nil
	}

	got, err := f.svc.HardwareInfo(context.Background(), testDevice)
	require.NoError(t, err)
	assert.Equal(t, models.ProtocolSSH, got.ManagementProtocol)
	assert.Equal(t, 1, f.primary.Calls("hardware"))
	assert.Equal(t, 1, f.secondary.Calls("hardware"))
}

func TestAnyPrimaryErrorTriggersFallback(t *testing.T) {
	for _, perr := range []error{
		transportErr(models.ProtocolRESTCONF, driver.KindAuth),
		transportErr(models.ProtocolRESTCONF, driver.KindConnect),
		transportErr(models.ProtocolRESTCONF, driver.KindParse),
		errors.New("plain failure"),
	} {
		t.Run(perr.Error(), func(t *testing.T) {
			f := newFixture(t)
			f.primary.VlansFn = func(context.Context) ([]models.Vlan, error) { return nil, perr }
			f.secondary.VlansFn = func(context.Context) ([]models.Vlan, error) {
				return models.WithDefaultVLAN(testutil.LabVlans()), nil
			}

			got, err := f.svc.Vlans(context.Background(), testDevice)
			require.NoError(t, err)
			assert.Len(t, got, 4)
		})
	}
}

func TestSecondaryUnreachableIsTransportTimeout(t *testing.T) {
	for _, kind := range []driver.Kind{driver.KindAuth, driver.KindConnect} {
		t.Run(string(kind), func(t *testing.T) {
			f := newFixture(t)
			f.primary.HostnameFn = func(context.Context) (string, error) {
				return "", transportErr(models.ProtocolRESTCONF, driver.KindConnect)
			}
			f.secondary.HostnameFn = func(context.Context) (string, error) {
				return "", transportErr(models.ProtocolSSH, kind)
			}

			_, err := f.svc.Hostname(context.Background(), testDevice)
			require.ErrorIs(t, err, ErrTransportTimeout)
			assert.Contains(t, err.Error(), testDevice)
		})
	}
}

func TestSecondaryOtherErrorPropagatesUnchanged(t *testing.T) {
	f := newFixture(t)
	boom := transportErr(models.ProtocolSSH, driver.KindTimeout)
	f.primary.InterfaceConfigFn = func(context.Context, string) (models.SwitchportConfig, error) {
		return models.SwitchportConfig{}, errors.New("restconf down")
	}
	f.secondary.InterfaceConfigFn = func(context.Context, string) (models.SwitchportConfig, error) {
		return models.SwitchportConfig{}, boom
	}

	_, err := f.svc.InterfaceConfig(context.Background(), testDevice, "Gi1/0/1")
	assert.Same(t, boom, err)
	assert.NotErrorIs(t, err, ErrTransportTimeout)
}

func TestRejectionIsReturnedWithoutFallback(t *testing.T) {
	f := newFixture(t)
	f.primary.UntagInterfaceFn = func(context.Context, string, int) error {
		return driver.Reject(http.StatusBadGateway, "Interface Gi1/0/1 on device %s not in trunk mode.", testDevice)
	}

	err := f.svc.UntagInterface(context.Background(), testDevice, "Gi1/0/1", 10)
	rej, ok := driver.AsRejection(err)
	require.True(t, ok, "want a rejection, got %v", err)
	assert.Equal(t, http.StatusBadGateway, rej.Status)
	assert.Zero(t, f.secondary.TotalCalls())

	entries, err := f.trail.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.OutcomeRejected, entries[0].Outcome)
	assert.Equal(t, models.ProtocolRESTCONF, entries[0].Protocol)
}

func TestInvalidModeTouchesNoTransport(t *testing.T) {
	f := newFixture(t)

	err := f.svc.SetInterfaceMode(context.Background(), testDevice, "Gi1/0/1", "routed")
	require.ErrorIs(t, err, ErrInvalidMode)
	assert.Zero(t, f.primary.TotalCalls())
	assert.Zero(t, f.secondary.TotalCalls())
	assert.Zero(t, f.pf.Builds(testDevice))
}

func TestInvalidInputTouchesNoTransport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.TagInterface(ctx, testDevice, "Gi1/0/1", "10-5", false)
	assert.ErrorIs(t, err, vlan.ErrInvalidRangeSyntax)

	_, err = f.svc.TagInterface(ctx, testDevice, "Gi1/0/1", "4095", false)
	assert.ErrorIs(t, err, vlan.ErrOutOfRange)

	err = f.svc.UntagInterface(ctx, testDevice, "Gi1/0/1", 0)
	assert.ErrorIs(t, err, vlan.ErrOutOfRange)

	_, err = f.svc.InterfaceConfig(ctx, testDevice, "Xx1/0/1")
	assert.ErrorIs(t, err, ifname.ErrUnknownInterfaceType)

	assert.Zero(t, f.primary.TotalCalls())
	assert.Zero(t, f.secondary.TotalCalls())
}

func TestTagEmptyVlanSetTouchesNoTransport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, vlans := range []string{"", "   "} {
		for _, appendVlans := range []bool{false, true} {
			_, err := f.svc.TagInterface(ctx, testDevice, "Gi1/0/1", vlans, appendVlans)
			assert.ErrorIs(t, err, vlan.ErrInvalidRangeSyntax, "vlans %q append %v", vlans, appendVlans)
		}
	}

	assert.Zero(t, f.primary.TotalCalls())
	assert.Zero(t, f.secondary.TotalCalls())
	entries, err := f.trail.List(ctx, audit.Filter{Device: testDevice})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnknownDeviceIsNotHandled(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.HardwareInfo(context.Background(), "10.9.9.9")
	require.ErrorIs(t, err, driver.ErrDeviceNotHandled)
	assert.NotErrorIs(t, err, ErrTransportTimeout)
}

func TestTagRecordsProtocolThatApplied(t *testing.T) {
	f := newFixture(t)
	f.primary.TagInterfaceFn = func(context.Context, string, string, bool) (models.TagResult, error) {
		return models.TagResult{}, transportErr(models.ProtocolRESTCONF, driver.KindStatus)
	}
	f.secondary.TagInterfaceFn = func(_ context.Context, _ string, vlans string, appendVlans bool) (models.TagResult, error) {
		assert.True(t, appendVlans)
		return models.TagResult{Mode: models.ModeTrunk, Vlans: "1-" + vlans}, nil
	}

	got, err := f.svc.TagInterface(context.Background(), testDevice, "Gi1/0/1", "20", true)
	require.NoError(t, err)
	assert.Equal(t, models.TagResult{Mode: models.ModeTrunk, Vlans: "1-20"}, got)

	entries, err := f.trail.List(context.Background(), audit.Filter{Device: testDevice})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.OpTag, entries[0].Operation)
	assert.Equal(t, models.ProtocolSSH, entries[0].Protocol)
	assert.Equal(t, audit.OutcomeApplied, entries[0].Outcome)
	assert.Equal(t, "Gi1/0/1", entries[0].Interface)
}

func TestReadsAreNotAudited(t *testing.T) {
	f := newFixture(t)
	f.primary.HostnameFn = func(context.Context) (string, error) { return "lab-sw1", nil }

	_, err := f.svc.Hostname(context.Background(), testDevice)
	require.NoError(t, err)

	entries, err := f.trail.List(context.Background(), audit.Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDriversAreReusedAcrossCalls(t *testing.T) {
	f := newFixture(t)
	f.primary.HostnameFn = func(context.Context) (string, error) { return "lab-sw1", nil }

	for range 3 {
		_, err := f.svc.Hostname(context.Background(), testDevice)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.pf.Builds(testDevice))
	assert.Zero(t, f.sf.Builds(testDevice))
}
