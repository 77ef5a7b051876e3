// Package switchport runs switch operations over RESTCONF with SSH as the
// fallback transport, and exposes them as the "switches" plugin.
package switchport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/switchconnector/internal/audit"
	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/internal/ifname"
	"github.com/HerbHall/switchconnector/internal/metrics"
	"github.com/HerbHall/switchconnector/internal/vlan"
	"github.com/HerbHall/switchconnector/pkg/models"
)

var (
	// ErrTransportTimeout means the secondary transport could not log in to
	// or connect to the device after the primary had already failed.
	ErrTransportTimeout = errors.New("device did not answer on any management protocol")
	// ErrInvalidMode is a switchport mode other than access or trunk.
	ErrInvalidMode = errors.New("invalid switchport mode")
)

// Operation names used in logs, metrics and the audit trail.
const (
	opHostname   = "hostname"
	opHardware   = "hardware"
	opSwitchport = "switchport"
	opVlans      = "vlans"
	opSetMode    = audit.OpSetMode
	opTag        = audit.OpTag
	opUntag      = audit.OpUntag
)

// Recorder persists write operations.
type Recorder interface {
	Record(ctx context.Context, e audit.Entry) (audit.Entry, error)
}

// Service is the fallback orchestrator. Every operation is tried on the
// primary transport and, on any failure, once on the secondary.
type Service struct {
	primary   *Cache
	secondary *Cache
	metrics   *metrics.Metrics
	audit     Recorder
	logger    *zap.Logger
}

// NewService returns a Service. metrics and rec may be nil.
func NewService(primary, secondary *Cache, m *metrics.Metrics, rec Recorder, logger *zap.Logger) *Service {
	return &Service{
		primary:   primary,
		secondary: secondary,
		metrics:   m,
		audit:     rec,
		logger:    logger,
	}
}

// Hostname returns the configured hostname of the device.
func (s *Service) Hostname(ctx context.Context, addr string) (string, error) {
	host, _, err := attempt(ctx, s, addr, opHostname, func(d driver.Driver) (string, error) {
		return d.Hostname(ctx)
	})
	return host, err
}

// HardwareInfo returns the identity of the device, tagged with the transport
// that produced it.
func (s *Service) HardwareInfo(ctx context.Context, addr string) (models.HardwareInfo, error) {
	info, protocol, err := attempt(ctx, s, addr, opHardware, func(d driver.Driver) (models.HardwareInfo, error) {
		return d.HardwareInfo(ctx)
	})
	if err != nil {
		return models.HardwareInfo{}, err
	}
	info.ManagementProtocol = protocol
	return info, nil
}

// InterfaceConfig returns the switchport configuration of iface.
func (s *Service) InterfaceConfig(ctx context.Context, addr, iface string) (models.SwitchportConfig, error) {
	if err := checkInterface(iface); err != nil {
		return models.SwitchportConfig{}, err
	}
	cfg, _, err := attempt(ctx, s, addr, opSwitchport, func(d driver.Driver) (models.SwitchportConfig, error) {
		return d.InterfaceConfig(ctx, iface)
	})
	return cfg, err
}

// Vlans returns the VLAN catalogue of the device, default VLAN included.
func (s *Service) Vlans(ctx context.Context, addr string) ([]models.Vlan, error) {
	vlans, _, err := attempt(ctx, s, addr, opVlans, func(d driver.Driver) ([]models.Vlan, error) {
		return d.Vlans(ctx)
	})
	return vlans, err
}

// SetInterfaceMode changes the switchport mode of iface. An invalid mode
// fails with ErrInvalidMode before any transport is tried.
func (s *Service) SetInterfaceMode(ctx context.Context, addr, iface string, mode models.SwitchportMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q, must be %q or %q", ErrInvalidMode, mode, models.ModeAccess, models.ModeTrunk)
	}
	if err := checkInterface(iface); err != nil {
		return err
	}
	_, protocol, err := attempt(ctx, s, addr, opSetMode, func(d driver.Driver) (struct{}, error) {
		return struct{}{}, d.SetInterfaceMode(ctx, iface, mode)
	})
	s.record(ctx, addr, iface, opSetMode, protocol, "mode "+string(mode), err)
	return err
}

// TagInterface sets or extends the VLAN membership of iface.
func (s *Service) TagInterface(ctx context.Context, addr, iface, vlans string, appendVlans bool) (models.TagResult, error) {
	if err := checkInterface(iface); err != nil {
		return models.TagResult{}, err
	}
	ranges, err := vlan.Parse(vlans)
	if err != nil {
		return models.TagResult{}, err
	}
	if len(ranges) == 0 {
		return models.TagResult{}, fmt.Errorf("%w: no vlans given", vlan.ErrInvalidRangeSyntax)
	}
	if err := vlan.Validate(ranges); err != nil {
		return models.TagResult{}, err
	}
	res, protocol, err := attempt(ctx, s, addr, opTag, func(d driver.Driver) (models.TagResult, error) {
		return d.TagInterface(ctx, iface, vlans, appendVlans)
	})
	detail := "vlans " + vlans
	if appendVlans {
		detail = "append vlans " + vlans
	}
	s.record(ctx, addr, iface, opTag, protocol, detail, err)
	return res, err
}

// UntagInterface removes vlanID from the allowed VLANs of trunk iface.
func (s *Service) UntagInterface(ctx context.Context, addr, iface string, vlanID int) error {
	if err := checkInterface(iface); err != nil {
		return err
	}
	if err := vlan.ValidateID(vlanID); err != nil {
		return err
	}
	_, protocol, err := attempt(ctx, s, addr, opUntag, func(d driver.Driver) (struct{}, error) {
		return struct{}{}, d.UntagInterface(ctx, iface, vlanID)
	})
	s.record(ctx, addr, iface, opUntag, protocol, fmt.Sprintf("vlan %d", vlanID), err)
	return err
}

// checkInterface rejects names neither transport could address.
func checkInterface(iface string) error {
	_, err := ifname.ToCanonical(iface)
	return err
}

// attempt runs call on the primary transport, then on the secondary when the
// primary fails. It returns the result and the protocol that produced it.
//
// A Rejection from either transport is the answer and is returned as is. When
// the secondary cannot log in or connect the result is ErrTransportTimeout;
// any other secondary failure is returned unchanged.
func attempt[T any](ctx context.Context, s *Service, addr, op string, call func(driver.Driver) (T, error)) (T, string, error) {
	var zero T
	start := time.Now()
	defer func() { s.metrics.ObserveDuration(op, time.Since(start)) }()

	log := s.logger.With(zap.String("device", addr), zap.String("operation", op))

	res, err := try(s, s.primary, addr, op, call)
	if err == nil {
		return res, s.primary.Protocol(), nil
	}
	if errors.Is(err, driver.ErrDeviceNotHandled) {
		return zero, "", err
	}
	if rej, ok := driver.AsRejection(err); ok {
		return zero, s.primary.Protocol(), rej
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, "", ctxErr
	}

	log.Error("primary transport failed",
		zap.String("protocol", s.primary.Protocol()),
		zap.Error(err),
	)
	log.Debug("falling back", zap.String("protocol", s.secondary.Protocol()))
	s.metrics.ObserveFallback(op)

	res, err = try(s, s.secondary, addr, op, call)
	if err == nil {
		return res, s.secondary.Protocol(), nil
	}
	if errors.Is(err, driver.ErrDeviceNotHandled) {
		return zero, "", err
	}
	if rej, ok := driver.AsRejection(err); ok {
		return zero, s.secondary.Protocol(), rej
	}

	log.Error("secondary transport failed",
		zap.String("protocol", s.secondary.Protocol()),
		zap.Error(err),
	)
	if driver.IsUnreachable(err) {
		log.Debug("timeout", zap.String("protocol", s.secondary.Protocol()))
		return zero, "", fmt.Errorf("%w: device %s: %v", ErrTransportTimeout, addr, err)
	}
	return zero, "", err
}

// try runs call against the driver cached in c for addr and counts the
// attempt.
func try[T any](s *Service, c *Cache, addr, op string, call func(driver.Driver) (T, error)) (T, error) {
	var zero T
	d, err := c.Get(addr)
	if err != nil {
		if !errors.Is(err, driver.ErrDeviceNotHandled) {
			s.metrics.ObserveAttempt(c.Protocol(), op, outcome(err))
		}
		return zero, err
	}
	res, err := call(d)
	s.metrics.ObserveAttempt(c.Protocol(), op, outcome(err))
	return res, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case driver.IsUnreachable(err):
		return metrics.OutcomeUnreachable
	}
	if _, ok := driver.AsRejection(err); ok {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}

// record adds a write operation to the audit trail. Audit failures are
// logged and never fail the operation.
func (s *Service) record(ctx context.Context, addr, iface, op, protocol, detail string, err error) {
	if s.audit == nil || errors.Is(err, driver.ErrDeviceNotHandled) {
		return
	}
	e := audit.Entry{
		Device:    addr,
		Interface: iface,
		Operation: op,
		Protocol:  protocol,
		Outcome:   audit.OutcomeApplied,
		Detail:    detail,
	}
	if err != nil {
		e.Outcome = audit.OutcomeFailed
		if _, ok := driver.AsRejection(err); ok {
			e.Outcome = audit.OutcomeRejected
		}
		e.Detail = detail + ": " + err.Error()
	}
	if _, rerr := s.audit.Record(context.WithoutCancel(ctx), e); rerr != nil {
		s.logger.Warn("record audit entry",
			zap.String("device", addr),
			zap.String("operation", op),
			zap.Error(rerr),
		)
	}
}
