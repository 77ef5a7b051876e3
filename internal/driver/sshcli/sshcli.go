// Package sshcli implements the switch driver over an interactive IOS
// command line reached by SSH. A session is opened and closed per call.
package sshcli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/internal/ifname"
	"github.com/HerbHall/switchconnector/internal/vault"
	"github.com/HerbHall/switchconnector/pkg/models"
	"go.uber.org/zap"
)

// Client is an SSH driver bound to one device.
type Client struct {
	addr   string
	creds  vault.Credentials
	dial   Dialer
	logger *zap.Logger
}

// Compile-time interface guard.
var _ driver.Driver = (*Client)(nil)

// New returns a driver for addr that opens sessions through dial.
func New(addr string, creds vault.Credentials, dial Dialer, logger *zap.Logger) *Client {
	return &Client{
		addr:   addr,
		creds:  creds,
		dial:   dial,
		logger: logger.With(zap.String("device", addr)),
	}
}

// Close is a no-op; sessions do not outlive a call.
func (c *Client) Close() error {
	return nil
}

func (c *Client) withShell(ctx context.Context, fn func(Shell) error) error {
	sh, err := c.dial(ctx, c.addr, c.creds)
	if err != nil {
		return err
	}
	defer func() {
		if err := sh.Close(); err != nil {
			c.logger.Debug("closing ssh session", zap.Error(err))
		}
	}()
	return fn(sh)
}

// run executes a command and turns a missing prompt or an IOS error
// message into a TransportError.
func (c *Client) run(ctx context.Context, sh Shell, op, cmd string) (string, error) {
	out, err := sh.Run(ctx, cmd)
	if err != nil {
		return "", c.fail(op, driver.KindTimeout, fmt.Errorf("%s: %w", cmd, err))
	}
	if msg, bad := commandError(out); bad {
		return "", c.fail(op, driver.KindCommand, fmt.Errorf("%s: %s", cmd, msg))
	}
	return out, nil
}

// configure applies lines to iface in configuration mode. The first failing
// line aborts the rest and leaves configuration mode.
func (c *Client) configure(ctx context.Context, sh Shell, op string, iface ifname.Name, lines ...string) error {
	if _, err := c.run(ctx, sh, op, "configure terminal"); err != nil {
		return err
	}
	lines = append([]string{"interface " + iface.String()}, lines...)
	for _, line := range lines {
		if _, err := c.run(ctx, sh, op, line); err != nil {
			if _, endErr := sh.Run(ctx, "end"); endErr != nil {
				c.logger.Warn("leaving configuration mode", zap.Error(endErr))
			}
			return err
		}
	}
	_, err := c.run(ctx, sh, op, "end")
	return err
}

func (c *Client) fail(op string, kind driver.Kind, err error) error {
	return &driver.TransportError{Protocol: models.ProtocolSSH, Op: op, Kind: kind, Err: err}
}

// Hostname reads the hostname from the running configuration.
func (c *Client) Hostname(ctx context.Context) (string, error) {
	var hostname string
	err := c.withShell(ctx, func(sh Shell) error {
		out, err := c.run(ctx, sh, "hostname", "show running-config | include ^hostname")
		if err != nil {
			return err
		}
		hostname, err = parseHostname(out)
		if err != nil {
			return c.fail("hostname", driver.KindParse, err)
		}
		return nil
	})
	return hostname, err
}

// HardwareInfo parses "show version".
func (c *Client) HardwareInfo(ctx context.Context) (models.HardwareInfo, error) {
	var info models.HardwareInfo
	err := c.withShell(ctx, func(sh Shell) error {
		out, err := c.run(ctx, sh, "hardware", "show version")
		if err != nil {
			return err
		}
		c.logger.Debug("show version", zap.String("output", out))
		info = parseShowVersion(out)
		info.ManagementProtocol = models.ProtocolSSH
		return nil
	})
	return info, err
}

// InterfaceConfig parses "show interfaces <iface> switchport".
func (c *Client) InterfaceConfig(ctx context.Context, iface string) (models.SwitchportConfig, error) {
	name, err := ifname.ToCanonical(iface)
	if err != nil {
		return models.SwitchportConfig{}, err
	}
	var cfg models.SwitchportConfig
	err = c.withShell(ctx, func(sh Shell) error {
		cfg, err = c.interfaceConfig(ctx, sh, name)
		return err
	})
	return cfg, err
}

func (c *Client) interfaceConfig(ctx context.Context, sh Shell, name ifname.Name) (models.SwitchportConfig, error) {
	out, err := c.run(ctx, sh, "switchport", "show interfaces "+name.String()+" switchport")
	if err != nil {
		return models.SwitchportConfig{}, err
	}
	cfg, err := parseSwitchport(out)
	if err != nil {
		return models.SwitchportConfig{}, c.fail("switchport", driver.KindParse, err)
	}
	return cfg, nil
}

// Vlans parses "show vlan brief".
func (c *Client) Vlans(ctx context.Context) ([]models.Vlan, error) {
	var vlans []models.Vlan
	err := c.withShell(ctx, func(sh Shell) error {
		out, err := c.run(ctx, sh, "vlans", "show vlan brief")
		if err != nil {
			return err
		}
		vlans = models.WithDefaultVLAN(parseVlanBrief(out))
		return nil
	})
	return vlans, err
}

// SetInterfaceMode issues "switchport mode <mode>" on iface.
func (c *Client) SetInterfaceMode(ctx context.Context, iface string, mode models.SwitchportMode) error {
	if !mode.Valid() {
		return driver.Reject(http.StatusBadRequest,
			"Interface switchport mode [%s] invalid. Must be trunk or access.", mode)
	}
	name, err := ifname.ToCanonical(iface)
	if err != nil {
		return err
	}
	err = c.withShell(ctx, func(sh Shell) error {
		return c.configure(ctx, sh, "mode", name, "switchport mode "+string(mode))
	})
	if err != nil {
		c.logger.Error("changing interface mode", zap.String("interface", iface), zap.Error(err))
		return err
	}
	c.logger.Info("interface mode switched", zap.String("interface", iface), zap.String("mode", string(mode)))
	return nil
}

// TagInterface reads the current mode of iface and writes its new VLAN
// membership within one session.
func (c *Client) TagInterface(ctx context.Context, iface, vlans string, appendVlans bool) (models.TagResult, error) {
	name, err := ifname.ToCanonical(iface)
	if err != nil {
		return models.TagResult{}, err
	}
	var result models.TagResult
	err = c.withShell(ctx, func(sh Shell) error {
		current, err := c.interfaceConfig(ctx, sh, name)
		if err != nil {
			return err
		}
		result, err = driver.PlanTag(current, vlans, appendVlans)
		if err != nil {
			return err
		}
		line := "switchport access vlan " + result.Vlans
		if result.Mode == models.ModeTrunk {
			line = trunkAllowed(result.Vlans)
		}
		return c.configure(ctx, sh, "tag", name, line)
	})
	if err != nil {
		return models.TagResult{}, err
	}
	c.logger.Info("tagged interface",
		zap.String("interface", iface), zap.String("mode", string(result.Mode)), zap.String("vlans", result.Vlans))
	return result, nil
}

// UntagInterface rewrites the allow-list of trunk port iface without vlanID.
func (c *Client) UntagInterface(ctx context.Context, iface string, vlanID int) error {
	name, err := ifname.ToCanonical(iface)
	if err != nil {
		return err
	}
	err = c.withShell(ctx, func(sh Shell) error {
		current, err := c.interfaceConfig(ctx, sh, name)
		if err != nil {
			return err
		}
		set, err := driver.PlanUntag(models.ProtocolSSH, current, iface, c.addr, vlanID)
		if err != nil {
			return err
		}
		return c.configure(ctx, sh, "untag", name, trunkAllowed(set))
	})
	if err != nil {
		var rej *driver.Rejection
		if !errors.As(err, &rej) {
			c.logger.Error("untagging interface", zap.String("interface", iface), zap.Error(err))
		}
		return err
	}
	c.logger.Info("untagged interface", zap.String("interface", iface), zap.Int("vlan", vlanID))
	return nil
}

func trunkAllowed(set string) string {
	if set == "" {
		set = "none"
	}
	return "switchport trunk allowed vlan " + set
}
