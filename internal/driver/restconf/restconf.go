package restconf

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/internal/ifname"
	"github.com/HerbHall/switchconnector/internal/vlan"
	"github.com/HerbHall/switchconnector/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Hostname reads the configured hostname.
func (c *Client) Hostname(ctx context.Context) (string, error) {
	var resp hostnameResponse
	if err := c.get(ctx, "hostname", hostnamePath, &resp); err != nil {
		c.logger.Error("gathering hostname", zap.Error(err))
		return "", err
	}
	return resp.Hostname, nil
}

// HardwareInfo reads hostname and hardware inventory concurrently. A
// software-version banner that does not parse leaves platform, image and
// version as models.Unavailable.
func (c *Client) HardwareInfo(ctx context.Context) (models.HardwareInfo, error) {
	var (
		hostname string
		hw       hardwareResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hostname, err = c.Hostname(gctx)
		return err
	})
	g.Go(func() error {
		return c.get(gctx, "hardware", hardwarePath, &hw)
	})
	if err := g.Wait(); err != nil {
		c.logger.Error("gathering hardware data", zap.Error(err))
		return models.HardwareInfo{}, err
	}

	if len(hw.Hardware.Inventory) == 0 {
		return models.HardwareInfo{}, c.fail("hardware", driver.KindParse, 0,
			fmt.Errorf("device-inventory is empty"))
	}
	inv := hw.Hardware.Inventory[0]

	info := models.HardwareInfo{
		Hostname:           hostname,
		Chassis:            inv.PartNumber,
		ChassisSerial:      inv.SerialNumber,
		Platform:           models.Unavailable,
		ImageID:            models.Unavailable,
		Version:            models.Unavailable,
		ManagementProtocol: models.ProtocolRESTCONF,
	}
	if platform, image, version, ok := driver.ParseSoftwareVersion(hw.Hardware.SystemData.SoftwareVersion); ok {
		info.Platform, info.ImageID, info.Version = platform, image, version
	} else {
		c.logger.Warn("unrecognized software-version",
			zap.String("software_version", hw.Hardware.SystemData.SoftwareVersion))
	}
	return info, nil
}

// InterfaceConfig reads the switchport configuration of iface, falling back
// to the legacy container when the current one does not exist.
func (c *Client) InterfaceConfig(ctx context.Context, iface string) (models.SwitchportConfig, error) {
	name, err := ifname.ToCanonical(iface)
	if err != nil {
		return models.SwitchportConfig{}, err
	}

	var resp switchportResponse
	err = c.get(ctx, "switchport", switchportPath(name), &resp)
	if isNotFound(err) {
		resp = switchportResponse{}
		err = c.get(ctx, "switchport", legacySwitchportPath(name), &resp)
	}
	if err != nil {
		c.logger.Error("retrieving interface configuration", zap.String("interface", iface), zap.Error(err))
		return models.SwitchportConfig{}, err
	}

	cfg, err := c.decodeSwitchport(resp)
	if err != nil {
		c.logger.Error("retrieving interface configuration", zap.String("interface", iface), zap.Error(err))
		return models.SwitchportConfig{}, err
	}
	return cfg, nil
}

func (c *Client) decodeSwitchport(resp switchportResponse) (models.SwitchportConfig, error) {
	sp := resp.Switchport
	if sp == nil {
		return models.SwitchportConfig{}, c.fail("switchport", driver.KindParse, 0, fmt.Errorf("switchport container missing"))
	}

	var set string
	mode := models.SwitchportMode(firstKey(sp.Mode))
	switch mode {
	case models.ModeAccess:
		set = strconv.Itoa(models.DefaultVLAN.ID)
		if sp.Access != nil && sp.Access.Vlan.Vlan != "" {
			set = string(sp.Access.Vlan.Vlan)
		}
	case models.ModeTrunk:
		set = vlan.AllIDs
		if sp.Trunk != nil && sp.Trunk.Allowed.Vlan.Vlans != "" {
			set = string(sp.Trunk.Allowed.Vlan.Vlans)
		}
		if set == "none" {
			set = ""
		}
	default:
		return models.SwitchportConfig{}, c.fail("switchport", driver.KindParse, 0,
			fmt.Errorf("unsupported switchport mode %q", mode))
	}

	expanded, err := vlan.Expand(set)
	if err != nil {
		return models.SwitchportConfig{}, c.fail("switchport", driver.KindParse, 0, err)
	}
	return models.SwitchportConfig{Mode: mode, Vlans: expanded}, nil
}

// Vlans lists the VLAN database, naming unnamed entries VLANnnnn and
// including the default VLAN.
func (c *Client) Vlans(ctx context.Context) ([]models.Vlan, error) {
	var resp vlanListResponse
	if err := c.get(ctx, "vlans", vlanListPath, &resp); err != nil {
		c.logger.Error("retrieving vlan list", zap.Error(err))
		return nil, err
	}
	out := make([]models.Vlan, 0, len(resp.Vlans)+1)
	for _, v := range resp.Vlans {
		name := v.Name
		if name == "" {
			name = fmt.Sprintf("VLAN%04d", v.ID)
		}
		out = append(out, models.Vlan{ID: v.ID, Name: name})
	}
	return models.WithDefaultVLAN(out), nil
}

// SetInterfaceMode switches iface to access or trunk.
func (c *Client) SetInterfaceMode(ctx context.Context, iface string, mode models.SwitchportMode) error {
	if !mode.Valid() {
		return driver.Reject(http.StatusBadRequest,
			"Interface switchport mode [%s] invalid. Must be trunk or access.", mode)
	}
	name, err := ifname.ToCanonical(iface)
	if err != nil {
		return err
	}
	if err := c.patch(ctx, "mode", legacySwitchportPath(name)+"/mode", modeBody(string(mode))); err != nil {
		c.logger.Error("changing interface mode",
			zap.String("interface", iface), zap.String("mode", string(mode)), zap.Error(err))
		return err
	}
	c.logger.Info("interface mode switched", zap.String("interface", iface), zap.String("mode", string(mode)))
	return nil
}

// TagInterface writes the VLAN membership of iface according to its
// current mode.
func (c *Client) TagInterface(ctx context.Context, iface, vlans string, appendVlans bool) (models.TagResult, error) {
	name, err := ifname.ToCanonical(iface)
	if err != nil {
		return models.TagResult{}, err
	}
	current, err := c.InterfaceConfig(ctx, iface)
	if err != nil {
		return models.TagResult{}, err
	}
	result, err := driver.PlanTag(current, vlans, appendVlans)
	if err != nil {
		return models.TagResult{}, err
	}

	c.logger.Info("tagging interface",
		zap.String("interface", iface), zap.String("mode", string(result.Mode)), zap.String("vlans", result.Vlans))

	switch result.Mode {
	case models.ModeTrunk:
		err = c.patchWithLegacy(ctx, "tag", switchportPath(name)+"/trunk",
			legacySwitchportPath(name)+"/trunk", trunkBody(result.Vlans))
	default:
		id, _ := strconv.Atoi(result.Vlans)
		err = c.patchWithLegacy(ctx, "tag", switchportPath(name)+"/access",
			legacySwitchportPath(name)+"/access", accessBody(id))
	}
	if err != nil {
		return models.TagResult{}, err
	}
	return result, nil
}

// UntagInterface removes vlanID from the allow-list of trunk port iface.
func (c *Client) UntagInterface(ctx context.Context, iface string, vlanID int) error {
	name, err := ifname.ToCanonical(iface)
	if err != nil {
		return err
	}
	current, err := c.InterfaceConfig(ctx, iface)
	if err != nil {
		return err
	}
	set, err := driver.PlanUntag(models.ProtocolRESTCONF, current, iface, c.addr, vlanID)
	if err != nil {
		return err
	}

	c.logger.Debug("untagging interface",
		zap.String("interface", iface), zap.String("present", current.Vlans), zap.Int("vlan", vlanID))

	if err := c.patchWithLegacy(ctx, "untag", switchportPath(name)+"/trunk",
		legacySwitchportPath(name)+"/trunk", trunkBody(set)); err != nil {
		return err
	}
	c.logger.Info("untagged interface", zap.String("interface", iface), zap.Int("vlan", vlanID))
	return nil
}
