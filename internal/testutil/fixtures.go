package testutil

import (
	"github.com/HerbHall/switchconnector/pkg/models"
)

// NewHardwareInfo returns HardwareInfo for a lab Catalyst switch, suitable
// for test fixtures. Override individual fields after creation as needed.
func NewHardwareInfo(opts ...func(*models.HardwareInfo)) models.HardwareInfo {
	h := models.HardwareInfo{
		Hostname:           "lab-sw1",
		Chassis:            "WS-C3850-24T",
		ChassisSerial:      "FOC1234X0AB",
		Platform:           "Cisco IOS Software [Fuji]",
		ImageID:            "Catalyst L3 Switch Software (CAT3K_CAA-UNIVERSALK9-M)",
		Version:            "Version 16.9.4",
		ManagementProtocol: models.ProtocolRESTCONF,
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// WithHostname sets the hardware hostname.
func WithHostname(name string) func(*models.HardwareInfo) {
	return func(h *models.HardwareInfo) { h.Hostname = name }
}

// WithProtocol sets the management protocol that answered.
func WithProtocol(protocol string) func(*models.HardwareInfo) {
	return func(h *models.HardwareInfo) { h.ManagementProtocol = protocol }
}

// TrunkPort returns a trunk switchport carrying vlans.
func TrunkPort(vlans string) models.SwitchportConfig {
	return models.SwitchportConfig{Mode: models.ModeTrunk, Vlans: vlans}
}

// AccessPort returns an access switchport in vlan.
func AccessPort(vlan string) models.SwitchportConfig {
	return models.SwitchportConfig{Mode: models.ModeAccess, Vlans: vlan}
}

// LabVlans returns a small VLAN catalogue without the default VLAN.
func LabVlans() []models.Vlan {
	return []models.Vlan{
		{ID: 10, Name: "users"},
		{ID: 20, Name: "voice"},
		{ID: 99, Name: "mgmt"},
	}
}
