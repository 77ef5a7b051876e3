package models

// SwitchportMode is the layer-2 mode of a switch interface.
type SwitchportMode string

const (
	ModeAccess SwitchportMode = "access"
	ModeTrunk  SwitchportMode = "trunk"
)

// Valid reports whether m is one of the supported modes.
func (m SwitchportMode) Valid() bool {
	return m == ModeAccess || m == ModeTrunk
}

// Management protocols that can answer a request.
const (
	ProtocolRESTCONF = "RESTCONF"
	ProtocolSSH      = "SSH"
)

// Unavailable marks a hardware field the device did not report in a parseable form.
const Unavailable = "unavailable"

// HardwareInfo identifies a switch.
type HardwareInfo struct {
	Hostname           string `json:"hostname"`
	Chassis            string `json:"chassis"`
	ChassisSerial      string `json:"chassis_sn"`
	Platform           string `json:"platform"`
	ImageID            string `json:"image_id"`
	Version            string `json:"version"`
	ManagementProtocol string `json:"management_protocol"`
}

// SwitchportConfig is the switchport configuration of one interface.
// Vlans lists every member id individually ("10,11,12").
type SwitchportConfig struct {
	Mode  SwitchportMode `json:"mode"`
	Vlans string         `json:"vlans"`
}

// Vlan is an entry of a switch's VLAN database.
type Vlan struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// DefaultVLAN is always part of a switch's VLAN catalogue, even when the
// device's VLAN database omits it.
var DefaultVLAN = Vlan{ID: 1, Name: "default"}

// WithDefaultVLAN returns vlans with DefaultVLAN appended when absent.
func WithDefaultVLAN(vlans []Vlan) []Vlan {
	for _, v := range vlans {
		if v.ID == DefaultVLAN.ID {
			return vlans
		}
	}
	return append(vlans, DefaultVLAN)
}

// TagResult is the switchport state written by a tag operation.
type TagResult struct {
	Mode  SwitchportMode `json:"mode"`
	Vlans string         `json:"vlans"`
}
