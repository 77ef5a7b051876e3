package restconf

import (
	"fmt"

	"github.com/HerbHall/switchconnector/internal/ifname"
)

const (
	dataRoot     = "/restconf/data"
	hostnamePath = dataRoot + "/Cisco-IOS-XE-native:native/hostname"
	hardwarePath = dataRoot + "/Cisco-IOS-XE-device-hardware-oper:device-hardware-data/device-hardware"
	vlanListPath = dataRoot + "/Cisco-IOS-XE-native:native/vlan/Cisco-IOS-XE-vlan:vlan-list"
)

func interfacePath(n ifname.Name) string {
	return fmt.Sprintf("%s/Cisco-IOS-XE-native:native/interface/%s=%s",
		dataRoot, n.Type, ifname.PathSegment(n.Position))
}

// switchportPath is the switchport container on current firmware.
func switchportPath(n ifname.Name) string {
	return interfacePath(n) + "/switchport-config/switchport"
}

// legacySwitchportPath is the switchport container on older firmware
// (Catalyst 3850 and similar).
func legacySwitchportPath(n ifname.Name) string {
	return interfacePath(n) + "/switchport"
}
