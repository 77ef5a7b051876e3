package driver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/HerbHall/switchconnector/internal/vlan"
	"github.com/HerbHall/switchconnector/pkg/models"
)

// PlanTag computes the membership a tag request leaves on a port currently
// configured as current. vlans must already be a valid range string. An
// empty set is refused: written to a trunk it would clear the allow-list.
func PlanTag(current models.SwitchportConfig, vlans string, appendVlans bool) (models.TagResult, error) {
	if strings.TrimSpace(vlans) == "" {
		return models.TagResult{}, Reject(http.StatusBadRequest, "no VLANs given")
	}
	switch current.Mode {
	case models.ModeTrunk:
		var (
			set string
			err error
		)
		if appendVlans {
			set, err = vlan.Append(current.Vlans, vlans)
		} else {
			set, err = vlan.Canonical(vlans)
		}
		if err != nil {
			return models.TagResult{}, Reject(http.StatusBadRequest, "invalid VLAN set %q: %v", vlans, err)
		}
		return models.TagResult{Mode: models.ModeTrunk, Vlans: set}, nil
	case models.ModeAccess:
		id, err := strconv.Atoi(vlans)
		if err != nil || vlan.ValidateID(id) != nil {
			return models.TagResult{}, Reject(http.StatusBadRequest,
				"access ports carry exactly one VLAN, got %q", vlans)
		}
		return models.TagResult{Mode: models.ModeAccess, Vlans: strconv.Itoa(id)}, nil
	default:
		return models.TagResult{}, Reject(http.StatusBadGateway, "unexpected switchport mode %q", current.Mode)
	}
}

// PlanUntag computes the trunk allow-list left after removing vlanID from the
// port. Only trunk ports can be untagged. protocol names the transport that
// read current.
func PlanUntag(protocol string, current models.SwitchportConfig, iface, addr string, vlanID int) (string, error) {
	if current.Mode != models.ModeTrunk {
		return "", errNotTrunk(iface, addr)
	}
	set, err := vlan.Remove(current.Vlans, vlanID)
	if err != nil {
		return "", &TransportError{Protocol: protocol, Op: "untag", Kind: KindParse, Err: err}
	}
	return set, nil
}
