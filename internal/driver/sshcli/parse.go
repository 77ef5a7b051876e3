package sshcli

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/internal/vlan"
	"github.com/HerbHall/switchconnector/pkg/models"
)

var (
	commandErrorRe = regexp.MustCompile(`(?m)^\s*(% (?:Invalid|Incomplete|Ambiguous|Unknown).*)$`)

	hostnameRe    = regexp.MustCompile(`(?m)^hostname\s+(\S+)`)
	uptimeRe      = regexp.MustCompile(`(?m)^(\S+) uptime is`)
	softwareRe    = regexp.MustCompile(`(?m)^(Cisco IOS Software.*Version.*)$`)
	chassisRe     = regexp.MustCompile(`(?mi)^cisco (\S+) \(.*\) processor`)
	modelNumberRe = regexp.MustCompile(`(?m)^Model [Nn]umber\s*:\s*(\S+)`)
	boardIDRe     = regexp.MustCompile(`(?m)^Processor board ID (\S+)`)
	systemSerial  = regexp.MustCompile(`(?m)^System [Ss]erial [Nn]umber\s*:\s*(\S+)`)

	vlanBriefRe = regexp.MustCompile(`^(\d{1,4})\s+(\S+)\s+\S+`)
)

// commandError returns the IOS error line in out, if any.
func commandError(out string) (string, bool) {
	m := commandErrorRe.FindStringSubmatch(out)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func firstMatch(out string, res ...*regexp.Regexp) string {
	for _, re := range res {
		if m := re.FindStringSubmatch(out); m != nil {
			return m[1]
		}
	}
	return ""
}

func orUnavailable(s string) string {
	if s == "" {
		return models.Unavailable
	}
	return s
}

// parseHostname reads the hostname line of the running configuration.
func parseHostname(out string) (string, error) {
	name := firstMatch(out, hostnameRe)
	if name == "" {
		return "", fmt.Errorf("no hostname line in output")
	}
	return name, nil
}

// parseShowVersion extracts hardware identity from "show version". Fields
// that are not present come back as models.Unavailable.
func parseShowVersion(out string) models.HardwareInfo {
	info := models.HardwareInfo{
		Hostname:      orUnavailable(firstMatch(out, uptimeRe)),
		Chassis:       orUnavailable(firstMatch(out, modelNumberRe, chassisRe)),
		ChassisSerial: orUnavailable(firstMatch(out, systemSerial, boardIDRe)),
		Platform:      models.Unavailable,
		ImageID:       models.Unavailable,
		Version:       models.Unavailable,
	}
	if banner := firstMatch(out, softwareRe); banner != "" {
		if platform, image, version, ok := driver.ParseSoftwareVersion(strings.TrimSpace(banner)); ok {
			info.Platform, info.ImageID, info.Version = platform, image, version
		}
	}
	return info
}

// parseSwitchport reads "show interfaces <name> switchport". The operational
// mode wins; the administrative mode is used while the port is down.
// Vlans are returned expanded.
func parseSwitchport(out string) (models.SwitchportConfig, error) {
	fields := switchportFields(out)

	if strings.EqualFold(fields["Switchport"], "Disabled") {
		return models.SwitchportConfig{}, fmt.Errorf("interface is not a switchport")
	}

	mode, ok := switchportMode(fields["Operational Mode"])
	if !ok {
		mode, ok = switchportMode(fields["Administrative Mode"])
	}
	if !ok {
		return models.SwitchportConfig{}, fmt.Errorf("unsupported switchport mode %q/%q",
			fields["Operational Mode"], fields["Administrative Mode"])
	}

	var set string
	switch mode {
	case models.ModeAccess:
		set = strconv.Itoa(models.DefaultVLAN.ID)
		if f := strings.Fields(fields["Access Mode VLAN"]); len(f) > 0 {
			set = f[0]
		}
	case models.ModeTrunk:
		set = strings.ReplaceAll(fields["Trunking VLANs Enabled"], " ", "")
		switch strings.ToUpper(set) {
		case "", "ALL":
			set = vlan.AllIDs
		case "NONE":
			set = ""
		}
	}

	expanded, err := vlan.Expand(set)
	if err != nil {
		return models.SwitchportConfig{}, err
	}
	return models.SwitchportConfig{Mode: mode, Vlans: expanded}, nil
}

// switchportFields collects "Key: value" lines. Long VLAN lists wrap onto
// indented continuation lines, which are appended to the previous value.
func switchportFields(out string) map[string]string {
	fields := make(map[string]string)
	var last string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \r")
		if line == "" {
			last = ""
			continue
		}
		if last != "" && (line[0] == ' ' || line[0] == '\t') && !strings.Contains(line, ":") {
			fields[last] += strings.TrimSpace(line)
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			last = ""
			continue
		}
		last = strings.TrimSpace(key)
		fields[last] = strings.TrimSpace(value)
	}
	return fields
}

func switchportMode(s string) (models.SwitchportMode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.Contains(s, "trunk"):
		return models.ModeTrunk, true
	case strings.Contains(s, "access"):
		return models.ModeAccess, true
	}
	return "", false
}

// parseVlanBrief reads "show vlan brief".
func parseVlanBrief(out string) []models.Vlan {
	var vlans []models.Vlan
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		m := vlanBriefRe.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || vlan.ValidateID(id) != nil {
			continue
		}
		vlans = append(vlans, models.Vlan{ID: id, Name: m[2]})
	}
	return vlans
}
