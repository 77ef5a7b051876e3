package driver

import (
	"regexp"
	"strings"
)

var (
	versionFieldSep = regexp.MustCompile(`,\s*`)
	softwareSep     = regexp.MustCompile(`\sSoftware\s*`)
	versionPrefix   = regexp.MustCompile(`Version\s*`)
)

// ParseSoftwareVersion splits the IOS-XE software-version banner, e.g.
//
//	Cisco IOS Software [Bengaluru], Catalyst L3 Switch Software (CAT9K_IOSXE), Version 17.6.4, RELEASE SOFTWARE (fc1)
//
// into platform "Catalyst L3 Switch", image "CAT9K_IOSXE" and version "17.6.4".
func ParseSoftwareVersion(s string) (platform, imageID, version string, ok bool) {
	fields := versionFieldSep.Split(s, -1)
	if len(fields) < 3 {
		return "", "", "", false
	}

	parts := softwareSep.Split(fields[1], 2)
	if len(parts) != 2 {
		return "", "", "", false
	}
	image := parts[1]
	if len(image) < 2 || !strings.HasPrefix(image, "(") || !strings.HasSuffix(image, ")") {
		return "", "", "", false
	}

	ver := versionPrefix.Split(fields[2], 2)
	if len(ver) != 2 || ver[1] == "" {
		return "", "", "", false
	}
	return parts[0], image[1 : len(image)-1], ver[1], true
}
