// Package ifname converts switch interface identifiers between their
// abbreviated ("Gi1/0/1") and canonical ("GigabitEthernet1/0/1") forms and
// produces path-safe fragments for the RESTCONF transport.
package ifname

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// Sentinel errors.
var (
	ErrMalformedInterfaceName = errors.New("malformed interface name")
	ErrUnknownInterfaceType   = errors.New("unknown interface type")
)

// interfaceType pairs a canonical IOS-XE type name with its common abbreviations.
type interfaceType struct {
	canonical string
	short     string
	aliases   []string
}

var interfaceTypes = []interfaceType{
	{canonical: "GigabitEthernet", short: "Gi", aliases: []string{"g", "gi", "ge", "gig"}},
	{canonical: "TenGigabitEthernet", short: "Te", aliases: []string{"te", "ten", "tengig", "tengige"}},
	{canonical: "FastEthernet", short: "Fa", aliases: []string{"f", "fa", "fas", "fe"}},
	{canonical: "TwoGigabitEthernet", short: "Tw", aliases: []string{"tw", "two", "twogig"}},
	{canonical: "FiveGigabitEthernet", short: "Fi", aliases: []string{"fi", "five", "fivegig"}},
	{canonical: "TwentyFiveGigE", short: "Twe", aliases: []string{"twe", "twentyfivegigabitethernet"}},
	{canonical: "FortyGigabitEthernet", short: "Fo", aliases: []string{"fo", "for", "fortygig", "fortygige"}},
	{canonical: "HundredGigE", short: "Hu", aliases: []string{"hu", "hundredgigabitethernet"}},
	{canonical: "AppGigabitEthernet", short: "Ap", aliases: []string{"ap", "app"}},
	{canonical: "Ethernet", short: "Et", aliases: []string{"e", "et", "eth"}},
	{canonical: "Port-channel", short: "Po", aliases: []string{"po", "port", "portchannel"}},
	{canonical: "Vlan", short: "Vl", aliases: []string{"v", "vl"}},
	{canonical: "Loopback", short: "Lo", aliases: []string{"lo", "loop"}},
	{canonical: "Tunnel", short: "Tu", aliases: []string{"tu", "tun"}},
}

var byAlias = func() map[string]*interfaceType {
	m := make(map[string]*interfaceType)
	for i := range interfaceTypes {
		t := &interfaceTypes[i]
		m[strings.ToLower(t.canonical)] = t
		for _, a := range t.aliases {
			m[a] = t
		}
	}
	return m
}()

// Name is an interface identifier decomposed at its first digit.
type Name struct {
	Type     string
	Position string
}

// String reassembles the identifier.
func (n Name) String() string {
	return n.Type + n.Position
}

// Split breaks name at its first digit into type prefix and position.
func Split(name string) (Name, error) {
	name = strings.TrimSpace(name)
	idx := strings.IndexFunc(name, unicode.IsDigit)
	if idx < 0 {
		return Name{}, fmt.Errorf("%w: %q has no position", ErrMalformedInterfaceName, name)
	}
	if idx == 0 {
		return Name{}, fmt.Errorf("%w: %q has no type prefix", ErrMalformedInterfaceName, name)
	}
	return Name{Type: name[:idx], Position: name[idx:]}, nil
}

// ToCanonical expands the type prefix of name to its canonical form.
// Spaces between type and position are dropped ("Gi 1/0/1" is accepted).
func ToCanonical(name string) (Name, error) {
	t, n, err := resolve(name)
	if err != nil {
		return Name{}, err
	}
	return Name{Type: t.canonical, Position: n.Position}, nil
}

// Short returns the abbreviated form of name ("GigabitEthernet1/0/1" -> "Gi1/0/1").
func Short(name string) (Name, error) {
	t, n, err := resolve(name)
	if err != nil {
		return Name{}, err
	}
	return Name{Type: t.short, Position: n.Position}, nil
}

// Equal reports whether a and b denote the same interface in any notation.
func Equal(a, b string) bool {
	ca, err := ToCanonical(a)
	if err != nil {
		return false
	}
	cb, err := ToCanonical(b)
	if err != nil {
		return false
	}
	return ca == cb
}

func resolve(name string) (*interfaceType, Name, error) {
	n, err := Split(strings.Join(strings.Fields(name), ""))
	if err != nil {
		return nil, Name{}, err
	}
	key := strings.ToLower(n.Type)
	if t, ok := byAlias[key]; ok {
		return t, n, nil
	}
	// Unambiguous prefixes of canonical names, as accepted by the IOS parser.
	var match *interfaceType
	for i := range interfaceTypes {
		if strings.HasPrefix(strings.ToLower(interfaceTypes[i].canonical), key) {
			if match != nil {
				return nil, Name{}, fmt.Errorf("%w: %q is ambiguous", ErrUnknownInterfaceType, n.Type)
			}
			match = &interfaceTypes[i]
		}
	}
	if match == nil {
		return nil, Name{}, fmt.Errorf("%w: %q", ErrUnknownInterfaceType, n.Type)
	}
	return match, n, nil
}

// PathSegment escapes a position for embedding in a URL path segment,
// so "1/0/1" becomes "1%2F0%2F1".
func PathSegment(position string) string {
	return url.PathEscape(position)
}
