// Package vault holds switch credentials keyed by management address and
// exposes the inventory replacement entry point.
package vault

import (
	"errors"
	"fmt"
	"net/netip"
	"slices"
	"sync"
)

// ErrInvalidAddress is returned when an inventory entry is not an IPv4 address.
var ErrInvalidAddress = errors.New("invalid device address")

// Credentials authenticate against a single switch.
type Credentials struct {
	Username string
	Password string
}

// Entry is one inventory record.
type Entry struct {
	Address  string `json:"ip" yaml:"ip"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// Store is the process-wide address to credentials mapping. The mapping is
// only ever replaced whole.
type Store struct {
	mu    sync.RWMutex
	creds map[string]Credentials
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{creds: make(map[string]Credentials)}
}

// ParseAddress validates addr as an IPv4 address and returns its canonical form.
func ParseAddress(addr string) (string, error) {
	ip, err := netip.ParseAddr(addr)
	if err != nil || !ip.Is4() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	return ip.String(), nil
}

// ReplaceAll swaps the whole mapping for entries. If any entry is invalid the
// current mapping is left untouched. It returns the sorted addresses whose
// credentials were added, changed, or removed.
func (s *Store) ReplaceAll(entries []Entry) ([]string, error) {
	next := make(map[string]Credentials, len(entries))
	for _, e := range entries {
		addr, err := ParseAddress(e.Address)
		if err != nil {
			return nil, err
		}
		next[addr] = Credentials{Username: e.Username, Password: e.Password}
	}

	s.mu.Lock()
	prev := s.creds
	s.creds = next
	s.mu.Unlock()

	var changed []string
	for addr, c := range next {
		if old, ok := prev[addr]; !ok || old != c {
			changed = append(changed, addr)
		}
	}
	for addr := range prev {
		if _, ok := next[addr]; !ok {
			changed = append(changed, addr)
		}
	}
	slices.Sort(changed)
	return changed, nil
}

// Lookup returns the credentials for addr in the current mapping.
func (s *Store) Lookup(addr string) (Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[addr]
	return c, ok
}

// Addresses returns the known addresses in ascending order.
func (s *Store) Addresses() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.creds))
	for addr := range s.creds {
		out = append(out, addr)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b string) int {
		return netip.MustParseAddr(a).Compare(netip.MustParseAddr(b))
	})
	return out
}

// Len returns the number of known devices.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.creds)
}
