// Package pulse checks whether a switch answers ICMP echo requests.
package pulse

import (
	"context"
	"fmt"
	"net/netip"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// Default probe settings.
const (
	DefaultTimeout = 3 * time.Second
	DefaultCount   = 3
)

// Result is the outcome of one reachability check.
type Result struct {
	Device     string    `json:"device"`
	Reachable  bool      `json:"reachable"`
	LatencyMs  float64   `json:"latency_ms"`
	PacketLoss float64   `json:"packet_loss"`
	Error      string    `json:"error,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}

// Checker executes a reachability check against a device address.
type Checker interface {
	Check(ctx context.Context, addr string) (*Result, error)
}

// ICMPChecker pings devices using ICMP via pro-bing.
type ICMPChecker struct {
	timeout    time.Duration
	count      int
	privileged bool
}

// Compile-time interface guard.
var _ Checker = (*ICMPChecker)(nil)

// NewICMPChecker creates a checker sending count echo requests within
// timeout. Non-positive values fall back to the defaults.
func NewICMPChecker(timeout time.Duration, count int) *ICMPChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if count <= 0 {
		count = DefaultCount
	}
	return &ICMPChecker{
		timeout:    timeout,
		count:      count,
		privileged: runtime.GOOS == "windows",
	}
}

// Check pings addr. An unreachable device is a Result with Reachable false,
// not an error; errors are reserved for an invalid address.
func (c *ICMPChecker) Check(ctx context.Context, addr string) (*Result, error) {
	ip, err := netip.ParseAddr(addr)
	if err != nil || !ip.Is4() {
		return nil, fmt.Errorf("invalid IPv4 address %q", addr)
	}

	pinger := probing.New(ip.String())
	if err := pinger.Resolve(); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	pinger.Count = c.count
	pinger.Timeout = c.timeout
	pinger.SetPrivileged(c.privileged)

	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case runErr := <-done:
		result := &Result{Device: addr, CheckedAt: time.Now().UTC()}
		if runErr != nil {
			result.PacketLoss = 1.0
			result.Error = runErr.Error()
			return result, nil
		}

		stats := pinger.Statistics()
		result.LatencyMs = float64(stats.AvgRtt) / float64(time.Millisecond)
		result.PacketLoss = stats.PacketLoss / 100.0 // pro-bing returns 0-100
		result.Reachable = stats.PacketsRecv > 0
		if !result.Reachable {
			result.Error = "all packets lost"
		}
		return result, nil

	case <-ctx.Done():
		pinger.Stop()
		<-done
		return &Result{
			Device:     addr,
			PacketLoss: 1.0,
			Error:      "check cancelled",
			CheckedAt:  time.Now().UTC(),
		}, nil
	}
}
