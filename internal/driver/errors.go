package driver

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrDeviceNotHandled is returned when no credentials exist for a device.
var ErrDeviceNotHandled = errors.New("the service does not handle the specified device")

// Kind classifies a transport failure.
type Kind string

const (
	// KindAuth is a rejected login.
	KindAuth Kind = "auth"
	// KindConnect is a failure to establish the connection or session.
	KindConnect Kind = "connect"
	// KindTimeout is an established session that stopped answering in time.
	KindTimeout Kind = "timeout"
	// KindStatus is a non-success HTTP status from the device.
	KindStatus Kind = "status"
	// KindParse is a device response that could not be decoded.
	KindParse Kind = "parse"
	// KindCommand is a CLI command the device refused.
	KindCommand Kind = "command"
)

// TransportError is a failure to complete an operation over a transport.
type TransportError struct {
	Protocol string
	Op       string
	Kind     Kind
	// Status is the HTTP status for KindStatus.
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Protocol, e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first TransportError in err's chain.
func KindOf(err error) (Kind, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return "", false
}

// IsUnreachable reports whether err means the device could not be logged in
// to at all: an authentication or connection failure.
func IsUnreachable(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == KindAuth || k == KindConnect)
}

// Rejection is a definitive answer from the device side that the requested
// change does not apply, e.g. untagging a port that is not a trunk. It is a
// result, not a transport failure, and is returned to the caller as is.
type Rejection struct {
	Status int
	Detail string
}

// Reject returns a Rejection with a formatted detail.
func Reject(status int, format string, args ...any) *Rejection {
	return &Rejection{Status: status, Detail: fmt.Sprintf(format, args...)}
}

func (r *Rejection) Error() string {
	return r.Detail
}

// AsRejection returns the Rejection in err's chain, if any.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// errNotTrunk is the standard refusal for untagging a non-trunk port.
func errNotTrunk(iface, addr string) *Rejection {
	return Reject(http.StatusBadGateway, "Interface %s on device %s not in trunk mode.", iface, addr)
}
