package server

import (
	"encoding/json"
	"net/http"
)

// Problem types for RFC 7807 Problem Details responses.
const (
	ProblemTypeNotFound       = "https://switchconnector.dev/problems/not-found"
	ProblemTypeBadRequest     = "https://switchconnector.dev/problems/bad-request"
	ProblemTypeInternal       = "https://switchconnector.dev/problems/internal-error"
	ProblemTypeGatewayTimeout = "https://switchconnector.dev/problems/gateway-timeout"
	ProblemTypeBadGateway     = "https://switchconnector.dev/problems/bad-gateway"
	ProblemTypeUnsupported    = "https://switchconnector.dev/problems/unsupported-media-type"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// WriteProblem writes an RFC 7807 Problem Details JSON response.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// NotFound writes a 404 problem response.
func NotFound(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: instance,
	})
}

// BadRequest writes a 400 problem response.
func BadRequest(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeBadRequest,
		Title:    "Bad Request",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: instance,
	})
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: instance,
	})
}

// GatewayTimeout writes a 504 problem response.
func GatewayTimeout(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, Problem{
		Type:     ProblemTypeGatewayTimeout,
		Title:    "Gateway Timeout",
		Status:   http.StatusGatewayTimeout,
		Detail:   detail,
		Instance: instance,
	})
}

// Status writes a problem response for an arbitrary status code, using the
// standard status text as title.
func Status(w http.ResponseWriter, status int, detail, instance string) {
	typ := ProblemTypeInternal
	switch status {
	case http.StatusBadRequest:
		typ = ProblemTypeBadRequest
	case http.StatusNotFound:
		typ = ProblemTypeNotFound
	case http.StatusBadGateway:
		typ = ProblemTypeBadGateway
	case http.StatusGatewayTimeout:
		typ = ProblemTypeGatewayTimeout
	case http.StatusUnsupportedMediaType:
		typ = ProblemTypeUnsupported
	}
	WriteProblem(w, Problem{
		Type:     typ,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}
