package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteProblem(t *testing.T) {
	w := httptest.NewRecorder()

	WriteProblem(w, Problem{
		Type:     ProblemTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   "device 10.0.0.9 not handled",
		Instance: "/api/v1/switches/10.0.0.9/hardware",
	})

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content-type = %q, want %q", ct, "application/problem+json")
	}

	var p Problem
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if p.Type != ProblemTypeNotFound {
		t.Errorf("type = %q, want %q", p.Type, ProblemTypeNotFound)
	}
	if p.Title != "Not Found" {
		t.Errorf("title = %q, want %q", p.Title, "Not Found")
	}
	if p.Status != 404 {
		t.Errorf("status = %d, want 404", p.Status)
	}
	if p.Detail != "device 10.0.0.9 not handled" {
		t.Errorf("detail = %q, want %q", p.Detail, "device 10.0.0.9 not handled")
	}
	if p.Instance != "/api/v1/switches/10.0.0.9/hardware" {
		t.Errorf("instance = %q, want %q", p.Instance, "/api/v1/switches/10.0.0.9/hardware")
	}
}

func TestNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	NotFound(w, "missing", "/test")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	var p Problem
	json.NewDecoder(w.Body).Decode(&p)
	if p.Type != ProblemTypeNotFound {
		t.Errorf("type = %q, want %q", p.Type, ProblemTypeNotFound)
	}
}

func TestBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	BadRequest(w, "invalid input", "/test")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	var p Problem
	json.NewDecoder(w.Body).Decode(&p)
	if p.Type != ProblemTypeBadRequest {
		t.Errorf("type = %q, want %q", p.Type, ProblemTypeBadRequest)
	}
}

func TestInternalError(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, "something broke", "/test")

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var p Problem
	json.NewDecoder(w.Body).Decode(&p)
	if p.Type != ProblemTypeInternal {
		t.Errorf("type = %q, want %q", p.Type, ProblemTypeInternal)
	}
}

func TestGatewayTimeout(t *testing.T) {
	w := httptest.NewRecorder()
	GatewayTimeout(w, "ssh authentication failed for 10.0.0.1", "/api/v1/switches/10.0.0.1/hardware")

	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusGatewayTimeout)
	}

	var p Problem
	json.NewDecoder(w.Body).Decode(&p)
	if p.Type != ProblemTypeGatewayTimeout {
		t.Errorf("type = %q, want %q", p.Type, ProblemTypeGatewayTimeout)
	}
	if p.Title != "Gateway Timeout" {
		t.Errorf("title = %q, want %q", p.Title, "Gateway Timeout")
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		status   int
		wantType string
	}{
		{http.StatusBadGateway, ProblemTypeBadGateway},
		{http.StatusNotFound, ProblemTypeNotFound},
		{http.StatusUnsupportedMediaType, ProblemTypeUnsupported},
		{http.StatusTeapot, ProblemTypeInternal},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		Status(w, tt.status, "detail", "/test")

		if w.Code != tt.status {
			t.Fatalf("status = %d, want %d", w.Code, tt.status)
		}
		var p Problem
		json.NewDecoder(w.Body).Decode(&p)
		if p.Type != tt.wantType {
			t.Errorf("type = %q, want %q", p.Type, tt.wantType)
		}
		if p.Title != http.StatusText(tt.status) {
			t.Errorf("title = %q, want %q", p.Title, http.StatusText(tt.status))
		}
	}
}

func TestWriteProblem_OmitsEmptyOptionalFields(t *testing.T) {
	w := httptest.NewRecorder()

	WriteProblem(w, Problem{
		Type:   ProblemTypeInternal,
		Title:  "Internal Server Error",
		Status: 500,
	})

	var raw map[string]interface{}
	json.NewDecoder(w.Body).Decode(&raw)

	if _, ok := raw["detail"]; ok {
		t.Error("expected detail to be omitted when empty")
	}
	if _, ok := raw["instance"]; ok {
		t.Error("expected instance to be omitted when empty")
	}
}
