package sentry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInit_EmptyDSNDisables(t *testing.T) {
	if err := Init(Config{}, nil); err != nil {
		t.Fatalf("Expected nil error for empty DSN, got %v", err)
	}
}

func TestCaptureException_NilIsNoop(t *testing.T) {
	CaptureException(nil, map[string]interface{}{"user_id": "u1"}, nil)
}

func TestReporter(t *testing.T) {
	report := Reporter(nil)
	report(errors.New("boom"), map[string]interface{}{"user_id": "u1"})
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestRecoverer_PassesThrough(t *testing.T) {
	h := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", rec.Code)
	}
}
