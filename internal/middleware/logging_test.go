package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithRequestLogging_LogsRequest(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	})
	h := chiMiddleware.RequestID(WithRequestLogging(zap.New(core))(next))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/enviar", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.InfoLevel {
		t.Errorf("level = %v; want info", e.Level)
	}
	fields := e.ContextMap()
	if fields["method"] != "POST" || fields["path"] != "/enviar" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if fields["status"] != int64(http.StatusCreated) {
		t.Errorf("status field = %v; want 201", fields["status"])
	}
	if fields["bytes"] != int64(5) {
		t.Errorf("bytes field = %v; want 5", fields["bytes"])
	}
	if id, _ := fields["request_id"].(string); id == "" {
		t.Errorf("expected a request_id field, got %v", fields)
	}
}

func TestWithRequestLogging_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		core, logs := observer.New(zap.DebugLevel)
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})
		h := WithRequestLogging(zap.New(core))(next)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if logs.Len() != 1 || logs.All()[0].Level != tt.level {
			t.Errorf("status %d: expected one %v entry, got %v", tt.status, tt.level, logs.All())
		}
	}
}

func TestWithRequestLogging_ImplicitOK(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	WithRequestLogging(zap.New(core))(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := logs.All()[0].ContextMap()["status"]; got != int64(http.StatusOK) {
		t.Errorf("status = %v; want 200", got)
	}
}
