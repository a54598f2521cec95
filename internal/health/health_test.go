package health_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/xrpl-liquidity/internal/health"
	"github.com/fd1az/xrpl-liquidity/internal/logger"
)

func TestServer_Health(t *testing.T) {
	tests := []struct {
		name       string
		stream     bool
		wantCode   int
		wantStatus string
	}{
		{"all healthy", true, http.StatusOK, "ok"},
		{"stream down", false, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := health.NewServer(0, "v1.2.3", logger.NewNop())
			s.RegisterCheck("xrpl_rpc", func(context.Context) (bool, string) { return true, "closed" })
			s.RegisterCheck("ledger_stream", func(context.Context) (bool, string) { return tt.stream, "" })

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			var status health.Status
			if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if status.Status != tt.wantStatus || status.Version != "v1.2.3" {
				t.Errorf("status = %+v", status)
			}
			if len(status.Checks) != 2 || status.Checks["xrpl_rpc"].Message != "closed" {
				t.Errorf("checks = %+v", status.Checks)
			}
		})
	}
}

func TestServer_ReadyAndLive(t *testing.T) {
	s := health.NewServer(0, "", logger.NewNop())
	s.RegisterCheck("ledger_stream", func(context.Context) (bool, string) { return false, "" })
	s.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics"))
	}))

	for path, want := range map[string]int{
		"/ready":   http.StatusServiceUnavailable,
		"/live":    http.StatusOK,
		"/metrics": http.StatusOK,
	} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Errorf("%s: code = %d, want %d", path, rec.Code, want)
		}
	}
}
