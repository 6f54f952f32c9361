package statusbridge

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kingrea/fieldcrm/internal/config"
)

func TestSettingsFollowConfig(t *testing.T) {
	t.Setenv("FIELDCRM_BRIDGE_PORT", "9001")
	t.Setenv("FIELDCRM_BRIDGE_ENABLED", "true")
	cfg, err := config.NewConfig(t.TempDir())
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	settings := SettingsFromConfig(cfg)
	if !settings.Enabled {
		t.Fatalf("expected enabled=true from config")
	}
	if settings.Addr != "127.0.0.1:9001" {
		t.Fatalf("addr = %s", settings.Addr)
	}
	if settings.ReadTimeout != defaultReadTimeout || settings.IdleTimeout != defaultIdleTimeout {
		t.Fatalf("timeouts not defaulted: %+v", settings)
	}
}

func TestSettingsDisabledByDefault(t *testing.T) {
	settings := SettingsFromConfig(nil)
	if settings.Enabled {
		t.Fatalf("bridge must default to disabled")
	}
	if settings.Addr != defaultAddr {
		t.Fatalf("addr = %s", settings.Addr)
	}
	if err := NewServer(settings).Start(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestServerServesHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{Name: "fieldcrm_test_total", Help: "test"}).Inc()

	start := time.Unix(1730000000, 0).UTC()
	var elapsed atomic.Int64
	settings := Settings{Enabled: true, Addr: "127.0.0.1:0", ReadTimeout: time.Second, WriteTimeout: time.Second, IdleTimeout: time.Second}
	srv := NewServer(settings,
		WithGatherer(reg),
		WithUser(func() string { return "admin" }),
		WithClock(func() time.Time { return start.Add(time.Duration(elapsed.Load())) }))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	elapsed.Store(int64(42 * time.Second))

	resp, err := http.Get(srv.BaseURL() + "/health")
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	resp.Body.Close()
	if health.Status != "ready" || health.User != "admin" || health.UptimeSeconds != 42 {
		t.Fatalf("unexpected health %+v", health)
	}

	resp, err = http.Get(srv.BaseURL() + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "fieldcrm_test_total 1") {
		t.Fatalf("metrics missing counter:\n%s", body)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if srv.BaseURL() != "" {
		t.Fatalf("expected no address after shutdown")
	}
}

func TestHealthRejectsPost(t *testing.T) {
	srv := NewServer(Settings{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
