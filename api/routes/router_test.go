package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/sections"
	"github.com/angelmondragon/packfinderz-storefront/pkg/config"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func newTestRouter(t *testing.T, pinger stubPinger) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	coord, err := sections.NewCoordinator(sections.Params{
		Notifier: &notify.Recorder{},
		Metrics:  metrics.NewSectionMetrics(reg),
	})
	if err != nil {
		t.Fatalf("coordinator: %v", err)
	}
	loader := sections.LoaderFunc("noop", func(context.Context) error { return nil })
	if err := coord.Register(enums.SectionShop, loader); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := coord.Register(enums.SectionCart, loader); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := coord.Navigate(context.Background(), enums.SectionShop); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvDev}}
	return NewRouter(cfg, logger.Nop(), coord, reg, pinger)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, stubPinger{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-PackFinderz-Env") != config.AppEnvDev {
		t.Fatalf("expected env header")
	}
}

func TestReadyzReportsSessionStoreFailure(t *testing.T) {
	router := newTestRouter(t, stubPinger{err: errors.New("connection refused")})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestSectionsSnapshot(t *testing.T) {
	router := newTestRouter(t, stubPinger{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sections", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Data struct {
			Active   string `json:"active"`
			Sections []struct {
				Section string `json:"section"`
				Status  string `json:"status"`
				Active  bool   `json:"active"`
			} `json:"sections"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Active != "shop" || len(body.Data.Sections) != 2 {
		t.Fatalf("unexpected payload %+v", body.Data)
	}
	if body.Data.Sections[0].Status != "loaded" || !body.Data.Sections[0].Active {
		t.Fatalf("expected shop loaded and active, got %+v", body.Data.Sections[0])
	}
	if body.Data.Sections[1].Status != "unloaded" {
		t.Fatalf("expected cart unloaded, got %+v", body.Data.Sections[1])
	}
}

func TestMetricsExposesSectionLoads(t *testing.T) {
	router := newTestRouter(t, stubPinger{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "storefront_section_load_duration_seconds") {
		t.Fatalf("expected section metrics in exposition")
	}
}
