package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSectionMetricsLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSectionMetrics(reg)
	m.ObserveLoad("orders", "reload", 100*time.Millisecond)
	m.AddLoaderFailures("orders", 2)
	m.AddLoaderFailures("orders", 0)
	m.IncNavigationRejected("cart")
	m.IncReloadCollapsed("orders")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "storefront_section_load_duration_seconds", map[string]string{"section": "orders", "trigger": "reload"}); err != nil || got <= 0 {
		t.Fatalf("unexpected load histogram sum %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_section_loader_failures_total", map[string]string{"section": "orders"}); err != nil || got != 2 {
		t.Fatalf("expected 2 loader failures, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_navigation_rejected_total", map[string]string{"section": "cart"}); err != nil || got != 1 {
		t.Fatalf("expected 1 rejected navigation, got %f err=%v", got, err)
	}
}

func TestCartAndCheckoutMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cart := NewCartMetrics(reg)
	checkout := NewCheckoutMetrics(reg)
	cart.IncSync("failure")
	cart.IncSync("failure")
	cart.IncRemoval("success")
	checkout.IncGuardRejection("2")
	checkout.IncSubmission("success")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, _ := fetchCounterValue(mfs, "storefront_cart_quantity_syncs_total", map[string]string{"outcome": "failure"}); got != 2 {
		t.Fatalf("expected 2 failed syncs, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "storefront_checkout_guard_rejections_total", map[string]string{"step": "2"}); got != 1 {
		t.Fatalf("expected 1 guard rejection, got %f", got)
	}
}
