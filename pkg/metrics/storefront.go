package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SectionMetrics records section load activity.
type SectionMetrics struct {
	loadDuration   *prometheus.HistogramVec
	loaderFailures *prometheus.CounterVec
	rejected       *prometheus.CounterVec
	collapsed      *prometheus.CounterVec
}

// NewSectionMetrics registers section metrics on the provided registerer.
func NewSectionMetrics(reg prometheus.Registerer) *SectionMetrics {
	if reg == nil {
		return &SectionMetrics{}
	}
	loadDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_section_load_duration_seconds",
		Help:    "Duration of section loads in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"section", "trigger"})
	loaderFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_section_loader_failures_total",
		Help: "Individual loader failures inside a section load.",
	}, []string{"section"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_navigation_rejected_total",
		Help: "Navigations ignored because another navigation load was in flight.",
	}, []string{"section"})
	collapsed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_reload_collapsed_total",
		Help: "Reloads dropped because one was already pending for the section.",
	}, []string{"section"})
	reg.MustRegister(loadDuration, loaderFailures, rejected, collapsed)
	return &SectionMetrics{
		loadDuration:   loadDuration,
		loaderFailures: loaderFailures,
		rejected:       rejected,
		collapsed:      collapsed,
	}
}

func (m *SectionMetrics) ObserveLoad(section, trigger string, duration time.Duration) {
	if m == nil || m.loadDuration == nil {
		return
	}
	m.loadDuration.WithLabelValues(normalizeLabel(section), normalizeLabel(trigger)).Observe(duration.Seconds())
}

func (m *SectionMetrics) AddLoaderFailures(section string, count int) {
	if m == nil || m.loaderFailures == nil || count <= 0 {
		return
	}
	m.loaderFailures.WithLabelValues(normalizeLabel(section)).Add(float64(count))
}

func (m *SectionMetrics) IncNavigationRejected(section string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(section)).Inc()
}

func (m *SectionMetrics) IncReloadCollapsed(section string) {
	if m == nil || m.collapsed == nil {
		return
	}
	m.collapsed.WithLabelValues(normalizeLabel(section)).Inc()
}

// CartMetrics records optimistic cart mutation outcomes.
type CartMetrics struct {
	syncs     *prometheus.CounterVec
	removals  *prometheus.CounterVec
	coalesced prometheus.Counter
}

// NewCartMetrics registers cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	syncs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_quantity_syncs_total",
		Help: "Debounced quantity syncs sent to the gateway by outcome.",
	}, []string{"outcome"})
	removals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_line_removals_total",
		Help: "Cart line removals by outcome.",
	}, []string{"outcome"})
	coalesced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_updates_coalesced_total",
		Help: "Quantity updates folded into an already pending sync.",
	})
	reg.MustRegister(syncs, removals, coalesced)
	return &CartMetrics{syncs: syncs, removals: removals, coalesced: coalesced}
}

func (m *CartMetrics) IncSync(outcome string) {
	if m == nil || m.syncs == nil {
		return
	}
	m.syncs.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *CartMetrics) IncRemoval(outcome string) {
	if m == nil || m.removals == nil {
		return
	}
	m.removals.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *CartMetrics) IncCoalesced() {
	if m == nil || m.coalesced == nil {
		return
	}
	m.coalesced.Inc()
}

// CheckoutMetrics records checkout guard rejections and submissions.
type CheckoutMetrics struct {
	guardRejections *prometheus.CounterVec
	submissions     *prometheus.CounterVec
}

// NewCheckoutMetrics registers checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	guardRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_guard_rejections_total",
		Help: "Checkout transitions blocked by a guard, by originating step.",
	}, []string{"step"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_submissions_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(guardRejections, submissions)
	return &CheckoutMetrics{guardRejections: guardRejections, submissions: submissions}
}

func (m *CheckoutMetrics) IncGuardRejection(step string) {
	if m == nil || m.guardRejections == nil {
		return
	}
	m.guardRejections.WithLabelValues(normalizeLabel(step)).Inc()
}

func (m *CheckoutMetrics) IncSubmission(outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// NotifyMetrics counts notifications enqueued and dropped.
type NotifyMetrics struct {
	enqueued *prometheus.CounterVec
	dropped  prometheus.Counter
}

// NewNotifyMetrics registers notification metrics on the provided registerer.
func NewNotifyMetrics(reg prometheus.Registerer) *NotifyMetrics {
	if reg == nil {
		return &NotifyMetrics{}
	}
	enqueued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_notifications_enqueued_total",
		Help: "Notifications handed to the rendering layer by kind.",
	}, []string{"kind"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_notifications_dropped_total",
		Help: "Notifications dropped because the queue was full.",
	})
	reg.MustRegister(enqueued, dropped)
	return &NotifyMetrics{enqueued: enqueued, dropped: dropped}
}

func (m *NotifyMetrics) IncEnqueued(kind string) {
	if m == nil || m.enqueued == nil {
		return
	}
	m.enqueued.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *NotifyMetrics) IncDropped() {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.Inc()
}
