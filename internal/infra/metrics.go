package infra

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	shiftsOpened    prometheus.Counter
	shiftsClosed    *prometheus.CounterVec
	salesTotal      prometheus.Counter
	salesAmount     prometheus.Counter
	expensesTotal   *prometheus.CounterVec
	staleOpenShifts prometheus.Gauge
	receiptsSent    *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		shiftsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexogym_shifts_opened_total",
			Help: "Cash shifts opened.",
		}),
		shiftsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexogym_shifts_closed_total",
			Help: "Cash shifts closed, by reconciliation status and whether an admin forced the close.",
		}, []string{"status", "forced"}),
		salesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexogym_sales_total",
			Help: "POS sales committed.",
		}),
		salesAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nexogym_sales_amount_total",
			Help: "Sum of committed POS sale totals.",
		}),
		expensesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexogym_expenses_total",
			Help: "Shift expenses recorded, by type.",
		}, []string{"type"}),
		staleOpenShifts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nexogym_stale_open_shifts",
			Help: "Shifts open longer than the alert threshold across all gyms.",
		}),
		receiptsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexogym_receipts_total",
			Help: "Receipt email jobs processed, by outcome.",
		}, []string{"outcome"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nexogym_circuit_breaker_state",
			Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}, []string{"breaker"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nexogym_http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nexogym_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.shiftsOpened, m.shiftsClosed, m.salesTotal, m.salesAmount,
		m.expensesTotal, m.staleOpenShifts, m.receiptsSent, m.breakerState,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ShiftOpened() {
	if m == nil {
		return
	}
	m.shiftsOpened.Inc()
}

func (m *Metrics) ShiftClosed(status string, forced bool) {
	if m == nil {
		return
	}
	m.shiftsClosed.WithLabelValues(status, strconv.FormatBool(forced)).Inc()
}

func (m *Metrics) SaleRecorded(total float64) {
	if m == nil {
		return
	}
	m.salesTotal.Inc()
	m.salesAmount.Add(total)
}

func (m *Metrics) ExpenseRecorded(expenseType string) {
	if m == nil {
		return
	}
	m.expensesTotal.WithLabelValues(expenseType).Inc()
}

func (m *Metrics) SetStaleOpenShifts(n int64) {
	if m == nil {
		return
	}
	m.staleOpenShifts.Set(float64(n))
}

func (m *Metrics) ReceiptProcessed(outcome string) {
	if m == nil {
		return
	}
	m.receiptsSent.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

// BreakerStateChanged plugs into CircuitBreakerConfig.OnStateChange.
func (m *Metrics) BreakerStateChanged(name string, to CBState) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(float64(to))
}
