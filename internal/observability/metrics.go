package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the game server. It satisfies
// the metrics interfaces of the action layer, the recipe processor, the
// command executor and the session manager.
type Metrics struct {
	gatherer prometheus.Gatherer

	actions           *prometheus.CounterVec
	itemsLive         prometheus.Gauge
	recipesCompleted  *prometheus.CounterVec
	recipesCancelled  prometheus.Counter
	sessionsConnected *prometheus.GaugeVec
	commandDuration   *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
//
// Precondition: reg must be non-nil and must not already hold these collectors.
// Postcondition: Returns registered Metrics; registration conflicts panic.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parlor_actions_total",
			Help: "Performed actions by type and outcome.",
		}, []string{"action", "outcome"}),
		itemsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "parlor_items_live",
			Help: "Item instances currently in the world.",
		}),
		recipesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parlor_recipes_completed_total",
			Help: "Fixture recipes that ran to completion, by fixture.",
		}, []string{"fixture"}),
		recipesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parlor_recipes_cancelled_total",
			Help: "Fixture recipes cancelled before completion.",
		}),
		sessionsConnected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "parlor_sessions_connected",
			Help: "Connected players by transport.",
		}, []string{"transport"}),
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parlor_command_duration_seconds",
			Help:    "Time spent executing a player command under the world lock.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"command"}),
	}

	reg.MustRegister(
		m.actions,
		m.itemsLive,
		m.recipesCompleted,
		m.recipesCancelled,
		m.sessionsConnected,
		m.commandDuration,
	)
	return m
}

// ActionPerformed counts one action with its outcome.
func (m *Metrics) ActionPerformed(action, outcome string) {
	m.actions.WithLabelValues(action, outcome).Inc()
}

// RecipeCancelled counts a recipe abandoned before completion.
func (m *Metrics) RecipeCancelled() {
	m.recipesCancelled.Inc()
}

// RecipeCompleted counts a recipe finished by the named fixture.
func (m *Metrics) RecipeCompleted(fixture string) {
	m.recipesCompleted.WithLabelValues(fixture).Inc()
}

// CommandDuration observes how long a command held the world.
func (m *Metrics) CommandDuration(command string, d time.Duration) {
	m.commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// SessionsChanged adjusts the connected-session gauge of transport by delta.
func (m *Metrics) SessionsChanged(transport string, delta int) {
	m.sessionsConnected.WithLabelValues(transport).Add(float64(delta))
}

// SetItemsLive records the number of item instances in the world.
func (m *Metrics) SetItemsLive(n int) {
	m.itemsLive.Set(float64(n))
}

// Handler returns an http.Handler serving the registry. refresh, if non-nil,
// runs before each scrape to update gauges sampled from game state.
func (m *Metrics) Handler(refresh func()) http.Handler {
	inner := promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if refresh != nil {
			refresh()
		}
		inner.ServeHTTP(w, r)
	})
}
