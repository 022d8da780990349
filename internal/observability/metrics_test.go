package observability_test

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/parlor/internal/game/action"
	"github.com/cory-johannsen/parlor/internal/game/command"
	"github.com/cory-johannsen/parlor/internal/game/recipe"
	"github.com/cory-johannsen/parlor/internal/game/session"
	"github.com/cory-johannsen/parlor/internal/observability"
)

var (
	_ action.Metrics   = (*observability.Metrics)(nil)
	_ recipe.Metrics   = (*observability.Metrics)(nil)
	_ command.Observer = (*observability.Metrics)(nil)
	_ session.Metrics  = (*observability.Metrics)(nil)
)

func TestMetrics_CountersAndGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.ActionPerformed("take", "ok")
	m.ActionPerformed("take", "ok")
	m.ActionPerformed("steal", "failed")
	m.RecipeCompleted("STOVE")
	m.RecipeCancelled()
	m.SessionsChanged("telnet", 1)
	m.SessionsChanged("telnet", 1)
	m.SessionsChanged("telnet", -1)
	m.SetItemsLive(42)
	m.CommandDuration("take", 3*time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "parlor_actions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	byName := map[string]float64{}
	for _, f := range families {
		for _, mt := range f.GetMetric() {
			switch {
			case mt.GetCounter() != nil:
				byName[f.GetName()] += mt.GetCounter().GetValue()
			case mt.GetGauge() != nil:
				byName[f.GetName()] += mt.GetGauge().GetValue()
			}
		}
	}
	assert.Equal(t, 3.0, byName["parlor_actions_total"])
	assert.Equal(t, 1.0, byName["parlor_recipes_completed_total"])
	assert.Equal(t, 1.0, byName["parlor_recipes_cancelled_total"])
	assert.Equal(t, 1.0, byName["parlor_sessions_connected"])
	assert.Equal(t, 42.0, byName["parlor_items_live"])
}

func TestMetrics_HandlerRefreshesBeforeScrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	refreshed := 0
	srv := httptest.NewServer(m.Handler(func() {
		refreshed++
		m.SetItemsLive(7)
	}))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, 1, refreshed)
	assert.Contains(t, string(body), "parlor_items_live 7")
}
