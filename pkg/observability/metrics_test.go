package observability_test

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/wayfinder/internal/logging"
	"github.com/aretw0/wayfinder/pkg/domain"
	"github.com/aretw0/wayfinder/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m, err := observability.NewMetrics(nil)
	require.NoError(t, err)
	hooks := m.Hooks()

	hooks.OnTransition(&domain.TransitionEvent{From: domain.StateReady, To: domain.StateStarting, Event: domain.EventStart})
	hooks.OnTransition(&domain.TransitionEvent{From: domain.StateReady, To: domain.StateStarting, Event: domain.EventStart})
	hooks.OnSearch(&domain.SearchEvent{Found: true, Stats: domain.Stats{OperationCount: 25, TimeSpent: time.Millisecond}})
	hooks.OnRendered(&domain.RenderedEvent{Operation: domain.Operation{Attr: domain.AttrOpened}})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("ready", "starting", "start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rendered.WithLabelValues("opened")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SearchOperations))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_Handler(t *testing.T) {
	m, err := observability.NewMetrics(nil)
	require.NoError(t, err)
	m.Sessions.Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "wayfinder_sessions_active 3")
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	hooks := observability.LoggingHooks(logging.NewWithWriter(&buf, slog.LevelInfo, false))

	hooks.OnTransition(&domain.TransitionEvent{From: domain.StatePaused, To: domain.StateReady, Event: domain.EventCancel})
	hooks.OnRendered(&domain.RenderedEvent{})

	out := buf.String()
	assert.Contains(t, out, "state_transition")
	assert.Contains(t, out, "event=cancel")
	assert.False(t, strings.Contains(out, "operation_rendered"), "debug line filtered at info")
}
