package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.TurnClassified("order")
	m.TurnClassified("order")
	m.TurnClassified("bill")
	m.EmailSent("bill", true)
	m.EmailSent("bill", false)
	m.BackendFailed("ollama")
	m.SetSessions(3)
	m.ObserveTurn(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.turns.WithLabelValues("order")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emails.WithLabelValues("bill", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendFailures.WithLabelValues("ollama")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessions))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.TurnClassified("show_menu")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `assistant_turns_total{intent="show_menu"} 1`)
}
