package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ConnectAttempt(errors.New("refused"))
	m.ConnectAttempt(nil)
	m.ConnectionEvent(EventOpen)
	m.ConnectionEvent(EventError)
	m.ConnectionEvent(EventError)
	m.ReadPrefDowngrades(2)
	m.ReadPrefDowngrades(0)
	m.AgenciesSeeded(SourceDev, 2)
	m.AgenciesSeeded(SourceInit, 1)
	m.EphemeralStart()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectAttempts.WithLabelValues(ResultFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectAttempts.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connectionEvents.WithLabelValues(EventOpen)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.connectionEvents.WithLabelValues(EventError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.readPrefDowngrades))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.agenciesSeeded.WithLabelValues(SourceDev)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.agenciesSeeded.WithLabelValues(SourceInit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ephemeralStarts))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ConnectAttempt(nil)
	m.ConnectionEvent(EventClose)
	m.ReadPrefDowngrades(1)
	m.AgenciesSeeded(SourceDev, 2)
	m.EphemeralStart()
	m.ObserveBootstrap(time.Second)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveBootstrap(1500 * time.Millisecond)
	m.EphemeralStart()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "formdb_ephemeral_starts_total 1")
	assert.Contains(t, string(body), "formdb_bootstrap_duration_seconds_count 1")
	assert.Contains(t, string(body), "go_goroutines")
}
