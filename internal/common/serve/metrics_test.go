package serve

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "docbench_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Add(3)

	server := httptest.NewServer(MetricsHandler(registry))
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "docbench_test_total 3")
}

func TestMetricsHandler_Health(t *testing.T) {
	server := httptest.NewServer(MetricsHandler(prometheus.NewRegistry()))
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServeMetrics_Shutdown(t *testing.T) {
	shutdown, err := ServeMetrics(0, prometheus.NewRegistry())
	require.NoError(t, err)
	shutdown()
}
