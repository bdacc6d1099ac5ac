package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))

	// A second registration of the same collectors is rejected.
	require.Error(t, Register(reg))

	// Separate registries can share the package collectors.
	require.NoError(t, Register(prometheus.NewRegistry()))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(StoreQueries.WithLabelValues("aggregate", ResultOK))
	StoreQueries.WithLabelValues("aggregate", ResultOK).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(StoreQueries.WithLabelValues("aggregate", ResultOK)))

	open := testutil.ToFloat64(OpenStores)
	OpenStores.Inc()
	OpenStores.Dec()
	assert.Equal(t, open, testutil.ToFloat64(OpenStores))
}
