package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustRegisterOnFreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { MustRegister(reg) })
}

func TestObserveSourceCountsItems(t *testing.T) {
	before := testutil.ToFloat64(SourceItems.WithLabelValues("feed"))
	ObserveSource("feed", time.Now(), true, 3)
	ObserveSource("feed", time.Now(), false, 0)
	assert.Equal(t, before+3, testutil.ToFloat64(SourceItems.WithLabelValues("feed")))

	unknown := testutil.ToFloat64(SourceItems.WithLabelValues("unknown"))
	ObserveSource("", time.Now(), true, 1)
	assert.Equal(t, unknown+1, testutil.ToFloat64(SourceItems.WithLabelValues("unknown")))
}
