package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	collector := NewCollector()
	require.NotNil(t, collector)
	assert.NotNil(t, collector.GetRegistry())
}

func TestRegisterCounter(t *testing.T) {
	collector := NewCollector()
	counter := collector.RegisterCounter("test_counter", "Test counter", []string{"label1"})
	require.NotNil(t, counter)

	// Verify it's registered
	registry := collector.GetRegistry()
	err := registry.Register(counter)
	// Should fail because it's already registered
	assert.Error(t, err)
}

func TestRegisterGauge(t *testing.T) {
	collector := NewCollector()
	gauge := collector.RegisterGauge("test_gauge", "Test gauge", []string{"label1"})
	require.NotNil(t, gauge)

	registry := collector.GetRegistry()
	err := registry.Register(gauge)
	assert.Error(t, err)
}

func TestRegisterHistogram_DefaultBuckets(t *testing.T) {
	collector := NewCollector()
	histogram := collector.RegisterHistogram("test_histogram_default", "Test histogram", []string{"label1"}, nil)
	require.NotNil(t, histogram)

	registry := collector.GetRegistry()
	err := registry.Register(histogram)
	assert.Error(t, err)
}

func TestStoreMetrics_NilSafe(t *testing.T) {
	var m *StoreMetrics
	// Every recorder must be callable on a nil receiver.
	m.RecordOperation("put", StatusSuccess, time.Millisecond)
	m.RecordContention("put")
	m.RecordReaped(3)
	m.SetRowCounts(10, 2)
}

func TestStoreMetrics_Record(t *testing.T) {
	collector := NewCollector()
	m := NewStoreMetrics(collector)

	m.RecordOperation("put", StatusSuccess, 5*time.Millisecond)
	m.RecordOperation("get", StatusError, time.Millisecond)
	m.RecordContention("put")
	m.RecordReaped(7)
	m.SetRowCounts(100, 4)

	families, err := collector.GetRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names[MetricStoreOperationsTotal])
	assert.True(t, names[MetricStoreOperationDuration])
	assert.True(t, names[MetricStoreReapedTotal])
	assert.True(t, names[MetricStoreContentionsTotal])
	assert.True(t, names[MetricStoreRows])
	assert.True(t, names[MetricStoreExpiredRows])
}

func TestAPIMetrics_Record(t *testing.T) {
	collector := NewCollector()
	m := NewAPIMetrics(collector)

	m.RecordRequest("POST", "/api/v1/kv/set", 200, 3*time.Millisecond)

	families, err := collector.GetRegistry().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	var nilMetrics *APIMetrics
	nilMetrics.RecordRequest("GET", "/health", 200, time.Millisecond)
}
