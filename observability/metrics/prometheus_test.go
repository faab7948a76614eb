package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"collector", "collector"},
		{"lytix.collector", "lytix_collector"},
		{"my-service", "my_service"},
		{"9lives", "_9lives"},
		{"", "lytix"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestPrometheusMetrics_RecordSuccess(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.RecordSuccess("/increment")
	m.RecordSuccess("/increment")
	m.RecordSuccess("/modelIO")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsTotal.WithLabelValues("success", "/increment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsTotal.WithLabelValues("success", "/modelIO")))
}

func TestPrometheusMetrics_RecordError(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.RecordError("/increment", "network")
	m.RecordError("/increment", "network")
	m.RecordError("/lerror", "http_status")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsTotal.WithLabelValues("error", "/increment")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("network", "/increment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal.WithLabelValues("http_status", "/lerror")))
}

func TestPrometheusMetrics_Operations(t *testing.T) {
	m := New("test", prometheus.NewRegistry())

	m.StartOperation("send")
	m.StartOperation("send")
	m.StartOperation("drain")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.inProgress.WithLabelValues("send")))

	m.EndOperation("send")
	m.EndOperation("drain")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inProgress.WithLabelValues("send")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inProgress.WithLabelValues("drain")))
}

func TestNew_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := New("collector", reg)
	var second *PrometheusMetrics
	assert.NotPanics(t, func() { second = New("collector", reg) })

	first.RecordSuccess("/increment")
	assert.Equal(t, 1.0, testutil.ToFloat64(second.eventsTotal.WithLabelValues("success", "/increment")))
}

func TestNoop(t *testing.T) {
	var n Noop
	assert.NotPanics(t, func() {
		n.StartOperation("send")
		n.RecordPayloadSize("/increment", 10)
		n.EndOperation("send")
	})
}
