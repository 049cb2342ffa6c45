package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/aretw0/promptflow/pkg/domain"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveChange(domain.ChangeEvent{Type: domain.ChangeMutation, Op: "add_node"})
	m.ObserveChange(domain.ChangeEvent{Type: domain.ChangeMutation, Op: "add_node"})
	m.ObserveImport(false)
	m.ObserveValidation(time.Millisecond, domain.NewResult([]domain.Issue{{}}, nil))
	m.SetOpenFlows(3)
	m.ObserveRequest("GET", "/flows", 200)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Changes.WithLabelValues("mutation", "add_node")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Imports.WithLabelValues("failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OpenFlows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/flows", "200")))

	count, err := testutil.GatherAndCount(reg, "promptflow_validation_issues")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveChange(domain.ChangeEvent{})
		m.ObserveImport(true)
		m.ObserveValidation(0, domain.Result{})
		m.ObserveLayout(0)
		m.SetOpenFlows(1)
		m.ObserveRequest("GET", "/", 200)
	})
}
