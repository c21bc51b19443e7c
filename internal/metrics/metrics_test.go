package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kebiao/pkg/timetable"
)

var _ timetable.Observer = (*Registry)(nil)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRegistry_ObserveGeneration(t *testing.T) {
	r := NewRegistry()

	r.GenerationStarted()
	assert.Contains(t, scrape(t, r), "kebiao_generation_running 1")

	r.ObserveGeneration("success", 2*time.Second, 120, 950)
	r.ObserveGeneration("timeout", 3*time.Minute, 0, 0)

	body := scrape(t, r)
	assert.Contains(t, body, "kebiao_generation_running 0")
	assert.Contains(t, body, `kebiao_generation_total{outcome="success"} 1`)
	assert.Contains(t, body, `kebiao_generation_total{outcome="timeout"} 1`)
	// 超时不覆盖当前课表的指标
	assert.Contains(t, body, "kebiao_timetable_entries 120")
	assert.Contains(t, body, "kebiao_solution_score 950")
}

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()

	r.RecordMove("committed")
	r.RecordMove("rejected")
	r.RecordMove("rejected")
	r.RecordConstraintViolation("room_clash", "hard", 2)
	r.RecordConstraintViolation("room_clash", "hard", 0)
	r.SetSnapshot(4, 118, 900)
	r.SetFairnessGini("workload", 0.25)

	body := scrape(t, r)
	assert.Contains(t, body, `kebiao_moves_total{result="rejected"} 2`)
	assert.Contains(t, body, `kebiao_constraint_violations_total{category="hard",constraint_type="room_clash"} 2`)
	assert.Contains(t, body, "kebiao_snapshot_version 4")
	assert.Contains(t, body, `kebiao_fairness_gini{metric_type="workload"} 0.25`)
}

func TestRegistry_RequestMetrics(t *testing.T) {
	r := NewRegistry()
	r.RecordRequestMetrics(http.MethodGet, "/api/v1/timetable", http.StatusOK, 15*time.Millisecond)

	body := scrape(t, r)
	assert.Contains(t, body, `kebiao_http_requests_total{method="GET",path="/api/v1/timetable",status="200"} 1`)
	assert.Contains(t, body, "kebiao_goroutines")
}

func TestRegistry_Nil(t *testing.T) {
	var r *Registry
	r.RecordMove("committed")
	r.ObserveGeneration("success", time.Second, 1, 1)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
