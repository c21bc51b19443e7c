// Package metrics 提供Prometheus监控指标
package metrics

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 课表服务的指标集合
type Registry struct {
	registry *prometheus.Registry
	handler  http.Handler

	requestTotal       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	generationTotal    *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	generationRunning  prometheus.Gauge
	timetableEntries   prometheus.Gauge
	solutionScore      prometheus.Gauge
	moveTotal          *prometheus.CounterVec
	constraintTotal    *prometheus.CounterVec
	fairnessGini       *prometheus.GaugeVec
	coverageRate       prometheus.Gauge
	snapshotVersion    prometheus.Gauge
}

var (
	registry *Registry
	once     sync.Once
)

// GetRegistry 获取全局注册表
func GetRegistry() *Registry {
	once.Do(func() {
		registry = NewRegistry()
	})
	return registry
}

// NewRegistry 创建独立的注册表
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kebiao_http_requests_total",
		Help: "HTTP请求总数",
	}, []string{"method", "path", "status"})

	r.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kebiao_http_request_duration_seconds",
		Help:    "HTTP请求延迟",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	}, []string{"method", "path"})

	r.generationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kebiao_generation_total",
		Help: "课表生成次数",
	}, []string{"outcome"})

	r.generationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kebiao_generation_duration_seconds",
		Help:    "课表生成耗时",
		Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0, 180.0},
	}, []string{"outcome"})

	r.generationRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kebiao_generation_running",
		Help: "是否有正在进行的生成",
	})

	r.timetableEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kebiao_timetable_entries",
		Help: "当前课表的课次数",
	})

	r.solutionScore = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kebiao_solution_score",
		Help: "当前课表的适应度分数",
	})

	r.moveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kebiao_moves_total",
		Help: "课次调整请求数",
	}, []string{"result"})

	r.constraintTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kebiao_constraint_violations_total",
		Help: "规则检查发现的违规数",
	}, []string{"constraint_type", "category"})

	r.fairnessGini = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kebiao_fairness_gini",
		Help: "公平性基尼系数",
	}, []string{"metric_type"})

	r.coverageRate = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kebiao_coverage_rate",
		Help: "课程需求覆盖率",
	})

	r.snapshotVersion = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kebiao_snapshot_version",
		Help: "当前已提交课表的版本",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "kebiao_goroutines",
		Help: "当前协程数",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	r.registry.MustRegister(
		r.requestTotal, r.requestDuration,
		r.generationTotal, r.generationDuration, r.generationRunning,
		r.timetableEntries, r.solutionScore, r.moveTotal, r.constraintTotal,
		r.fairnessGini, r.coverageRate, r.snapshotVersion, goroutines,
	)
	r.handler = promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	return r
}

// Handler 返回Prometheus格式的指标HTTP处理器
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// RecordRequestMetrics 记录请求指标
func (r *Registry) RecordRequestMetrics(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.requestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// GenerationStarted 标记生成开始
func (r *Registry) GenerationStarted() {
	if r == nil {
		return
	}
	r.generationRunning.Set(1)
}

// ObserveGeneration 实现 timetable.Observer
func (r *Registry) ObserveGeneration(outcome string, duration time.Duration, entries int, score float64) {
	if r == nil {
		return
	}
	r.generationRunning.Set(0)
	r.generationTotal.WithLabelValues(outcome).Inc()
	r.generationDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	if outcome == "success" {
		r.timetableEntries.Set(float64(entries))
		r.solutionScore.Set(score)
	}
}

// RecordMove 记录一次调整请求的结果：committed、rejected 或 error
func (r *Registry) RecordMove(result string) {
	if r == nil {
		return
	}
	r.moveTotal.WithLabelValues(result).Inc()
}

// RecordConstraintViolation 记录规则检查发现的违规
func (r *Registry) RecordConstraintViolation(constraintType, category string, count int) {
	if r == nil || count == 0 {
		return
	}
	r.constraintTotal.WithLabelValues(constraintType, category).Add(float64(count))
}

// SetSnapshot 更新当前课表的版本、课次数与分数
func (r *Registry) SetSnapshot(version int64, entries int, score float64) {
	if r == nil {
		return
	}
	r.snapshotVersion.Set(float64(version))
	r.timetableEntries.Set(float64(entries))
	r.solutionScore.Set(score)
}

// SetFairnessGini 设置公平性基尼系数
func (r *Registry) SetFairnessGini(metricType string, gini float64) {
	if r == nil {
		return
	}
	r.fairnessGini.WithLabelValues(metricType).Set(gini)
}

// SetCoverageRate 设置覆盖率
func (r *Registry) SetCoverageRate(rate float64) {
	if r == nil {
		return
	}
	r.coverageRate.Set(rate)
}
