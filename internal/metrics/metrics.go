// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "grabber"

// Metrics 汇总服务的 Prometheus 指标。nil 的 *Metrics 可以安全调用，不做任何事。
type Metrics struct {
	probesTotal     *prometheus.CounterVec
	downloadsTotal  *prometheus.CounterVec
	inProgress      prometheus.Gauge
	downloadSeconds prometheus.Histogram
	sweptTotal      prometheus.Counter
	sweepErrors     prometheus.Counter
}

// New 创建并注册所有指标
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		probesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Metadata probes by result.",
		}, []string{"result"}),
		downloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Downloads by result.",
		}, []string{"result"}),
		inProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "downloads_in_progress",
			Help:      "Downloads currently running.",
		}),
		downloadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Time spent in the extraction library per download.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		sweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_files_total",
			Help:      "Files removed by the retention sweeper.",
		}),
		sweepErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_errors_total",
			Help:      "Filesystem errors seen by the retention sweeper.",
		}),
	}

	reg.MustRegister(m.probesTotal, m.downloadsTotal, m.inProgress, m.downloadSeconds, m.sweptTotal, m.sweepErrors)
	return m
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordProbe 记录一次元信息查询
func (m *Metrics) RecordProbe(ok bool) {
	if m == nil {
		return
	}
	m.probesTotal.WithLabelValues(result(ok)).Inc()
}

// DownloadStarted 标记一次下载开始，返回的函数在下载结束时调用
func (m *Metrics) DownloadStarted() func(ok bool) {
	if m == nil {
		return func(bool) {}
	}
	start := time.Now()
	m.inProgress.Inc()
	return func(ok bool) {
		m.inProgress.Dec()
		m.downloadSeconds.Observe(time.Since(start).Seconds())
		m.downloadsTotal.WithLabelValues(result(ok)).Inc()
	}
}

// RecordSwept 记录清理掉的文件数
func (m *Metrics) RecordSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweptTotal.Add(float64(n))
}

// RecordSweepError 记录一次清理错误
func (m *Metrics) RecordSweepError() {
	if m == nil {
		return
	}
	m.sweepErrors.Inc()
}
