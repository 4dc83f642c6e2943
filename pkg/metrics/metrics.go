package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 业务与 HTTP 指标
// 所有方法对 nil 接收者安全，测试中可直接传 nil
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	readings        *prometheus.CounterVec
	cyclesPublished prometheus.Counter
	invoicesCreated *prometheus.CounterVec
	notifications   *prometheus.CounterVec
}

// New 创建并注册指标
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ktx",
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ktx",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ktx",
			Name:      "meter_readings_recorded_total",
			Help:      "抄表录入次数（按结果）",
		}, []string{"result"}),
		cyclesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ktx",
			Name:      "utility_cycles_published_total",
			Help:      "已发布的水电周期数",
		}),
		invoicesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ktx",
			Name:      "invoices_created_total",
			Help:      "生成的账单数（按类别）",
		}, []string{"category"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ktx",
			Name:      "notification_dispatch_total",
			Help:      "通知分发结果",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.readings,
		m.cyclesPublished,
		m.invoicesCreated,
		m.notifications,
	)
	return m
}

// ObserveHTTP 记录一次 HTTP 请求
func (m *Metrics) ObserveHTTP(method, route string, status int, latency time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// ReadingRecorded 记录抄表结果，ok=false 表示该房间录入失败
func (m *Metrics) ReadingRecorded(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.readings.WithLabelValues("success").Inc()
		return
	}
	m.readings.WithLabelValues("failure").Inc()
}

// CyclePublished 周期发布成功
func (m *Metrics) CyclePublished() {
	if m == nil {
		return
	}
	m.cyclesPublished.Inc()
}

// InvoicesCreated 按类别累加生成的账单数
func (m *Metrics) InvoicesCreated(category string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.invoicesCreated.WithLabelValues(category).Add(float64(n))
}

// NotificationDispatched 通知分发结果：sent | skipped | failed
func (m *Metrics) NotificationDispatched(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}
