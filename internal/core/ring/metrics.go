package ring

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 环指标收集器
//
// 实现 prometheus.Collector：
//   - ringnode_ring_connections: 抓取时读取连接表大小
//   - ringnode_ring_admissions_total{reason,accepted}: AcceptAndInsert 的判定计数
type Metrics struct {
	connections *prometheus.Desc
	admissions  *prometheus.CounterVec
	table       atomic.Pointer[Table]
}

var _ prometheus.Collector = (*Metrics)(nil)

// NewMetrics 创建指标收集器
func NewMetrics() *Metrics {
	return &Metrics{
		connections: prometheus.NewDesc(
			"ringnode_ring_connections",
			"Current number of entries in the ring connection table.",
			nil, nil,
		),
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ringnode",
			Subsystem: "ring",
			Name:      "admissions_total",
			Help:      "Admission decisions taken when inserting peers into the ring.",
		}, []string{"reason", "accepted"}),
	}
}

// attach 绑定要观测的连接表
func (m *Metrics) attach(t *Table) {
	m.table.Store(t)
}

// observe 记录一次准入判定
func (m *Metrics) observe(d Decision) {
	m.admissions.WithLabelValues(d.Reason.String(), strconv.FormatBool(d.Accept)).Inc()
}

// Describe 实现 prometheus.Collector
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.connections
	m.admissions.Describe(ch)
}

// Collect 实现 prometheus.Collector
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	if t := m.table.Load(); t != nil {
		ch <- prometheus.MustNewConstMetric(m.connections, prometheus.GaugeValue, float64(t.Len()))
	}
	m.admissions.Collect(ch)
}
