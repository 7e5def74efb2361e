// Package metrics exposes the monitor pipeline counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tcnet-monitor/internal/tcnet"
)

// Metrics contains all Prometheus metrics for the monitor
type Metrics struct {
	registry *prometheus.Registry

	PacketsReceived  *prometheus.CounterVec
	ParseErrors      *prometheus.CounterVec
	UnsupportedTags  *prometheus.CounterVec
	DroppedDatagrams prometheus.Counter
	SequenceLoss     prometheus.Counter

	LayerChanges *prometheus.CounterVec
	ActiveNodes  prometheus.Gauge

	RequestsSent  *prometheus.CounterVec
	RequestErrors prometheus.Counter
	Announcements *prometheus.CounterVec
}

// New creates all metrics on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		PacketsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tcnet_packets_received_total",
			Help: "Total number of TCNet packets decoded, by message type",
		}, []string{"type"}),
		ParseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tcnet_parse_errors_total",
			Help: "Total number of datagrams dropped by the decoder, by error kind",
		}, []string{"kind"}),
		UnsupportedTags: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tcnet_unsupported_packets_total",
			Help: "Total number of packets with a tag that has no decoder",
		}, []string{"type"}),
		DroppedDatagrams: factory.NewCounter(prometheus.CounterOpts{
			Name: "tcnet_receive_queue_drops_total",
			Help: "Total number of datagrams dropped because the receive queue was full",
		}),
		SequenceLoss: factory.NewCounter(prometheus.CounterOpts{
			Name: "tcnet_sequence_gaps_total",
			Help: "Total number of packets missing from node sequence numbers",
		}),

		LayerChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tcnet_layer_changes_total",
			Help: "Total number of layer change events, by kind",
		}, []string{"kind"}),
		ActiveNodes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tcnet_active_nodes",
			Help: "Current number of TCNet nodes seen within the node timeout",
		}),

		RequestsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tcnet_requests_sent_total",
			Help: "Total number of data requests sent, by data type",
		}, []string{"data_type"}),
		RequestErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "tcnet_request_errors_total",
			Help: "Total number of data requests that could not be sent",
		}),
		Announcements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tcnet_announcements_total",
			Help: "Total number of OptIn/OptOut packets broadcast",
		}, []string{"type"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordPacket counts one decoded packet
func (m *Metrics) RecordPacket(t tcnet.MessageType) {
	m.PacketsReceived.WithLabelValues(t.String()).Inc()
}

// RecordParseError counts one dropped datagram
func (m *Metrics) RecordParseError(kind string) {
	m.ParseErrors.WithLabelValues(kind).Inc()
}

// RecordUnsupported counts one packet without a decoder. Data packets are
// labelled with their data type.
func (m *Metrics) RecordUnsupported(u *tcnet.UnknownPacket) {
	label := u.Header.MessageType.String()
	if u.Header.MessageType == tcnet.MessageData {
		label += "/" + u.DataType.String()
	}
	m.UnsupportedTags.WithLabelValues(label).Inc()
}

// RecordLayerChange counts one change event
func (m *Metrics) RecordLayerChange(kind string) {
	m.LayerChanges.WithLabelValues(kind).Inc()
}

// RecordRequest counts one request sent
func (m *Metrics) RecordRequest(dt tcnet.DataType) {
	m.RequestsSent.WithLabelValues(dt.String()).Inc()
}
