// Package metrics exposes per-engine protocol counters and gauges as
// a Prometheus collector, in the same Describe/Collect shape as
// runZeroInc-sockstats' TCPInfoCollector.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot is read by Collector.Collect to render the current value
// of every gauge; engines update it under their own synchronization
// discipline (the protocol engine is single-threaded per connection)
// and hand a read-only copy to the collector on each scrape.
type Snapshot struct {
	SessionID              string
	PacketsSent            float64
	PacketsRetransmitted   float64
	BytesDelivered         float64
	ChecksumFailures       float64
	ConnectionResets       float64
	SendWindowInFlight     float64
	RecvWindowGap          float64
}

// Source is implemented by anything that can report its current
// counters, typically a *protocol.Engine.
type Source interface {
	Snapshot() Snapshot
}

// Collector implements prometheus.Collector over a set of registered
// Sources, one per active protocol engine, labeled by session ID.
type Collector struct {
	mu      sync.Mutex
	sources map[string]Source

	packetsSent          *prometheus.Desc
	packetsRetransmitted *prometheus.Desc
	bytesDelivered       *prometheus.Desc
	checksumFailures     *prometheus.Desc
	connectionResets     *prometheus.Desc
	sendWindowInFlight   *prometheus.Desc
	recvWindowGap        *prometheus.Desc
}

// NewCollector builds an empty Collector; callers register each engine
// via Add after constructing it.
func NewCollector() *Collector {
	label := []string{"session"}
	return &Collector{
		sources:              make(map[string]Source),
		packetsSent:          prometheus.NewDesc("rudp_packets_sent_total", "Total packets sent, including retransmissions.", label, nil),
		packetsRetransmitted: prometheus.NewDesc("rudp_packets_retransmitted_total", "Total packets retransmitted on timeout or flush.", label, nil),
		bytesDelivered:       prometheus.NewDesc("rudp_bytes_delivered_total", "Total application bytes delivered in order.", label, nil),
		checksumFailures:     prometheus.NewDesc("rudp_checksum_failures_total", "Total frames dropped for checksum mismatch.", label, nil),
		connectionResets:     prometheus.NewDesc("rudp_connection_resets_total", "Total close sentinels observed.", label, nil),
		sendWindowInFlight:   prometheus.NewDesc("rudp_send_window_inflight", "Packets currently outstanding on the send window.", label, nil),
		recvWindowGap:        prometheus.NewDesc("rudp_recv_window_gap", "Sequence gap between read cursor and confirmed cursor on the receive window.", label, nil),
	}
}

// Add registers a Source under sessionID; a second Add with the same
// ID replaces the previous registration.
func (c *Collector) Add(sessionID string, s Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[sessionID] = s
}

// Remove unregisters a Source, typically once its engine has closed.
func (c *Collector) Remove(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, sessionID)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.packetsSent
	ch <- c.packetsRetransmitted
	ch <- c.bytesDelivered
	ch <- c.checksumFailures
	ch <- c.connectionResets
	ch <- c.sendWindowInFlight
	ch <- c.recvWindowGap
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, s := range c.sources {
		snap := s.Snapshot()
		ch <- prometheus.MustNewConstMetric(c.packetsSent, prometheus.CounterValue, snap.PacketsSent, id)
		ch <- prometheus.MustNewConstMetric(c.packetsRetransmitted, prometheus.CounterValue, snap.PacketsRetransmitted, id)
		ch <- prometheus.MustNewConstMetric(c.bytesDelivered, prometheus.CounterValue, snap.BytesDelivered, id)
		ch <- prometheus.MustNewConstMetric(c.checksumFailures, prometheus.CounterValue, snap.ChecksumFailures, id)
		ch <- prometheus.MustNewConstMetric(c.connectionResets, prometheus.CounterValue, snap.ConnectionResets, id)
		ch <- prometheus.MustNewConstMetric(c.sendWindowInFlight, prometheus.GaugeValue, snap.SendWindowInFlight, id)
		ch <- prometheus.MustNewConstMetric(c.recvWindowGap, prometheus.GaugeValue, snap.RecvWindowGap, id)
	}
}
