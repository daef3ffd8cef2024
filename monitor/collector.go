package monitor

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "redislens"

type gauge struct {
	desc  *prometheus.Desc
	value func(Snapshot) float64
}

// Collector exports the poller's last snapshot. It never polls on scrape.
type Collector struct {
	poller *Poller

	up       *prometheus.Desc
	polls    *prometheus.Desc
	failures *prometheus.Desc
	skipped  *prometheus.Desc
	version  *prometheus.Desc
	keys     *prometheus.Desc
	gauges   []gauge
}

func NewCollector(p *Poller) *Collector {
	labels := []string{"addr"}
	desc := func(name, help string, extra ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(Namespace, "", name), help, append(labels, extra...), nil)
	}

	return &Collector{
		poller:   p,
		up:       desc("up", "whether the last INFO poll succeeded"),
		polls:    desc("monitor_polls_total", "INFO polls attempted"),
		failures: desc("monitor_poll_failures_total", "INFO polls that failed"),
		skipped:  desc("monitor_polls_skipped_total", "ticks skipped because a poll was still running"),
		version:  desc("server_info", "server version and mode", "version", "mode"),
		keys:     desc("keyspace_keys", "keys per database", "db"),
		gauges: []gauge{
			{desc("memory_used_bytes", "used_memory"), func(s Snapshot) float64 { return float64(s.Stats.Memory.UsedMemory) }},
			{desc("memory_peak_bytes", "used_memory_peak"), func(s Snapshot) float64 { return float64(s.Stats.Memory.UsedMemoryPeak) }},
			{desc("memory_dataset_bytes", "used_memory_dataset"), func(s Snapshot) float64 { return float64(s.Stats.Memory.UsedMemoryDataset) }},
			{desc("memory_fragmentation_ratio", "mem_fragmentation_ratio"), func(s Snapshot) float64 { return s.Stats.Memory.MemFragmentationRatio }},
			{desc("connected_clients", "connected_clients"), func(s Snapshot) float64 { return float64(s.Stats.Performance.ConnectedClients) }},
			{desc("instantaneous_ops_per_sec", "instantaneous_ops_per_sec"), func(s Snapshot) float64 { return float64(s.Stats.Performance.InstantaneousOpsPerSec) }},
			{desc("commands_processed", "total_commands_processed"), func(s Snapshot) float64 { return float64(s.Stats.Performance.TotalCommandsProcessed) }},
			{desc("connections_received", "total_connections_received"), func(s Snapshot) float64 { return float64(s.Stats.Performance.TotalConnectionsReceived) }},
			{desc("uptime_seconds", "uptime_in_seconds"), func(s Snapshot) float64 { return float64(s.Info.intField("uptime_in_seconds")) }},
		},
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	ch <- c.polls
	ch <- c.failures
	ch <- c.skipped
	ch <- c.version
	ch <- c.keys
	for _, g := range c.gauges {
		ch <- g.desc
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	addr := c.poller.conn.Addr()

	up := 0.0
	if c.poller.Up() {
		up = 1
	}
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, up, addr)
	ch <- prometheus.MustNewConstMetric(c.polls, prometheus.CounterValue, float64(c.poller.Polls()), addr)
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(c.poller.Failures()), addr)
	ch <- prometheus.MustNewConstMetric(c.skipped, prometheus.CounterValue, float64(c.poller.Skipped()), addr)

	snap, ok := c.poller.Last()
	if !ok {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.version, prometheus.GaugeValue, 1, addr, snap.Version, snap.Info.Get("redis_mode"))

	ks := snap.Info.Keyspace()
	for _, db := range databases(ks) {
		ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(ks[db]), addr, strconv.Itoa(db))
	}
	for _, g := range c.gauges {
		ch <- prometheus.MustNewConstMetric(g.desc, prometheus.GaugeValue, g.value(snap), addr)
	}
}
