package monitor

import (
	"strconv"
	"time"

	"github.com/himakhaitan/redislens/value"
)

type MemoryStats struct {
	UsedMemory            int64   `json:"used_memory"`
	UsedMemoryHuman       string  `json:"used_memory_human"`
	UsedMemoryPeak        int64   `json:"used_memory_peak"`
	UsedMemoryPeakHuman   string  `json:"used_memory_peak_human"`
	UsedMemoryDataset     int64   `json:"used_memory_dataset"`
	MemFragmentationRatio float64 `json:"mem_fragmentation_ratio"`
}

type KeyStats struct {
	Total int64 `json:"total"`
}

type PerformanceStats struct {
	InstantaneousOpsPerSec   int64 `json:"instantaneous_ops_per_sec"`
	TotalCommandsProcessed   int64 `json:"total_commands_processed"`
	TotalConnectionsReceived int64 `json:"total_connections_received"`
	ConnectedClients         int64 `json:"connected_clients"`
}

// Stats is the summary served by /api/stats.
type Stats struct {
	Memory      MemoryStats      `json:"memory"`
	Keys        KeyStats         `json:"keys"`
	Performance PerformanceStats `json:"performance"`
}

// Summarize groups the interesting INFO fields. Keys.Total counts the keys of
// database db only. Missing fields read as zero.
func Summarize(info Info, db int) Stats {
	return Stats{
		Memory: MemoryStats{
			UsedMemory:            info.intField("used_memory"),
			UsedMemoryHuman:       info.strField("used_memory_human", "0B"),
			UsedMemoryPeak:        info.intField("used_memory_peak"),
			UsedMemoryPeakHuman:   info.strField("used_memory_peak_human", "0B"),
			UsedMemoryDataset:     info.intField("used_memory_dataset"),
			MemFragmentationRatio: info.floatField("mem_fragmentation_ratio"),
		},
		Keys: KeyStats{Total: info.Keyspace()[db]},
		Performance: PerformanceStats{
			InstantaneousOpsPerSec:   info.intField("instantaneous_ops_per_sec"),
			TotalCommandsProcessed:   info.intField("total_commands_processed"),
			TotalConnectionsReceived: info.intField("total_connections_received"),
			ConnectedClients:         info.intField("connected_clients"),
		},
	}
}

type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type DashboardSection struct {
	Name string `json:"name"`
	Rows []Row  `json:"rows"`
}

var dashboardLayout = []struct {
	name   string
	fields []string
}{
	{"Server", []string{"redis_version", "redis_mode", "uptime_in_seconds", "os"}},
	{"Memory", []string{"used_memory_human", "used_memory_peak_human", "mem_fragmentation_ratio", "maxmemory_human"}},
	{"Stats", []string{"total_connections_received", "total_commands_processed", "instantaneous_ops_per_sec", "rejected_connections"}},
	{"CPU", []string{"used_cpu_sys", "used_cpu_user", "used_cpu_sys_children", "used_cpu_user_children"}},
}

// Dashboard lays out the Server, Memory, Stats and CPU sections. Missing
// fields render as "N/A".
func Dashboard(info Info) []DashboardSection {
	out := make([]DashboardSection, 0, len(dashboardLayout))
	for _, l := range dashboardLayout {
		sec := DashboardSection{Name: l.name}
		for _, f := range l.fields {
			sec.Rows = append(sec.Rows, Row{Label: f, Value: dashboardValue(info, f)})
		}
		out = append(out, sec)
	}
	return out
}

func dashboardValue(info Info, field string) string {
	v := info.Get(field)
	if v == "" {
		return "N/A"
	}
	switch field {
	case "uptime_in_seconds":
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return v
		}
		return value.FormatDuration(time.Duration(secs) * time.Second)
	case "mem_fragmentation_ratio":
		return value.FormatRatio(v)
	}
	return v
}

func (i Info) strField(name, def string) string {
	if v := i.Get(name); v != "" {
		return v
	}
	return def
}

func (i Info) intField(name string) int64 {
	n, _ := strconv.ParseInt(i.Get(name), 10, 64)
	return n
}

func (i Info) floatField(name string) float64 {
	f, _ := strconv.ParseFloat(i.Get(name), 64)
	return f
}
