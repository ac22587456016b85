package utils

import (
	"sync"
	"time"
)

// Tracks performance metrics across the client engine
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64

	// Maps operation name to list of latencies in nanoseconds
	operationTimes map[string][]int64

	systemStartTime time.Time
}

// MetricsSummary is a point-in-time snapshot for the health endpoint.
type MetricsSummary struct {
	Requests         uint64           `json:"requests"`
	Errors           uint64           `json:"errors"`
	UptimeSeconds    float64          `json:"uptimeSeconds"`
	AverageLatencyMs map[string]int64 `json:"averageLatencyMs"`
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		operationTimes:  make(map[string][]int64),
		systemStartTime: time.Now(),
	}
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.requestCount++
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errorCount++
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.operationTimes[operationName]; !exists {
		mc.operationTimes[operationName] = make([]int64, 0)
	}
	mc.operationTimes[operationName] = append(
		mc.operationTimes[operationName],
		duration.Nanoseconds(),
	)
}

func (mc *MetricsCollector) Summary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	averages := make(map[string]int64, len(mc.operationTimes))
	for op, samples := range mc.operationTimes {
		if len(samples) == 0 {
			continue
		}
		var total int64
		for _, ns := range samples {
			total += ns
		}
		averages[op] = total / int64(len(samples)) / int64(time.Millisecond)
	}

	return MetricsSummary{
		Requests:         mc.requestCount,
		Errors:           mc.errorCount,
		UptimeSeconds:    time.Since(mc.systemStartTime).Seconds(),
		AverageLatencyMs: averages,
	}
}
