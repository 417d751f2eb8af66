package importer

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Metrics aggregates run-level counters. Safe for concurrent use from batch
// chunk goroutines.
type Metrics struct {
	mu         sync.Mutex
	successes  int
	warnings   int
	errors     int
	dbOps      int
	cacheHits  int
	operations map[string]int
}

// MetricsSnapshot is an immutable copy of the counters at one point in time
type MetricsSnapshot struct {
	Successes    int
	Warnings     int
	Errors       int
	DBOperations int
	CacheHits    int
	Operations   map[string]int
}

// NewMetrics creates an empty per-run metrics collector
func NewMetrics() *Metrics {
	return &Metrics{operations: make(map[string]int)}
}

// Success counts one successfully processed unit of work
func (m *Metrics) Success() {
	m.mu.Lock()
	m.successes++
	m.mu.Unlock()
}

// Warning counts one degraded-but-continued condition
func (m *Metrics) Warning() {
	m.mu.Lock()
	m.warnings++
	m.mu.Unlock()
}

// Error counts one skipped unit of work
func (m *Metrics) Error() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

// RecordDBOp counts one store operation by name
func (m *Metrics) RecordDBOp(operation string) {
	m.mu.Lock()
	m.dbOps++
	m.operations[operation]++
	m.mu.Unlock()
}

// RecordCacheHit counts one memoization hit by cache name
func (m *Metrics) RecordCacheHit(name string) {
	m.mu.Lock()
	m.cacheHits++
	m.operations["cache."+name]++
	m.mu.Unlock()
}

// Snapshot copies the current counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	operations := make(map[string]int, len(m.operations))
	for op, count := range m.operations {
		operations[op] = count
	}
	return MetricsSnapshot{
		Successes:    m.successes,
		Warnings:     m.warnings,
		Errors:       m.errors,
		DBOperations: m.dbOps,
		CacheHits:    m.cacheHits,
		Operations:   operations,
	}
}

// LogDashboard emits the final metrics dashboard
func (m *Metrics) LogDashboard(logger *logrus.Entry) {
	snapshot := m.Snapshot()
	logger.WithFields(logrus.Fields{
		"successes":    snapshot.Successes,
		"warnings":     snapshot.Warnings,
		"errors":       snapshot.Errors,
		"dbOperations": snapshot.DBOperations,
		"cacheHits":    snapshot.CacheHits,
	}).Info("import metrics")

	names := make([]string, 0, len(snapshot.Operations))
	for name := range snapshot.Operations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		logger.WithFields(logrus.Fields{"operation": name, "count": snapshot.Operations[name]}).Info("operation count")
	}
}
