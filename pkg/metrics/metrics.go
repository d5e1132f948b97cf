// Package metrics keeps local operational time series (check-in counts,
// drawer revenue, process health) in an embedded tstorage database under the
// application workdir. It backs the dashboard trend widgets; it is not an
// external monitoring integration.
package metrics

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"go.uber.org/zap"
)

var (
	storage tstorage.Storage
	mu      sync.RWMutex
)

// InitMetrics opens the metrics store under workdir/metrics.
func InitMetrics(workdir string) error {
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithPartitionDuration(24*time.Hour),
		tstorage.WithRetention(90*24*time.Hour),
	)
	if err != nil {
		return err
	}
	mu.Lock()
	storage = s
	mu.Unlock()
	return nil
}

// Close flushes and closes the metrics store.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if storage != nil {
		if err := storage.Close(); err != nil {
			zap.L().Warn("failed to close metrics storage", zap.Error(err))
		}
		storage = nil
	}
}

func insert(name string, value float64) {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return
	}
	err := s.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
	if err != nil {
		zap.L().Debug("metrics insert failed", zap.String("metric", name), zap.Error(err))
	}
}

// SetGauge records the current value of a gauge metric.
func SetGauge(name string, value int64) {
	insert(name, float64(value))
}

// RecordEvent records one occurrence of a countable event.
func RecordEvent(name string) {
	insert(name, 1)
}

// RecordValue records a measured amount (e.g. sale revenue).
func RecordValue(name string, value float64) {
	insert(name, value)
}

// SumSince returns the sum of all points of name recorded at or after from.
func SumSince(name string, from time.Time) float64 {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return 0
	}
	points, err := s.Select(name, nil, from.Unix(), time.Now().Unix()+1)
	if err != nil {
		return 0
	}
	var total float64
	for _, p := range points {
		total += p.Value
	}
	return total
}

// Latest returns the most recent value of name within the past day, or 0.
func Latest(name string) float64 {
	mu.RLock()
	s := storage
	mu.RUnlock()
	if s == nil {
		return 0
	}
	points, err := s.Select(name, nil, time.Now().Add(-24*time.Hour).Unix(), time.Now().Unix()+1)
	if err != nil || len(points) == 0 {
		return 0
	}
	return points[len(points)-1].Value
}
