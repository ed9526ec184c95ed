package jobs

import (
	"context"

	"github.com/minho/argos/internal/scanner"
	"github.com/minho/argos/pkg/logger"
)

// MaintenanceJob performs daily housekeeping
// 장 마감 후 보강 캐시를 비워 다음 장에서 묵은 값을 쓰지 않게 함
type MaintenanceJob struct {
	cache  *scanner.EnrichmentCache
	logger *logger.Logger
}

// NewMaintenanceJob creates the maintenance job
func NewMaintenanceJob(cache *scanner.EnrichmentCache, log *logger.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		cache:  cache,
		logger: log.Component("maintenance"),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Schedule runs daily at 16:00 (장 마감 후)
func (j *MaintenanceJob) Schedule() string {
	return "0 0 16 * * *"
}

// Run clears the enrichment cache and logs its hit rate
func (j *MaintenanceJob) Run(ctx context.Context) error {
	hits, misses := j.cache.Stats()
	entries := j.cache.Len()
	j.cache.Clear()

	j.logger.WithFields(map[string]interface{}{
		"entries": entries,
		"hits":    hits,
		"misses":  misses,
	}).Info("Enrichment cache cleared")

	return nil
}
