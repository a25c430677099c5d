package client

import (
	"context"
	"sync"

	reportmodels "onspace/services/report-service/models"
)

// ReportFetcher is the slice of Client the cache needs; tests supply fakes.
type ReportFetcher interface {
	Reports(ctx context.Context) ([]reportmodels.Report, error)
}

// ReportCache holds the in-memory snapshot of the report feed. Refresh
// replaces the snapshot atomically; Prepend optimistically inserts a newly
// created report without a refetch. All derived views preserve feed order.
type ReportCache struct {
	mu      sync.RWMutex
	reports []reportmodels.Report
	fetcher ReportFetcher
}

func NewReportCache(fetcher ReportFetcher) *ReportCache {
	return &ReportCache{fetcher: fetcher}
}

// Refresh refetches the full list and replaces the snapshot. On error the
// previous snapshot is kept.
func (c *ReportCache) Refresh(ctx context.Context) error {
	reports, err := c.fetcher.Reports(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.reports = reports
	c.mu.Unlock()
	return nil
}

// Prepend inserts a freshly created report at the head of the snapshot.
func (c *ReportCache) Prepend(report reportmodels.Report) {
	c.mu.Lock()
	c.reports = append([]reportmodels.Report{report}, c.reports...)
	c.mu.Unlock()
}

// All returns a copy of the snapshot.
func (c *ReportCache) All() []reportmodels.Report {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]reportmodels.Report, len(c.reports))
	copy(out, c.reports)
	return out
}

func (c *ReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.reports)
}

func (c *ReportCache) filter(keep func(reportmodels.Report) bool) []reportmodels.Report {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []reportmodels.Report{}
	for _, r := range c.reports {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// ByOwner is the "my reports" view.
func (c *ReportCache) ByOwner(ownerID string) []reportmodels.Report {
	return c.filter(func(r reportmodels.Report) bool { return r.UserID == ownerID })
}

func (c *ReportCache) ByStatus(status string) []reportmodels.Report {
	return c.filter(func(r reportmodels.Report) bool { return r.Status == status })
}

func (c *ReportCache) ByCategory(category string) []reportmodels.Report {
	return c.filter(func(r reportmodels.Report) bool { return r.Category == category })
}

// Stats recomputes the aggregate projections over the current snapshot.
func (c *ReportCache) Stats() Stats {
	return ComputeStats(c.All())
}
