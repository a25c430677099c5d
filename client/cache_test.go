package client

import (
	"context"
	"errors"
	"testing"
	"time"

	reportmodels "onspace/services/report-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	reports []reportmodels.Report
	err     error
	calls   int
}

func (f *fakeFetcher) Reports(ctx context.Context) ([]reportmodels.Report, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.reports, nil
}

func feedReport(id, owner, status string, age time.Duration) reportmodels.Report {
	return reportmodels.Report{
		ID:        id,
		UserID:    owner,
		Status:    status,
		CreatedAt: time.Now().Add(-age),
	}
}

func TestReportCache_RefreshReplacesSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{reports: []reportmodels.Report{
		feedReport("r1", "u1", "pendente", time.Minute),
	}}
	cache := NewReportCache(fetcher)

	require.NoError(t, cache.Refresh(context.Background()))
	assert.Equal(t, 1, cache.Len())

	fetcher.reports = []reportmodels.Report{
		feedReport("r2", "u2", "pendente", time.Second),
		feedReport("r1", "u1", "pendente", time.Minute),
	}
	require.NoError(t, cache.Refresh(context.Background()))

	all := cache.All()
	require.Len(t, all, 2)
	assert.Equal(t, "r2", all[0].ID)
	assert.Equal(t, "r1", all[1].ID)
	assert.Equal(t, 2, fetcher.calls)
}

func TestReportCache_RefreshErrorKeepsSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{reports: []reportmodels.Report{
		feedReport("r1", "u1", "pendente", time.Minute),
	}}
	cache := NewReportCache(fetcher)
	require.NoError(t, cache.Refresh(context.Background()))

	fetcher.err = errors.New("network down")
	err := cache.Refresh(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, cache.Len())
}

func TestReportCache_PrependPutsNewestFirst(t *testing.T) {
	fetcher := &fakeFetcher{reports: []reportmodels.Report{
		feedReport("r1", "u1", "pendente", time.Minute),
	}}
	cache := NewReportCache(fetcher)
	require.NoError(t, cache.Refresh(context.Background()))

	cache.Prepend(feedReport("r2", "u2", "pendente", 0))

	all := cache.All()
	require.Len(t, all, 2)
	assert.Equal(t, "r2", all[0].ID)
	// No refetch for an optimistic insert.
	assert.Equal(t, 1, fetcher.calls)
}

func TestReportCache_ByOwnerPreservesOrder(t *testing.T) {
	fetcher := &fakeFetcher{reports: []reportmodels.Report{
		feedReport("r4", "u1", "pendente", 1*time.Minute),
		feedReport("r3", "u2", "pendente", 2*time.Minute),
		feedReport("r2", "u1", "resolvido", 3*time.Minute),
		feedReport("r1", "u1", "pendente", 4*time.Minute),
	}}
	cache := NewReportCache(fetcher)
	require.NoError(t, cache.Refresh(context.Background()))

	mine := cache.ByOwner("u1")
	require.Len(t, mine, 3)
	assert.Equal(t, []string{"r4", "r2", "r1"}, []string{mine[0].ID, mine[1].ID, mine[2].ID})
	for _, r := range mine {
		assert.Equal(t, "u1", r.UserID)
	}
}

func TestReportCache_ByStatusAndCategory(t *testing.T) {
	r1 := feedReport("r1", "u1", "resolvido", time.Minute)
	r1.Category = "buraco"
	r2 := feedReport("r2", "u2", "pendente", 2*time.Minute)
	r2.Category = "perigo"

	fetcher := &fakeFetcher{reports: []reportmodels.Report{r1, r2}}
	cache := NewReportCache(fetcher)
	require.NoError(t, cache.Refresh(context.Background()))

	resolved := cache.ByStatus("resolvido")
	require.Len(t, resolved, 1)
	assert.Equal(t, "r1", resolved[0].ID)

	hazards := cache.ByCategory("perigo")
	require.Len(t, hazards, 1)
	assert.Equal(t, "r2", hazards[0].ID)
}

func TestReportCache_AllReturnsCopy(t *testing.T) {
	fetcher := &fakeFetcher{reports: []reportmodels.Report{
		feedReport("r1", "u1", "pendente", time.Minute),
	}}
	cache := NewReportCache(fetcher)
	require.NoError(t, cache.Refresh(context.Background()))

	all := cache.All()
	all[0].ID = "mutated"

	assert.Equal(t, "r1", cache.All()[0].ID)
}
