package client

import (
	"math"

	reportmodels "onspace/services/report-service/models"
)

// Stats are pure read-only projections over a report list, recomputed on
// every render.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	ByCategory map[string]int `json:"byCategory"`
	BySeverity map[string]int `json:"bySeverity"`
}

func ComputeStats(reports []reportmodels.Report) Stats {
	stats := Stats{
		Total:      len(reports),
		ByStatus:   map[string]int{},
		ByCategory: map[string]int{},
		BySeverity: map[string]int{},
	}
	for _, r := range reports {
		stats.ByStatus[r.Status]++
		stats.ByCategory[r.Category]++
		stats.BySeverity[r.Severity]++
	}
	return stats
}

// ResolutionRate is resolved/total as a percentage rounded to the nearest
// integer, 0 when the list is empty.
func ResolutionRate(reports []reportmodels.Report) int {
	if len(reports) == 0 {
		return 0
	}
	resolved := 0
	for _, r := range reports {
		if r.Status == reportmodels.StatusResolved {
			resolved++
		}
	}
	return int(math.Round(float64(resolved) / float64(len(reports)) * 100))
}
