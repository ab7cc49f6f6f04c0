package domain

import (
	"errors"

	"github.com/mindmesh/mindmesh-client/internal/backend"
)

const FilterAll = "all"

// InsightTypes are the filterable insight types.
var InsightTypes = []string{"trend", "warning", "achievement", "alert", "anomaly"}

var ErrInvalidFilter = errors.New("type must be all, trend, warning, achievement, alert or anomaly")

type InsightList struct {
	Filter   string            `json:"filter"`
	Insights []backend.Insight `json:"insights"`
	Counts   map[string]int    `json:"counts"`
}

func ParseFilter(filter string) (string, error) {
	if filter == "" || filter == FilterAll {
		return FilterAll, nil
	}
	for _, t := range InsightTypes {
		if t == filter {
			return filter, nil
		}
	}
	return "", ErrInvalidFilter
}

// FilterInsights keeps insights of the given type and counts every type
// across the unfiltered list.
func FilterInsights(all []backend.Insight, filter string) InsightList {
	counts := map[string]int{FilterAll: len(all)}
	for _, t := range InsightTypes {
		counts[t] = 0
	}
	out := make([]backend.Insight, 0, len(all))
	for _, in := range all {
		counts[in.InsightType]++
		if filter == FilterAll || in.InsightType == filter {
			out = append(out, in)
		}
	}
	return InsightList{Filter: filter, Insights: out, Counts: counts}
}
