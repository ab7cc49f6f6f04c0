package domain

import (
	"time"

	"github.com/mindmesh/mindmesh-client/internal/backend"
)

// BuildDashboard shapes the history and advanced analytics for display.
// logs arrive newest first.
func BuildDashboard(days int, logs []backend.LogEntry, adv *backend.AdvancedAnalytics, now time.Time) Dashboard {
	if adv.NoData() {
		return Dashboard{Days: days, Empty: true, Message: EmptyMessage}
	}

	d := Dashboard{
		Days:            days,
		DataPoints:      adv.DataPoints,
		Period:          adv.Period,
		Streak:          Streak(logs, now),
		Chart:           ChartRows(logs),
		Forecast:        ForecastRows(adv.Forecast),
		Insights:        adv.Insights,
		Recommendations: adv.Recommendations,
		Correlations:    adv.Correlations,
		Cycles:          adv.Cycles,
		WeeklySummary:   adv.WeeklySummary,
		Anomalies:       adv.Anomalies,
	}
	if hs := adv.HealthScore; hs != nil {
		d.Health = &Health{
			Score:      hs.Score,
			Band:       Band(hs.Score),
			Grade:      hs.Grade,
			Status:     hs.Status,
			Trend:      hs.Trend,
			Confidence: hs.Confidence,
			Breakdown:  hs.Breakdown,
		}
	}
	return d
}

// ChartRows returns logs oldest first. Entries without a readable timestamp
// are skipped.
func ChartRows(logs []backend.LogEntry) []ChartRow {
	rows := make([]ChartRow, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		at, ok := logs[i].At()
		if !ok {
			continue
		}
		rows = append(rows, ChartRow{
			Label:  at.Format(ChartLabelLayout),
			At:     at,
			Mood:   logs[i].Mood,
			Energy: logs[i].Energy,
			Stress: logs[i].Stress,
			Sleep:  logs[i].Sleep,
		})
	}
	return rows
}

// ForecastRows lists the week-ahead prediction per metric, or nothing when
// the forecast did not succeed.
func ForecastRows(f *backend.Forecast) []ForecastRow {
	if f == nil || f.Status != ForecastStatusOK {
		return nil
	}
	rows := make([]ForecastRow, 0, len(ForecastMetrics))
	for _, metric := range ForecastMetrics {
		row := ForecastRow{Metric: metric, Trend: "stable", Confidence: "low"}
		if p, ok := f.Predictions[metric]; ok {
			row.Current = p.CurrentAvg
			if len(p.Values) >= forecastHorizonDays {
				row.Predicted = p.Values[forecastHorizonDays-1]
			}
			if p.Trend != "" {
				row.Trend = p.Trend
			}
			if p.Confidence != "" {
				row.Confidence = p.Confidence
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func Band(score float64) HealthBand {
	switch {
	case score >= 80:
		return BandExcellent
	case score >= 60:
		return BandGood
	case score >= 40:
		return BandFair
	}
	return BandNeedsAttention
}

// Streak counts consecutive days with a log, ending today. Days are UTC
// calendar days, the zone log timestamps without an offset are read in, so
// the result does not depend on the host's zone.
func Streak(logs []backend.LogEntry, now time.Time) int {
	days := make(map[time.Time]bool, len(logs))
	for _, l := range logs {
		if at, ok := l.At(); ok {
			days[utcDay(at)] = true
		}
	}
	streak := 0
	for day := utcDay(now); days[day]; day = day.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

func utcDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
