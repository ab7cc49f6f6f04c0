package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/mindmesh/mindmesh-client/internal/backend"
)

const (
	DefaultDays         = 30
	DefaultHistoryLimit = 500
	EmptyMessage        = "No data yet. Start logging daily to see analytics."
	ChartLabelLayout    = "Jan 2 15:04"
	ForecastStatusOK    = "success"
	forecastHorizonDays = 7
)

var ErrInvalidRange = errors.New("days must be one of 7, 30, 90 or 365")

// TimeRanges are the selectable analytics windows in days.
var TimeRanges = []int{7, 30, 90, 365}

// ForecastMetrics are charted in this order.
var ForecastMetrics = []string{"mood", "energy", "stress", "sleep"}

// ParseRange validates a window; zero selects the default.
func ParseRange(days int) (int, error) {
	if days == 0 {
		return DefaultDays, nil
	}
	for _, d := range TimeRanges {
		if d == days {
			return days, nil
		}
	}
	return 0, ErrInvalidRange
}

type ChartRow struct {
	Label  string    `json:"label"`
	At     time.Time `json:"at"`
	Mood   float64   `json:"mood"`
	Energy float64   `json:"energy"`
	Stress float64   `json:"stress"`
	Sleep  float64   `json:"sleep"`
}

type ForecastRow struct {
	Metric     string  `json:"metric"`
	Current    float64 `json:"current"`
	Predicted  float64 `json:"predicted"`
	Trend      string  `json:"trend"`
	Confidence string  `json:"confidence"`
}

type HealthBand string

const (
	BandExcellent      HealthBand = "excellent"
	BandGood           HealthBand = "good"
	BandFair           HealthBand = "fair"
	BandNeedsAttention HealthBand = "needs-attention"
)

type Health struct {
	Score      float64         `json:"score"`
	Band       HealthBand      `json:"band"`
	Grade      string          `json:"grade,omitempty"`
	Status     string          `json:"status,omitempty"`
	Trend      string          `json:"trend,omitempty"`
	Confidence string          `json:"confidence,omitempty"`
	Breakdown  json.RawMessage `json:"breakdown,omitempty"`
}

// Dashboard is the analytics screen for one time range. When Empty is set
// only Message is meaningful.
type Dashboard struct {
	Days       int    `json:"days"`
	Empty      bool   `json:"empty"`
	Message    string `json:"message,omitempty"`
	DataPoints int    `json:"data_points"`
	Period     string `json:"period,omitempty"`
	Streak     int    `json:"streak"`

	Health          *Health                    `json:"health,omitempty"`
	Chart           []ChartRow                 `json:"chart,omitempty"`
	Forecast        []ForecastRow              `json:"forecast,omitempty"`
	Insights        []backend.AnalyticsInsight `json:"insights,omitempty"`
	Recommendations []backend.Recommendation   `json:"recommendations,omitempty"`
	Correlations    json.RawMessage            `json:"correlations,omitempty"`
	Cycles          json.RawMessage            `json:"cycles,omitempty"`
	WeeklySummary   json.RawMessage            `json:"weekly_summary,omitempty"`
	Anomalies       json.RawMessage            `json:"anomalies,omitempty"`
}
