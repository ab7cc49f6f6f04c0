package domain

import (
	"encoding/json"
	"math"
	"time"
)

const (
	DefaultMetric = 3
	DefaultSleep  = 7.0
	MinMetric     = 1
	MaxMetric     = 5
	MaxSleep      = 24.0
)

// Draft is the daily log being filled in, plus the protocol generated once
// it is submitted.
type Draft struct {
	Mood    int     `json:"mood"`
	Energy  int     `json:"energy"`
	Stress  int     `json:"stress"`
	Sleep   float64 `json:"sleep"`
	Journal string  `json:"journal"`

	Protocol *Protocol `json:"protocol,omitempty"`

	AnalyzingJournal   bool      `json:"analyzing_journal"`
	AnalysisGeneration uint64    `json:"analysis_generation"`
	AnalysisStartedAt  time.Time `json:"analysis_started_at"`
	Submitting         bool      `json:"submitting"`
	SubmitGeneration   uint64    `json:"submit_generation"`
	SubmitStartedAt    time.Time `json:"submit_started_at"`
	LastError          string    `json:"last_error,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Patch edits the draft. Nil fields are left alone.
type Patch struct {
	Mood    *int     `json:"mood,omitempty"`
	Energy  *int     `json:"energy,omitempty"`
	Stress  *int     `json:"stress,omitempty"`
	Sleep   *float64 `json:"sleep,omitempty"`
	Journal *string  `json:"journal,omitempty"`
}

// JournalMetrics is what journal analysis inferred. Absent metrics are nil.
type JournalMetrics struct {
	Mood   *float64
	Energy *float64
	Stress *float64
}

// Entry is what gets submitted for the day.
type Entry struct {
	Mood   int
	Energy int
	Stress int
	Sleep  float64
	Text   string
}

type SafetyAlert struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Action   string `json:"action,omitempty"`
	Helpline string `json:"helpline,omitempty"`
}

// Protocol is the generated daily plan. Sections other than the safety
// alert are rendered as returned.
type Protocol struct {
	Message     string          `json:"message,omitempty"`
	Suggestions json.RawMessage `json:"suggestions,omitempty"`
	Context     json.RawMessage `json:"context,omitempty"`
	WebInsights json.RawMessage `json:"web_insights,omitempty"`
	Resources   json.RawMessage `json:"resources,omitempty"`
	SafetyAlert *SafetyAlert    `json:"safety_alert,omitempty"`
}

func (p *Protocol) HasSafetyAlert() bool {
	return p != nil && p.SafetyAlert != nil
}

func ClampMetric(v int) int {
	return min(max(v, MinMetric), MaxMetric)
}

// ClampSleep bounds hours to 0..24 in half-hour steps.
func ClampSleep(h float64) float64 {
	if math.IsNaN(h) {
		return DefaultSleep
	}
	h = math.Round(h*2) / 2
	return min(max(h, 0), MaxSleep)
}

// metricFromFloat rounds an inferred score onto the 1..5 scale.
func metricFromFloat(v float64) int {
	if math.IsNaN(v) {
		return DefaultMetric
	}
	return ClampMetric(int(math.Round(v)))
}

var metricLabels = map[string][6]string{
	"mood":   {"", "Very Negative", "Negative", "Neutral", "Positive", "Very Positive"},
	"energy": {"", "Exhausted", "Low", "Moderate", "High", "Peak"},
	"stress": {"", "Very Calm", "Relaxed", "Moderate", "High", "Critical"},
}

// Label names a metric value, e.g. Label("energy", 5) is "Peak".
func Label(metric string, v int) string {
	labels, ok := metricLabels[metric]
	if !ok || v < MinMetric || v > MaxMetric {
		return ""
	}
	return labels[v]
}
