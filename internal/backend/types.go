package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID accepts both string and numeric identifiers from the backend.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

type User struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResponse is returned by /auth/login and /auth/register
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type meResponse struct {
	User User `json:"user"`
}

// JournalAnalysis holds inferred metrics. Absent fields stay nil.
type JournalAnalysis struct {
	Mood   *float64 `json:"mood,omitempty"`
	Energy *float64 `json:"energy,omitempty"`
	Stress *float64 `json:"stress,omitempty"`
}

type DailyLogRequest struct {
	Mood   int     `json:"mood"`
	Energy int     `json:"energy"`
	Stress int     `json:"stress"`
	Sleep  float64 `json:"sleep"`
	Text   string  `json:"text"`
}

// DailyLogResponse is the generated daily protocol. Its sections are passed
// through to the caller untouched.
type DailyLogResponse struct {
	Message     string          `json:"message,omitempty"`
	Suggestions json.RawMessage `json:"suggestions,omitempty"`
	Context     json.RawMessage `json:"context,omitempty"`
	WebInsights json.RawMessage `json:"web_insights,omitempty"`
	Resources   json.RawMessage `json:"resources,omitempty"`
	SafetyAlert json.RawMessage `json:"safety_alert,omitempty"`
}

type ConversationEntry struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

type DecisionRequest struct {
	Title               string              `json:"title"`
	Description         string              `json:"description"`
	Category            string              `json:"category"`
	CostImpact          int                 `json:"cost_impact"`
	Value               int                 `json:"value"`
	Urgency             int                 `json:"urgency"`
	ConversationHistory []ConversationEntry `json:"conversation_history"`
	SkipQuestions       bool                `json:"skip_questions,omitempty"`
}

// Question is a clarifying question. The backend sends either bare strings or
// objects with an id and a question/text field.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"question"`
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		q.Text = text
		return nil
	}
	var obj struct {
		ID         ID     `json:"id"`
		QuestionID ID     `json:"question_id"`
		Question   string `json:"question"`
		Text       string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode question: %w", err)
	}
	q.ID = string(obj.ID)
	if q.ID == "" {
		q.ID = string(obj.QuestionID)
	}
	q.Text = obj.Question
	if q.Text == "" {
		q.Text = obj.Text
	}
	return nil
}

// DecisionResponse is either a request for more context (NeedsMoreContext with
// Questions) or a terminal verdict. Raw keeps the full payload for rendering.
type DecisionResponse struct {
	NeedsMoreContext bool            `json:"needs_more_context"`
	Questions        []Question      `json:"questions,omitempty"`
	Capacity         json.RawMessage `json:"capacity,omitempty"`
	Verdict          string          `json:"verdict,omitempty"`
	Score            *float64        `json:"score,omitempty"`
	Confidence       *float64        `json:"confidence,omitempty"`
	Raw              json.RawMessage `json:"-"`
}

func (r *DecisionResponse) UnmarshalJSON(data []byte) error {
	type alias DecisionResponse
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	for i := range a.Questions {
		if strings.TrimSpace(a.Questions[i].ID) == "" {
			a.Questions[i].ID = "q" + strconv.Itoa(i+1)
		}
	}
	a.Raw = append(json.RawMessage(nil), data...)
	*r = DecisionResponse(a)
	return nil
}

// PendingQuestions reports whether the backend is asking for more context.
func (r *DecisionResponse) PendingQuestions() bool {
	return r.NeedsMoreContext && len(r.Questions) > 0
}

// LogEntry is one persisted daily log as returned by /history.
type LogEntry struct {
	ID        ID      `json:"id"`
	Timestamp string  `json:"timestamp,omitempty"`
	Date      string  `json:"date,omitempty"`
	Mood      float64 `json:"mood"`
	Energy    float64 `json:"energy"`
	Stress    float64 `json:"stress"`
	Sleep     float64 `json:"sleep"`
	Text      string  `json:"text,omitempty"`
}

var logTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC1123,
}

// At parses the entry timestamp, falling back to the legacy date column.
func (e LogEntry) At() (time.Time, bool) {
	for _, raw := range []string{e.Timestamp, e.Date} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		for _, layout := range logTimeLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

type HealthScore struct {
	Score      float64         `json:"score"`
	Grade      string          `json:"grade,omitempty"`
	Status     string          `json:"status,omitempty"`
	Trend      string          `json:"trend,omitempty"`
	Confidence string          `json:"confidence,omitempty"`
	Breakdown  json.RawMessage `json:"breakdown,omitempty"`
}

type Prediction struct {
	CurrentAvg float64   `json:"current_avg"`
	Values     []float64 `json:"values"`
	Trend      string    `json:"trend"`
	Confidence string    `json:"confidence"`
}

type Forecast struct {
	Status      string                `json:"status"`
	Predictions map[string]Prediction `json:"predictions,omitempty"`
}

type AnalyticsInsight struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Priority   string `json:"priority,omitempty"`
	Icon       string `json:"icon,omitempty"`
	Actionable bool   `json:"actionable,omitempty"`
	Action     string `json:"action,omitempty"`
}

type Recommendation struct {
	Category        string   `json:"category,omitempty"`
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	Icon            string   `json:"icon,omitempty"`
	Actions         []string `json:"actions,omitempty"`
	PotentialImpact string   `json:"potential_impact,omitempty"`
}

// AdvancedAnalytics is the aggregate computed by /analytics/advanced.
// Sections the client only passes through stay raw.
type AdvancedAnalytics struct {
	Status          string             `json:"status,omitempty"`
	Message         string             `json:"message,omitempty"`
	DataPoints      int                `json:"data_points"`
	Period          string             `json:"period,omitempty"`
	HealthScore     *HealthScore       `json:"health_score,omitempty"`
	Insights        []AnalyticsInsight `json:"insights,omitempty"`
	Recommendations []Recommendation   `json:"recommendations,omitempty"`
	Correlations    json.RawMessage    `json:"correlations,omitempty"`
	Cycles          json.RawMessage    `json:"cycles,omitempty"`
	WeeklySummary   json.RawMessage    `json:"weekly_summary,omitempty"`
	Forecast        *Forecast          `json:"forecast,omitempty"`
	Anomalies       json.RawMessage    `json:"anomalies,omitempty"`
}

// StatusNoData is reported by analytics endpoints for users without logs.
const StatusNoData = "no_data"

// NoData reports whether the payload carries nothing to chart.
func (a *AdvancedAnalytics) NoData() bool {
	return a == nil || a.Status == StatusNoData
}

// Insight is a stored insight from /insights.
type Insight struct {
	ID          ID     `json:"id"`
	InsightType string `json:"insight_type"`
	Title       string `json:"title"`
	Message     string `json:"message"`
	Priority    string `json:"priority,omitempty"`
	IsRead      bool   `json:"is_read,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}
