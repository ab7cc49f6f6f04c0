package domain

import (
	"encoding/json"
	"time"
)

// State is a decision conversation state.
type State string

const (
	StateInitial   State = "initial"
	StateAnalyzing State = "analyzing"
	StateGathering State = "gathering"
	StateComplete  State = "complete"
)

const (
	DefaultCategory      = "General"
	DefaultRating        = 3
	MinRating            = 1
	MaxRating            = 5
	MaxTitleLength       = 500
	MaxDescriptionLength = 5000
	DefaultQuestionLimit = 2
)

// Request is the decision being analyzed.
type Request struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	CostImpact  int    `json:"cost_impact"`
	Value       int    `json:"value"`
	Urgency     int    `json:"urgency"`
}

// NewRequest returns the blank form.
func NewRequest() Request {
	return Request{
		Category:   DefaultCategory,
		CostImpact: DefaultRating,
		Value:      DefaultRating,
		Urgency:    DefaultRating,
	}
}

// Question is a clarifying question posed by the analysis service.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"question"`
}

// Exchange is one answered clarifying question.
type Exchange struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
}

// Result is the terminal analysis. Raw is the verbatim service payload.
type Result struct {
	Verdict    string          `json:"verdict"`
	Score      *float64        `json:"score,omitempty"`
	Confidence *float64        `json:"confidence,omitempty"`
	Raw        json.RawMessage `json:"raw"`
}

// Outcome is what one analysis round returned.
type Outcome struct {
	Questions []Question
	Capacity  json.RawMessage
	Result    Result
}

// Pending reports whether the service asked for more context.
func (o Outcome) Pending() bool {
	return len(o.Questions) > 0
}

// AnalysisCall describes the request the caller must issue next.
type AnalysisCall struct {
	Generation uint64     `json:"generation"`
	Request    Request    `json:"request"`
	History    []Exchange `json:"history"`
	Skip       bool       `json:"skip"`
	IssuedAt   time.Time  `json:"issued_at"`
}

// Policy bounds the clarifying-question loop.
type Policy struct {
	// QuestionThreshold ends a gathering round once this many questions
	// have been answered, even if more are pending.
	QuestionThreshold int
}

func DefaultPolicy() Policy {
	return Policy{QuestionThreshold: DefaultQuestionLimit}
}

// Threshold is the effective answer count that ends a round; values below
// one fall back to DefaultQuestionLimit.
func (p Policy) Threshold() int {
	if p.QuestionThreshold < 1 {
		return DefaultQuestionLimit
	}
	return p.QuestionThreshold
}

// Conversation is the state of one decision conversation. It is a plain
// value so it can be persisted between requests.
type Conversation struct {
	State             State             `json:"state"`
	Form              Request           `json:"form"`
	History           []Exchange        `json:"history"`
	Questions         []Question        `json:"questions"`
	Answers           map[string]string `json:"answers"`
	CurrentQuestionID string            `json:"current_question_id,omitempty"`
	Capacity          json.RawMessage   `json:"capacity,omitempty"`
	Result            *Result           `json:"result,omitempty"`
	LastError         string            `json:"last_error,omitempty"`
	Generation        uint64            `json:"generation"`
	ResumeState       State             `json:"resume_state,omitempty"`
	PendingCall       *AnalysisCall     `json:"pending_call,omitempty"`
	FailedCall        *AnalysisCall     `json:"failed_call,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
}
