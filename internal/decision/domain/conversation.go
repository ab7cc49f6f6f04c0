package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// FormPatch carries edits to the decision form. Nil fields are left alone.
type FormPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	CostImpact  *int    `json:"cost_impact,omitempty"`
	Value       *int    `json:"value,omitempty"`
	Urgency     *int    `json:"urgency,omitempty"`
}

// NewConversation returns a conversation in the initial state.
func NewConversation(now time.Time) *Conversation {
	return &Conversation{
		State:     StateInitial,
		Form:      NewRequest(),
		History:   []Exchange{},
		Answers:   map[string]string{},
		UpdatedAt: now,
	}
}

// UpdateForm applies patch. The form is frozen once a conversation starts.
func (c *Conversation) UpdateForm(patch FormPatch, now time.Time) error {
	if c.State == StateAnalyzing {
		return ErrRequestInFlight
	}
	if c.State != StateInitial {
		return ErrInvalidTransition
	}
	if patch.Title != nil {
		c.Form.Title = *patch.Title
	}
	if patch.Description != nil {
		c.Form.Description = *patch.Description
	}
	if patch.Category != nil {
		c.Form.Category = strings.TrimSpace(*patch.Category)
		if c.Form.Category == "" {
			c.Form.Category = DefaultCategory
		}
	}
	if patch.CostImpact != nil {
		c.Form.CostImpact = ClampRating(*patch.CostImpact)
	}
	if patch.Value != nil {
		c.Form.Value = ClampRating(*patch.Value)
	}
	if patch.Urgency != nil {
		c.Form.Urgency = ClampRating(*patch.Urgency)
	}
	c.UpdatedAt = now
	return nil
}

// ClampRating bounds v to the 1..5 rating scale.
func ClampRating(v int) int {
	switch {
	case v < MinRating:
		return MinRating
	case v > MaxRating:
		return MaxRating
	}
	return v
}

// Validate checks the form before the first analysis request.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Field: "title", Message: "please enter a decision title"}
	}
	if utf8.RuneCountInString(r.Title) > MaxTitleLength {
		return &ValidationError{Field: "title", Message: "title is too long"}
	}
	if utf8.RuneCountInString(r.Description) > MaxDescriptionLength {
		return &ValidationError{Field: "description", Message: "description is too long"}
	}
	return nil
}

// Submit starts the conversation. The returned call carries an empty history.
func (c *Conversation) Submit(now time.Time) (*AnalysisCall, error) {
	if c.State == StateAnalyzing {
		return nil, ErrRequestInFlight
	}
	if c.State != StateInitial {
		return nil, ErrInvalidTransition
	}
	if err := c.Form.Validate(); err != nil {
		return nil, err
	}
	c.Form.Title = strings.TrimSpace(c.Form.Title)
	c.History = []Exchange{}
	return c.begin(false, now), nil
}

// Answer records text for the current question. It returns a call when the
// round is over and nil while more answers are wanted.
func (c *Conversation) Answer(policy Policy, questionID, text string, now time.Time) (*AnalysisCall, error) {
	if c.State == StateAnalyzing {
		return nil, ErrRequestInFlight
	}
	if c.State != StateGathering {
		return nil, ErrInvalidTransition
	}
	if _, done := c.Answers[questionID]; done {
		return nil, ErrDuplicateAnswer
	}
	if questionID == "" || questionID != c.CurrentQuestionID {
		return nil, ErrUnknownQuestion
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "answer", Message: "please enter an answer"}
	}

	q, _ := c.question(questionID)
	if c.Answers == nil {
		c.Answers = map[string]string{}
	}
	c.Answers[questionID] = text
	c.History = append(c.History, Exchange{QuestionID: q.ID, Question: q.Text, Answer: text})
	c.CurrentQuestionID = c.nextUnanswered()
	c.LastError = ""
	c.UpdatedAt = now

	answered := len(c.Answers)
	if answered >= len(c.Questions) || answered >= policy.Threshold() {
		return c.begin(false, now), nil
	}
	return nil, nil
}

// Skip ends the gathering round and asks for a verdict with what is known.
func (c *Conversation) Skip(now time.Time) (*AnalysisCall, error) {
	if c.State == StateAnalyzing {
		return nil, ErrRequestInFlight
	}
	if c.State != StateGathering {
		return nil, ErrInvalidTransition
	}
	return c.begin(true, now), nil
}

// Retry re-issues the request that last failed.
func (c *Conversation) Retry(now time.Time) (*AnalysisCall, error) {
	if c.State == StateAnalyzing {
		return nil, ErrRequestInFlight
	}
	if c.FailedCall == nil || c.State == StateComplete {
		return nil, ErrNothingToRetry
	}
	c.History = append([]Exchange{}, c.FailedCall.History...)
	return c.begin(c.FailedCall.Skip, now), nil
}

func (c *Conversation) begin(skip bool, now time.Time) *AnalysisCall {
	c.Generation++
	c.ResumeState = c.State
	c.State = StateAnalyzing
	c.LastError = ""
	c.FailedCall = nil
	call := &AnalysisCall{
		Generation: c.Generation,
		Request:    c.Form,
		History:    append([]Exchange{}, c.History...),
		Skip:       skip,
		IssuedAt:   now,
	}
	c.PendingCall = call
	c.UpdatedAt = now
	return call
}

// Resolve applies the response to the request stamped with generation.
// A response for anything but the latest issued request is discarded.
func (c *Conversation) Resolve(generation uint64, out Outcome, now time.Time) error {
	if err := c.checkCurrent(generation); err != nil {
		return err
	}
	c.PendingCall = nil
	c.ResumeState = ""
	c.UpdatedAt = now
	if len(out.Capacity) > 0 {
		c.Capacity = out.Capacity
	}

	if out.Pending() {
		c.State = StateGathering
		c.Questions = out.Questions
		c.Answers = map[string]string{}
		c.CurrentQuestionID = c.nextUnanswered()
		return nil
	}

	result := out.Result
	c.State = StateComplete
	c.Result = &result
	c.Questions = nil
	c.Answers = map[string]string{}
	c.CurrentQuestionID = ""
	return nil
}

// Fail returns the conversation to the state the request was issued from.
// History gathered so far is kept.
func (c *Conversation) Fail(generation uint64, cause error, now time.Time) error {
	if err := c.checkCurrent(generation); err != nil {
		return err
	}
	c.State = c.ResumeState
	if c.State == "" {
		c.State = StateInitial
	}
	c.ResumeState = ""
	c.FailedCall = c.PendingCall
	c.PendingCall = nil
	if cause != nil {
		c.LastError = cause.Error()
	}
	c.UpdatedAt = now
	return nil
}

// Abandon fails the pending request once it has been in flight longer than
// maxAge. That happens when its outcome was never recorded, e.g. the save
// after the response failed or the process stopped mid-call. The call is
// kept as FailedCall so it can be retried.
func (c *Conversation) Abandon(maxAge time.Duration, now time.Time) bool {
	if c.State != StateAnalyzing || maxAge <= 0 {
		return false
	}
	issued := c.UpdatedAt
	if c.PendingCall != nil && !c.PendingCall.IssuedAt.IsZero() {
		issued = c.PendingCall.IssuedAt
	}
	if now.Sub(issued) <= maxAge {
		return false
	}
	return c.Fail(c.Generation, ErrRequestAbandoned, now) == nil
}

// Reset clears the conversation. In-flight responses become stale.
func (c *Conversation) Reset(now time.Time) {
	gen := c.Generation + 1
	*c = *NewConversation(now)
	c.Generation = gen
}

func (c *Conversation) checkCurrent(generation uint64) error {
	if c.State != StateAnalyzing || generation != c.Generation {
		return ErrStaleResponse
	}
	return nil
}

// CurrentQuestion returns the question awaiting an answer.
func (c *Conversation) CurrentQuestion() (Question, bool) {
	if c.State != StateGathering || c.CurrentQuestionID == "" {
		return Question{}, false
	}
	return c.question(c.CurrentQuestionID)
}

// Answered is the number of questions answered in the current round.
func (c *Conversation) Answered() int {
	return len(c.Answers)
}

func (c *Conversation) question(id string) (Question, bool) {
	for _, q := range c.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func (c *Conversation) nextUnanswered() string {
	for _, q := range c.Questions {
		if _, ok := c.Answers[q.ID]; !ok {
			return q.ID
		}
	}
	return ""
}
