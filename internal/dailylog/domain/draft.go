package domain

import (
	"strings"
	"time"
)

func NewDraft(now time.Time) *Draft {
	return &Draft{
		Mood:      DefaultMetric,
		Energy:    DefaultMetric,
		Stress:    DefaultMetric,
		Sleep:     DefaultSleep,
		UpdatedAt: now,
	}
}

// Submitted reports whether the protocol has been generated; the draft is
// read-only until reset.
func (d *Draft) Submitted() bool {
	return d.Protocol != nil
}

// Apply writes a manual edit. Values are clamped to their ranges.
func (d *Draft) Apply(p Patch, now time.Time) error {
	if d.Submitted() {
		return ErrAlreadySubmitted
	}
	if p.Mood != nil {
		d.Mood = ClampMetric(*p.Mood)
	}
	if p.Energy != nil {
		d.Energy = ClampMetric(*p.Energy)
	}
	if p.Stress != nil {
		d.Stress = ClampMetric(*p.Stress)
	}
	if p.Sleep != nil {
		d.Sleep = ClampSleep(*p.Sleep)
	}
	if p.Journal != nil {
		d.Journal = *p.Journal
	}
	d.UpdatedAt = now
	return nil
}

// BeginJournalAnalysis stamps a new analysis request and returns its
// generation with the text to analyze.
func (d *Draft) BeginJournalAnalysis(now time.Time) (uint64, string, error) {
	if d.Submitted() {
		return 0, "", ErrAlreadySubmitted
	}
	if d.AnalyzingJournal {
		return 0, "", ErrRequestInFlight
	}
	text := strings.TrimSpace(d.Journal)
	if text == "" {
		return 0, "", &ValidationError{Field: "journal", Message: "write something in your journal first"}
	}
	d.AnalysisGeneration++
	d.AnalyzingJournal = true
	d.AnalysisStartedAt = now
	d.LastError = ""
	d.UpdatedAt = now
	return d.AnalysisGeneration, text, nil
}

// ApplyJournalAnalysis overwrites the metrics the analysis returned. Missing
// metrics and sleep keep their values.
func (d *Draft) ApplyJournalAnalysis(generation uint64, m JournalMetrics, now time.Time) error {
	if !d.AnalyzingJournal || generation != d.AnalysisGeneration {
		return ErrStaleResponse
	}
	if m.Mood != nil {
		d.Mood = metricFromFloat(*m.Mood)
	}
	if m.Energy != nil {
		d.Energy = metricFromFloat(*m.Energy)
	}
	if m.Stress != nil {
		d.Stress = metricFromFloat(*m.Stress)
	}
	d.AnalyzingJournal = false
	d.UpdatedAt = now
	return nil
}

func (d *Draft) FailJournalAnalysis(generation uint64, cause error, now time.Time) error {
	if !d.AnalyzingJournal || generation != d.AnalysisGeneration {
		return ErrStaleResponse
	}
	d.AnalyzingJournal = false
	d.LastError = cause.Error()
	d.UpdatedAt = now
	return nil
}

// BeginSubmit stamps a submission and returns the entry to send.
func (d *Draft) BeginSubmit(now time.Time) (uint64, Entry, error) {
	if d.Submitted() {
		return 0, Entry{}, ErrAlreadySubmitted
	}
	if d.Submitting {
		return 0, Entry{}, ErrRequestInFlight
	}
	d.SubmitGeneration++
	d.Submitting = true
	d.SubmitStartedAt = now
	d.LastError = ""
	d.UpdatedAt = now
	return d.SubmitGeneration, Entry{
		Mood:   d.Mood,
		Energy: d.Energy,
		Stress: d.Stress,
		Sleep:  d.Sleep,
		Text:   d.Journal,
	}, nil
}

func (d *Draft) CompleteSubmit(generation uint64, p Protocol, now time.Time) error {
	if !d.Submitting || generation != d.SubmitGeneration {
		return ErrStaleResponse
	}
	d.Submitting = false
	d.Protocol = &p
	d.UpdatedAt = now
	return nil
}

func (d *Draft) FailSubmit(generation uint64, cause error, now time.Time) error {
	if !d.Submitting || generation != d.SubmitGeneration {
		return ErrStaleResponse
	}
	d.Submitting = false
	d.LastError = cause.Error()
	d.UpdatedAt = now
	return nil
}

// Abandon clears in-flight markers older than maxAge, whose outcome was never
// recorded, so the action can be tried again. It reports whether anything
// changed.
func (d *Draft) Abandon(maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		return false
	}
	changed := false
	if d.AnalyzingJournal && now.Sub(d.AnalysisStartedAt) > maxAge {
		changed = d.FailJournalAnalysis(d.AnalysisGeneration, ErrRequestAbandoned, now) == nil
	}
	if d.Submitting && now.Sub(d.SubmitStartedAt) > maxAge {
		changed = d.FailSubmit(d.SubmitGeneration, ErrRequestAbandoned, now) == nil || changed
	}
	return changed
}

// Reset restores the defaults. Responses still in flight become stale.
func (d *Draft) Reset(now time.Time) {
	analysis, submit := d.AnalysisGeneration+1, d.SubmitGeneration+1
	*d = *NewDraft(now)
	d.AnalysisGeneration = analysis
	d.SubmitGeneration = submit
}
