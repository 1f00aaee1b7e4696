package entity

import (
	"time"

	"github.com/samber/lo"
)

type StepReport struct {
	Step       Step
	StatusCode int
	Outcome    Outcome
	Duration   time.Duration
	Error      string
}

// FlowReport summarizes one run. Steps always holds every flow step; the ones
// that never ran stay skipped.
type FlowReport struct {
	RunID      string
	BaseURL    string
	Identity   Identity
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []StepReport
}

func NewFlowReport(runID, baseURL string, id Identity, startedAt time.Time) *FlowReport {
	return &FlowReport{
		RunID:     runID,
		BaseURL:   baseURL,
		Identity:  id,
		StartedAt: startedAt,
		Steps: lo.Map(FlowSteps, func(s Step, _ int) StepReport {
			return StepReport{Step: s, Outcome: OutcomeSkipped}
		}),
	}
}

// Record stores the result of a step, replacing its skipped placeholder.
func (r *FlowReport) Record(res StepReport) {
	_, idx, ok := lo.FindIndexOf(r.Steps, func(s StepReport) bool { return s.Step == res.Step })
	if !ok {
		r.Steps = append(r.Steps, res)
		return
	}
	r.Steps[idx] = res
}

// Passed reports whether every step passed.
func (r *FlowReport) Passed() bool {
	return len(r.Steps) > 0 && lo.EveryBy(r.Steps, func(s StepReport) bool { return s.Outcome == OutcomePassed })
}

// Failed returns the step that stopped the run.
func (r *FlowReport) Failed() (StepReport, bool) {
	return lo.Find(r.Steps, func(s StepReport) bool { return s.Outcome == OutcomeFailed })
}

func (r *FlowReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
