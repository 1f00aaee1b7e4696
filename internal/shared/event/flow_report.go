package event

const FlowReportDestination string = "authflow.run.completed"

type FlowReportMessage struct {
	RunID      string              `json:"run_id"`
	BaseURL    string              `json:"base_url"`
	Email      string              `json:"email"`
	Phone      string              `json:"phone"`
	Passed     bool                `json:"passed"`
	FailedStep string              `json:"failed_step,omitempty"`
	StartedAt  string              `json:"started_at"`
	FinishedAt string              `json:"finished_at"`
	DurationMS int64               `json:"duration_ms"`
	Steps      []FlowReportStepMsg `json:"steps"`
}

type FlowReportStepMsg struct {
	Step       string `json:"step"`
	StatusCode int    `json:"status_code,omitempty"`
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}
