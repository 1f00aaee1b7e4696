package entity

import "slices"

// Step names one request of the registration flow.
type Step string

const (
	StepSendOTP   Step = "send-otp-register"
	StepVerifyOTP Step = "verify-otp-register"
	StepLogin     Step = "login"
)

// FlowSteps lists the steps in the order they run.
var FlowSteps = []Step{StepSendOTP, StepVerifyOTP, StepLogin}

func (s Step) String() string {
	return string(s)
}

// Path is the endpoint path relative to the API base URL.
func (s Step) Path() string {
	switch s {
	case StepSendOTP:
		return "/auth/send-otp-register"
	case StepVerifyOTP:
		return "/auth/verify-otp-register"
	case StepLogin:
		return "/auth/login"
	default:
		return ""
	}
}

// Number is the 1-based position of the step in the flow, or 0 when unknown.
func (s Step) Number() int {
	return slices.Index(FlowSteps, s) + 1
}

// Title is the banner printed before the step runs.
func (s Step) Title() string {
	switch s {
	case StepSendOTP:
		return "SENDING OTP..."
	case StepVerifyOTP:
		return "VERIFYING OTP & CREATING ACCOUNT..."
	case StepLogin:
		return "TESTING LOGIN..."
	default:
		return "UNKNOWN STEP"
	}
}

// FailureText is printed when the step fails.
func (s Step) FailureText() string {
	switch s {
	case StepSendOTP:
		return "Failed to send OTP!"
	case StepVerifyOTP:
		return "Failed to verify OTP!"
	case StepLogin:
		return "Login failed!"
	default:
		return "Step failed!"
	}
}

// Outcome is the result of a single step.
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

func (o Outcome) String() string {
	return string(o)
}
