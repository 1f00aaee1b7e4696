package console

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/shandysiswandi/authflow/internal/authflow/entity"
)

const ruleWidth = 60

// Console prints the run transcript to out and keeps a copy for archiving.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	buf    bytes.Buffer
	indent int
}

func NewConsole(out io.Writer, indent int) *Console {
	return &Console{out: out, indent: indent}
}

func (c *Console) Configuration(id entity.Identity) {
	c.printf("\n🔍 Test Configuration:\n")
	c.printf("   Email: %s\n", id.Email)
	c.printf("   Phone: %s\n", id.Phone)
	c.printf("   Password: %s\n", id.Password)
}

func (c *Console) StepStarted(step entity.Step) {
	c.banner(fmt.Sprintf("%d️⃣ %s", step.Number(), step.Title()))
}

func (c *Console) StepResponded(_ entity.Step, resp entity.Response) {
	c.printf("Status: %d\n", resp.StatusCode)
	c.printf("Response: %s\n", resp.Indented(c.indent))
}

func (c *Console) StepPassed(step entity.Step, resp entity.Response) {
	switch step {
	case entity.StepSendOTP:
		c.printf("\n✅ OTP Code Generated: %s\n", resp.CodeText())
	case entity.StepVerifyOTP:
		c.printf("\n✅ Account Created Successfully\n")
	case entity.StepLogin:
		c.printf("\n✅ Login Successful!\n")
	}
}

func (c *Console) StepFailed(step entity.Step, err error) {
	c.printf("\n❌ %s\n", step.FailureText())
	c.printf("   Reason: %v\n", err)
}

func (c *Console) Summary(report *entity.FlowReport) {
	if failed, ok := report.Failed(); ok {
		c.banner(fmt.Sprintf("💥 FLOW FAILED at step %d (%s)", failed.Step.Number(), failed.Step))
		return
	}
	if !report.Passed() {
		return
	}

	c.banner("✨ ALL TESTS PASSED!")
	c.printf("\nCreated user: %s\n", report.Identity.Email)
	c.printf("Phone verified: %s\n", report.Identity.Phone)
	c.printf("Auto-login works: ✅\n")
}

// Bytes returns everything printed so far.
func (c *Console) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return bytes.Clone(c.buf.Bytes())
}

func (c *Console) banner(title string) {
	rule := strings.Repeat("=", ruleWidth)
	c.printf("\n%s\n%s\n%s\n", rule, title, rule)
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := fmt.Sprintf(format, args...)
	c.buf.WriteString(line)
	_, _ = io.WriteString(c.out, line)
}
