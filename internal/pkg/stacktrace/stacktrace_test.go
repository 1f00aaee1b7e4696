package stacktrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 7 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/authflow/internal/pkg/goroutine.(*Manager).run.func1()
	/src/authflow/internal/pkg/goroutine/goroutine.go:78 +0x65
panic({0x6f1f20?, 0x8c2b50?})
	/usr/local/go/src/runtime/panic.go:785 +0x132
github.com/shandysiswandi/authflow/internal/authflow/outbound/mq.(*Messaging).PublishFlowReport(...)
	/src/authflow/internal/authflow/outbound/mq/messaging.go:41 +0x1f
`)

	assert.Equal(t, []string{
		"internal/pkg/goroutine/goroutine.go:78",
		"internal/authflow/outbound/mq/messaging.go:41",
	}, InternalPaths(stack))

	assert.Empty(t, InternalPaths([]byte("goroutine 1 [running]:\nmain.main()\n\t/src/main.go:5\n")))
}
