package errors

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingReporter) Report(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func TestWrapKeepsCause(t *testing.T) {
	assert.Nil(t, Wrap(nil, "noop"))
	assert.Nil(t, WrapAndReport(nil, "noop"))

	err := Wrap(io.EOF, "read session response")
	assert.True(t, Is(err, io.EOF))
	assert.Equal(t, io.EOF, Cause(err))
	assert.Equal(t, "read session response: EOF", err.Error())
	assert.Contains(t, Detail(err), "TestWrapKeepsCause")
}

func TestReportHelpers(t *testing.T) {
	t.Setenv(debugMode, "")
	ResetReporters()
	defer ResetReporters()

	r := &recordingReporter{}
	AddReporter(r)

	_ = NewWithReport("duplicate enable")
	_ = WrapAndReport(io.ErrUnexpectedEOF, "decode frame")
	_ = ErrorfAndReport("%v", "panic value")
	_ = New("not reported")

	require.Len(t, r.errs, 3)
	assert.Equal(t, "duplicate enable", r.errs[0].Error())
	assert.True(t, Is(r.errs[1], io.ErrUnexpectedEOF))
	assert.Equal(t, "panic value", r.errs[2].Error())
}

func TestReportDisabledInDebugMode(t *testing.T) {
	t.Setenv(debugMode, "1")
	ResetReporters()
	defer ResetReporters()

	r := &recordingReporter{}
	AddReporter(r)
	_ = NewWithReport("ignored")
	assert.Empty(t, r.errs)
}

func TestStackBasedRateLimited(t *testing.T) {
	now := time.Date(2022, 7, 1, 10, 0, 0, 0, time.UTC)
	limiter := newRateLimiter(time.Minute)
	limiter.now = func() time.Time { return now }

	limited, stats := limiter.StackBasedRateLimited("frame-a")
	assert.False(t, limited)
	assert.Nil(t, stats.lastReportTime)

	now = now.Add(10 * time.Second)
	limited, _ = limiter.StackBasedRateLimited("frame-a")
	assert.True(t, limited)
	limited, _ = limiter.StackBasedRateLimited("frame-b")
	assert.False(t, limited)

	now = now.Add(time.Minute)
	limited, stats = limiter.StackBasedRateLimited("frame-a")
	assert.False(t, limited)
	assert.Equal(t, 1, stats.occurCountSinceLastReport)
	assert.Equal(t, 2, stats.totalOccurCount)
}

func TestFullStackSkipsRuntimeFrames(t *testing.T) {
	stacks := callers().fullStack()
	require.NotEmpty(t, stacks)
	for _, s := range stacks {
		assert.NotContains(t, s, "runtime.goexit")
	}
	assert.NotEmpty(t, reportKey(stacks))
	assert.Equal(t, "", reportKey(nil))
}
