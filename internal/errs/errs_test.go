package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSetsSeverityByKind(t *testing.T) {
	tests := []struct {
		kind         Kind
		wantSeverity Severity
		wantRetry    bool
	}{
		{KindNotFound, SeverityRecoverable, false},
		{KindInvalidArgument, SeverityRecoverable, false},
		{KindIndexInconsistency, SeverityFatal, false},
		{KindConflict, SeverityRecoverable, false},
		{KindBusy, SeverityRetryable, true},
		{KindExternal, SeverityRecoverable, false},
		{KindUnbounded, SeverityInfo, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			e := New(tt.kind, "ERR_TEST", "boom")
			assert.Equal(t, tt.wantSeverity, e.Severity)
			assert.Equal(t, tt.wantRetry, e.Retryable)
		})
	}
}

func TestIsMatchesByKind(t *testing.T) {
	a := NotFound("ERR_NF1", "entry m_abc not found")
	b := NotFound("ERR_NF2", "session xyz not found")
	c := Conflict("ERR_CONFLICT", "session finalized")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	e := Wrap(KindExternal, "ERR_EXT", cause)
	require.ErrorIs(t, e, cause)
	assert.Equal(t, cause, e.Unwrap())
}

func TestIsRetryableOnlyForBusy(t *testing.T) {
	assert.True(t, IsRetryable(Busy("ERR_BUSY", "locked")))
	assert.False(t, IsRetryable(NotFound("ERR_NF", "missing")))
}

func TestIsFatalOnlyForIndexInconsistency(t *testing.T) {
	assert.True(t, IsFatal(IndexInconsistency("ERR_IDX", "fts drift")))
	assert.False(t, IsFatal(Conflict("ERR_CONFLICT", "finalized")))
}

func TestKindOfNonMnemoError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestFormatForCLIIncludesCodeAndSuggestion(t *testing.T) {
	e := NotFound("ERR_404", "entry not found").WithSuggestion("check the id with memory-list")
	out := FormatForCLI(e)
	assert.Contains(t, out, "Error: entry not found")
	assert.Contains(t, out, "check the id with memory-list")
	assert.Contains(t, out, "ERR_404")
}

func TestFormatJSONRoundTrips(t *testing.T) {
	e := Conflict("ERR_409", "session finalized").WithDetail("session_id", "abc123")
	raw, err := FormatJSON(e)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"code":"ERR_409"`)
	assert.Contains(t, string(raw), `"session_id":"abc123"`)
}
