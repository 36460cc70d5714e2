// Package errs implements the structured error kinds used across mnemo's
// core: NotFound, InvalidArgument, IndexInconsistency, Conflict, Busy,
// External, and Unbounded. Each error's severity and retryability are
// derived from its kind; its code is a free-form string chosen by the caller.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the sum type of error kinds the core ever raises.
type Kind string

const (
	KindNotFound           Kind = "NotFound"
	KindInvalidArgument    Kind = "InvalidArgument"
	KindIndexInconsistency Kind = "IndexInconsistency"
	KindConflict           Kind = "Conflict"
	KindBusy               Kind = "Busy"
	KindExternal           Kind = "External"
	KindUnbounded          Kind = "Unbounded"
)

// Severity classifies how serious an error is for the calling operation.
type Severity string

const (
	SeverityRecoverable Severity = "recoverable" // caller can retry with corrected input
	SeverityFatal       Severity = "fatal"        // operation aborted, store may need repair
	SeverityRetryable   Severity = "retryable"     // transient, caller may retry as-is
	SeverityInfo        Severity = "info"          // informational, not an operation failure
)

// MnemoError is the concrete error type returned by every core operation.
type MnemoError struct {
	Code       string
	Kind       Kind
	Severity   Severity
	Message    string
	Details    map[string]string
	Cause      error
	Retryable  bool
	Suggestion string
}

func (e *MnemoError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *MnemoError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *MnemoError with the same Kind, so callers
// can write errors.Is(err, errs.New(errs.KindNotFound, "", "")).
func (e *MnemoError) Is(target error) bool {
	var other *MnemoError
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func severityFor(kind Kind) (Severity, bool) {
	switch kind {
	case KindNotFound, KindInvalidArgument:
		return SeverityRecoverable, false
	case KindIndexInconsistency:
		return SeverityFatal, false
	case KindConflict:
		return SeverityRecoverable, false
	case KindBusy:
		return SeverityRetryable, true
	case KindExternal:
		return SeverityRecoverable, false
	case KindUnbounded:
		return SeverityInfo, false
	default:
		return SeverityFatal, false
	}
}

// New creates a MnemoError of the given kind carrying the caller-supplied
// code string (e.g. ERR_FILE_NOT_FOUND); severity and retryability follow
// from the kind.
func New(kind Kind, code, message string) *MnemoError {
	severity, retryable := severityFor(kind)
	return &MnemoError{
		Code:      code,
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Retryable: retryable,
	}
}

// Wrap wraps an existing error under the given kind.
func Wrap(kind Kind, code string, cause error) *MnemoError {
	e := New(kind, code, cause.Error())
	e.Cause = cause
	return e
}

// NotFound builds a KindNotFound error — unknown id, missing file, absent
// session.
func NotFound(code, message string) *MnemoError {
	return New(KindNotFound, code, message)
}

// InvalidArgument builds a KindInvalidArgument error — malformed regex, bad
// line range, unknown strategy, empty query.
func InvalidArgument(code, message string) *MnemoError {
	return New(KindInvalidArgument, code, message)
}

// IndexInconsistency builds a fatal KindIndexInconsistency error — FTS row
// count drift or trigger failure.
func IndexInconsistency(code, message string) *MnemoError {
	return New(KindIndexInconsistency, code, message)
}

// Conflict builds a KindConflict error — mutation of a finalized session,
// duplicate id on insert.
func Conflict(code, message string) *MnemoError {
	return New(KindConflict, code, message)
}

// Busy builds a retryable KindBusy error — DB lock timeout exceeded.
func Busy(code, message string) *MnemoError {
	return New(KindBusy, code, message)
}

// External builds a KindExternal error — a collaborator invoked by the
// semantic tagger failed.
func External(code, message string, cause error) *MnemoError {
	e := New(KindExternal, code, message)
	e.Cause = cause
	return e
}

// Unbounded builds a KindUnbounded informational error — an internal result
// exceeded the bounded-output cap and was truncated.
func Unbounded(code, message string) *MnemoError {
	return New(KindUnbounded, code, message)
}

// WithDetail attaches a key/value detail and returns the same error for
// chaining.
func (e *MnemoError) WithDetail(key, value string) *MnemoError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion attaches a human-facing hint.
func (e *MnemoError) WithSuggestion(s string) *MnemoError {
	e.Suggestion = s
	return e
}

// IsRetryable reports whether the caller may retry the same operation as-is.
func IsRetryable(err error) bool {
	var me *MnemoError
	if errors.As(err, &me) {
		return me.Retryable
	}
	return false
}

// IsFatal reports whether the error indicates the store needs repair before
// further operations will succeed.
func IsFatal(err error) bool {
	var me *MnemoError
	if errors.As(err, &me) {
		return me.Severity == SeverityFatal
	}
	return false
}

// KindOf extracts the Kind from err, or "" if err is not a *MnemoError.
func KindOf(err error) Kind {
	var me *MnemoError
	if errors.As(err, &me) {
		return me.Kind
	}
	return ""
}
