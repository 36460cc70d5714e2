package errs

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatForCLI renders err as the single human-readable error line the CLI
// surface contract (spec §6) requires on stderr before a non-zero exit.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	me, ok := err.(*MnemoError)
	if !ok {
		return fmt.Sprintf("Error: %s", err.Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s", me.Message))
	if me.Suggestion != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", me.Suggestion))
	}
	sb.WriteString(fmt.Sprintf(" [%s]", me.Code))
	return sb.String()
}

type jsonError struct {
	Code      string            `json:"code"`
	Kind      string            `json:"kind"`
	Message   string            `json:"message"`
	Severity  string            `json:"severity"`
	Details   map[string]string `json:"details,omitempty"`
	Retryable bool              `json:"retryable"`
}

// FormatJSON renders err as a machine-readable JSON error object.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}
	me, ok := err.(*MnemoError)
	if !ok {
		me = Wrap(KindExternal, "ERR_UNKNOWN", err)
	}
	return json.Marshal(jsonError{
		Code:      me.Code,
		Kind:      string(me.Kind),
		Message:   me.Message,
		Severity:  string(me.Severity),
		Details:   me.Details,
		Retryable: me.Retryable,
	})
}

// FormatForLog returns key/value pairs suitable for slog attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}
	me, ok := err.(*MnemoError)
	if !ok {
		return map[string]any{"error": err.Error()}
	}
	out := map[string]any{
		"error_code": me.Code,
		"kind":       string(me.Kind),
		"message":    me.Message,
		"severity":   string(me.Severity),
		"retryable":  me.Retryable,
	}
	if me.Cause != nil {
		out["cause"] = me.Cause.Error()
	}
	for k, v := range me.Details {
		out["detail_"+k] = v
	}
	return out
}
