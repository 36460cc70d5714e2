// Package uiout renders CLI output in either human-readable or JSON form,
// the way the teacher's internal/ui package picks a renderer based on
// terminal detection.
package uiout

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/mnemo-run/mnemo/internal/gate"
)

// IsTTY reports whether the given file descriptor is an interactive terminal.
func IsTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// DetectNoColor reports whether color output should be suppressed, honoring
// the NO_COLOR convention (https://no-color.org/).
func DetectNoColor() bool {
	if v := os.Getenv("NO_COLOR"); v != "" {
		return true
	}
	return !IsTTY(os.Stdout)
}

// DetectCI reports whether the process is running inside a CI environment.
func DetectCI() bool {
	for _, key := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE"} {
		if v := os.Getenv(key); v != "" && strings.ToLower(v) != "false" {
			return true
		}
	}
	return false
}

// Format selects the output format for a command.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
)

// FormatFromFlag resolves the --json flag (or MNEMO_JSON env var) into a
// Format, defaulting to human output whether or not stdout is a tty; tty
// detection only decides color (see DetectNoColor).
func FormatFromFlag(jsonFlag bool) Format {
	if jsonFlag {
		return FormatJSON
	}
	if v := os.Getenv("MNEMO_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			return FormatJSON
		}
	}
	return FormatHuman
}

// Writer is the single funnel point CLI commands push rendered output
// through, so every command gets the same human/JSON duality for free.
type Writer struct {
	out    *os.File
	format Format
	noColor bool
}

// New constructs a Writer targeting stdout.
func New(format Format) *Writer {
	return &Writer{out: os.Stdout, format: format, noColor: DetectNoColor()}
}

// RawOut exposes the underlying output stream for commands that need to
// build up multi-line human-readable tables themselves rather than going
// through Status/Success/Warning.
func (w *Writer) RawOut() *os.File {
	return w.out
}

// Format reports which format this Writer was constructed with.
func (w *Writer) Format() Format {
	return w.format
}

// Status prints a plain informational line in human mode; no-op in JSON mode.
func (w *Writer) Status(msg string) {
	if w.format == FormatJSON {
		return
	}
	fmt.Fprintln(w.out, msg)
}

// Statusf is Status with formatting.
func (w *Writer) Statusf(format string, args ...any) {
	w.Status(fmt.Sprintf(format, args...))
}

// Success prints a line prefixed with a checkmark in human mode.
func (w *Writer) Success(msg string) {
	if w.format == FormatJSON {
		return
	}
	if w.noColor {
		fmt.Fprintf(w.out, "OK %s\n", msg)
		return
	}
	fmt.Fprintf(w.out, "\033[32m✓\033[0m %s\n", msg)
}

// Warning prints a line prefixed with a warning marker in human mode.
func (w *Writer) Warning(msg string) {
	if w.format == FormatJSON {
		return
	}
	if w.noColor {
		fmt.Fprintf(w.out, "WARN %s\n", msg)
		return
	}
	fmt.Fprintf(w.out, "\033[33m!\033[0m %s\n", msg)
}

// JSON writes a JSON payload regardless of format — callers use this when
// they've already decided the shape (e.g. error formatting), Emit otherwise.
func (w *Writer) JSON(raw []byte) {
	fmt.Fprintln(w.out, string(raw))
}

// EmitRaw renders human/raw output exactly like Emit but without passing
// either half through gate.Bound. Reserve this for subagent-destined
// content — a plain extract of file or memory-entry content is meant to be
// read in full by the subordinate agent that requested it, the same
// distinction internal/memory.MemoryExtract's whole-entry branch already
// draws against its grep/chunk-id branches.
func (w *Writer) EmitRaw(renderHuman func() string, raw []byte) {
	if w.format == FormatJSON {
		w.JSON(raw)
		return
	}
	fmt.Fprintln(w.out, renderHuman())
}

// Emit renders an orchestrator-facing result through the same
// bounded-output gate internal/memory and internal/strategy already apply
// to everything they return, so no CLI verb can flood the caller's context
// window regardless of how large the underlying store or scan result is.
//
// renderHuman builds the human-readable text (without printing it); op
// names the operation for the gate's truncation notice. In human mode the
// text is passed through gate.Bound and printed. In JSON mode, raw is
// emitted as-is when it already fits the cap; otherwise raw is replaced
// with a gate.BoundResult summary of the human text, so a truncated
// response is still valid JSON rather than a byte-sliced fragment of one.
func (w *Writer) Emit(op string, renderHuman func() string, raw []byte) {
	human := renderHuman()
	if w.format != FormatJSON {
		fmt.Fprintln(w.out, gate.Bound(op, human, gate.DefaultBoundBytes))
		return
	}
	if len(raw) <= gate.DefaultBoundBytes {
		w.JSON(raw)
		return
	}
	summary, err := json.Marshal(gate.BoundResult(human, gate.DefaultBoundBytes))
	if err != nil {
		w.JSON(raw)
		return
	}
	w.JSON(summary)
}

// FormatBytes renders a byte count as a human-readable size string.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for n2 := n / unit; n2 >= unit; n2 /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
