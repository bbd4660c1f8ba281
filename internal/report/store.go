// Package report provides persistence and retrieval of command run
// records. A record holds either the captured output of a run or the
// failure that prevented it, and stored streams can be paged by line.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deixis/shellcap/internal/execerr"
	"github.com/deixis/shellcap/internal/runner"
)

// Status identifies how a run ended.
type Status string

const (
	// Exited means the command ran and its exit code was collected.
	Exited Status = "exited"
	// Failed means the command could not be run or its output could not
	// be captured.
	Failed Status = "failed"
)

// Stream names a captured output stream.
type Stream string

// Captured streams.
const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Store persists and retrieves run records.
type Store interface {
	Save(result *RunResult) error
	Load(runID string) (*RunResult, error)
}

// RunResult is the stored record of one run.
type RunResult struct {
	ID        string        `json:"id"`
	Command   string        `json:"command"`
	Status    Status        `json:"status"`
	ExitCode  int           `json:"exit_code"`
	Stdout    string        `json:"stdout,omitempty"`
	Stderr    string        `json:"stderr,omitempty"`
	Failure   *Failure      `json:"failure,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Failure is the stored form of an execerr.Error.
type Failure struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// FromResult records a completed run.
func FromResult(res *runner.Result, started time.Time, d time.Duration) *RunResult {
	return &RunResult{
		ID:        res.RunID,
		Command:   res.Command,
		Status:    Exited,
		ExitCode:  res.ExitCode,
		Stdout:    res.Stdout,
		Stderr:    res.Stderr,
		StartedAt: started,
		Duration:  d,
	}
}

// FromError records a run that ended in err. Errors that are not an
// *execerr.Error are stored with an empty kind.
func FromError(id, command string, err error, started time.Time, d time.Duration) *RunResult {
	f := &Failure{Error: err.Error(), Message: err.Error()}
	var xerr *execerr.Error
	if errors.As(err, &xerr) {
		f.Kind = xerr.Kind.String()
		f.Message = xerr.Message
	}
	return &RunResult{
		ID:        id,
		Command:   command,
		Status:    Failed,
		ExitCode:  -1,
		Failure:   f,
		StartedAt: started,
		Duration:  d,
	}
}

// Text returns the captured text of stream s.
func (r *RunResult) Text(s Stream) (string, error) {
	if r.Status == Failed {
		return "", fmt.Errorf("run %s failed, no output was captured", r.ID)
	}
	switch s {
	case Stdout, "":
		return r.Stdout, nil
	case Stderr:
		return r.Stderr, nil
	default:
		return "", fmt.Errorf("unknown stream %q, want stdout or stderr", s)
	}
}

// Page is a window of lines from a stream.
type Page struct {
	Lines  []string `json:"lines"`
	Offset int      `json:"offset"` // index of Lines[0]
	Total  int      `json:"total"`  // lines in the whole stream
	More   bool     `json:"more"`
}

// Lines pages through the lines of stream s, starting at offset and
// returning at most limit lines. A limit <= 0 returns everything after
// offset.
func (r *RunResult) Lines(s Stream, offset, limit int) (*Page, error) {
	text, err := r.Text(s)
	if err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("negative offset %d", offset)
	}
	lines := splitLines(text)
	p := &Page{Offset: offset, Total: len(lines), Lines: []string{}}
	if offset >= len(lines) {
		return p, nil
	}
	end := len(lines)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	p.Lines = lines[offset:end]
	p.More = end < len(lines)
	return p, nil
}

// splitLines splits text on newlines. A trailing newline does not start
// another line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
