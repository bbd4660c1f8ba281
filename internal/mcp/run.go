package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/shellcap/internal/execerr"
	"github.com/deixis/shellcap/internal/report"
)

// previewLines is how many lines of each stream sh_run returns inline.
const previewLines = 100

type runParams struct {
	Command string `json:"command" jsonschema:"shell command line, run with /bin/sh -c"`
}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, params runParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(params.Command) == "" {
		return errorResult("command is required")
	}

	started := time.Now()
	res, err := h.currentRunner().Run(ctx, params.Command)
	if err != nil {
		var xerr *execerr.Error
		if !errors.As(err, &xerr) {
			return errorResult(fmt.Sprintf("run failed: %v", err))
		}
		rr := report.FromError(uuid.New().String(), params.Command, err, started, time.Since(started))
		h.save(rr)
		return errorResult(formatFailure(rr))
	}

	rr := report.FromResult(res, started, time.Since(started))
	h.save(rr)
	return textResult(formatRun(rr))
}

// save stores rr for sh_inspect. A run whose record cannot be written is
// still reported to the client.
func (h *handler) save(rr *report.RunResult) {
	if err := h.store.Save(rr); err != nil {
		h.logger.Warn("saving run", "run_id", rr.ID, "error", err)
	}
}

func formatRun(rr *report.RunResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Status: exit %d\n", rr.ExitCode)
	fmt.Fprintf(&b, "Run: %s\n", rr.ID)
	fmt.Fprintf(&b, "Command: %s\n", rr.Command)
	fmt.Fprintln(&b)

	var more []report.Stream
	for _, s := range []report.Stream{report.Stdout, report.Stderr} {
		// Text cannot fail for a completed run.
		page, _ := rr.Lines(s, 0, previewLines)
		if page.Total == 0 {
			fmt.Fprintf(&b, "%s: (empty)\n", s)
			continue
		}
		fmt.Fprintf(&b, "%s (%d lines):\n", s, page.Total)
		for _, line := range page.Lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
		if page.More {
			fmt.Fprintf(&b, "  ... %d more lines\n", page.Total-len(page.Lines))
			more = append(more, s)
		}
	}

	for _, s := range more {
		fmt.Fprintf(&b, "\nInspect with sh_inspect(run_id=%q, stream=%q, offset=%d).", rr.ID, s, previewLines)
	}
	if len(more) > 0 {
		fmt.Fprintln(&b)
	}
	return b.String()
}

func formatFailure(rr *report.RunResult) string {
	var b strings.Builder

	fmt.Fprintln(&b, "Status: FAILED")
	fmt.Fprintf(&b, "Run: %s\n", rr.ID)
	fmt.Fprintf(&b, "Failure: %s\n", rr.Failure.Kind)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, rr.Failure.Error)
	return b.String()
}
