package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/shellcap/internal/report"
)

const defaultInspectLimit = 200

type inspectParams struct {
	RunID  string `json:"run_id" jsonschema:"the run ID from an sh_run result"`
	Stream string `json:"stream,omitempty" jsonschema:"stdout or stderr. Default: stdout."`
	Offset int    `json:"offset,omitempty" jsonschema:"zero-based line to start from. Default: 0."`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of lines to return. Default: 200."`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultInspectLimit
	}
	stream := report.Stream(params.Stream)
	if stream == "" {
		stream = report.Stdout
	}

	result, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}
	if result.Status == report.Failed {
		return errorResult(formatFailure(result))
	}

	page, err := result.Lines(stream, params.Offset, limit)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to read %s of run %s: %v", stream, params.RunID, err))
	}
	return textResult(formatInspectOutput(result, stream, page))
}

func formatInspectOutput(rr *report.RunResult, stream report.Stream, page *report.Page) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (exit %d)\n", rr.ID, rr.ExitCode)
	if len(page.Lines) == 0 {
		fmt.Fprintf(&b, "%s: no lines from offset %d (%d lines total)\n", stream, page.Offset, page.Total)
		return b.String()
	}

	last := page.Offset + len(page.Lines)
	fmt.Fprintf(&b, "%s lines %d-%d of %d:\n", stream, page.Offset+1, last, page.Total)
	fmt.Fprintln(&b)
	for i, line := range page.Lines {
		fmt.Fprintf(&b, "%6d  %s\n", page.Offset+i+1, line)
	}
	if page.More {
		fmt.Fprintf(&b, "\nNext page: sh_inspect(run_id=%q, stream=%q, offset=%d).\n", rr.ID, stream, last)
	}
	return b.String()
}
