package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/deixis/shellcap/internal/execerr"
	"github.com/deixis/shellcap/internal/report"
)

func (a *app) runCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run [flags] [--] <command>...",
		Short: "Run a command with /bin/sh -c",
		Long: `Run joins its arguments with spaces and runs the result with /bin/sh -c.

The command's stdout and stderr are written to shellcap's own stdout and stderr,
followed by a status line on stderr. shellcap exits with the command's exit code,
or 1 if the command could not be run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			text := strings.Join(args, " ")
			started := time.Now()
			res, err := a.newRunner().Run(ctx, text)

			var rr *report.RunResult
			if err != nil {
				var xerr *execerr.Error
				if !errors.As(err, &xerr) {
					return err
				}
				rr = report.FromError(uuid.New().String(), text, err, started, time.Since(started))
			} else {
				rr = report.FromResult(res, started, time.Since(started))
			}
			if err := a.newStore().Save(rr); err != nil {
				a.logger.Warn("saving run", "run_id", rr.ID, "error", err)
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(rr); err != nil {
					return err
				}
			} else {
				printRun(cmd.OutOrStdout(), cmd.ErrOrStderr(), rr)
			}

			switch {
			case rr.Status == report.Failed:
				return &exitError{code: 1}
			case rr.ExitCode != 0:
				return &exitError{code: rr.ExitCode}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run record as JSON")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func printRun(stdout, stderr io.Writer, rr *report.RunResult) {
	if rr.Status == report.Failed {
		color.New(color.FgRed, color.Bold).Fprintf(stderr, "FAILED %s", rr.Failure.Kind)
		fmt.Fprintf(stderr, " (run %s)\n%s\n", rr.ID, rr.Failure.Error)
		return
	}

	fmt.Fprint(stdout, rr.Stdout)
	fmt.Fprint(stderr, rr.Stderr)

	status := color.New(color.FgGreen)
	if rr.ExitCode != 0 {
		status = color.New(color.FgRed)
	}
	status.Fprintf(stderr, "exit %d", rr.ExitCode)
	fmt.Fprintf(stderr, " (run %s, %s)\n", rr.ID, rr.Duration.Round(time.Millisecond))
}
