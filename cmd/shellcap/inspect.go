package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/deixis/shellcap/internal/report"
)

func (a *app) inspectCommand() *cobra.Command {
	var (
		stream  string
		offset  int
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <run-id>",
		Short: "Print the stored output of an earlier run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rr, err := a.newStore().Load(args[0])
			if err != nil {
				return err
			}
			if rr.Status == report.Failed {
				printRun(cmd.OutOrStdout(), cmd.ErrOrStderr(), rr)
				return &exitError{code: 1}
			}

			page, err := rr.Lines(report.Stream(stream), offset, limit)
			if err != nil {
				return err
			}
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(page)
			}
			if len(page.Lines) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(page.Lines, "\n"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&stream, "stream", string(report.Stdout), "Stream to print: stdout or stderr")
	cmd.Flags().IntVar(&offset, "offset", 0, "First line to print (zero-based)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of lines to print (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the page as JSON")
	return cmd
}
