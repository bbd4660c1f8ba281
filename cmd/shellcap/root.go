package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deixis/shellcap/internal/config"
	shlog "github.com/deixis/shellcap/internal/log"
	"github.com/deixis/shellcap/internal/report"
	"github.com/deixis/shellcap/internal/runner"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	verbose    bool
	configPath string

	cfg    *config.Config
	logger shlog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "shellcap",
		Short: "Run shell commands and capture stdout and stderr separately",
		Long: `shellcap runs a command with /bin/sh -c, captures its stdout and stderr
independently and records the run so its output can be inspected later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a .shellcap file (default: search upward from the working directory)")

	root.AddCommand(
		a.runCommand(),
		a.inspectCommand(),
		a.mcpCommand(),
		versionCommand(),
	)
	return root
}

func (a *app) load() error {
	if a.configPath != "" {
		cfg, err := config.LoadFile(a.configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		a.cfg = cfg
	} else {
		dir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determining working directory: %w", err)
		}
		loaded, err := config.Load(dir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		a.cfg = loaded.Config
	}

	a.logger = shlog.NewLogger(a.verbose || a.cfg.Verbose)
	return nil
}

func (a *app) newRunner() *runner.Runner {
	return &runner.Runner{
		Encoding: a.cfg.Encoding(),
		SpoolDir: a.cfg.SpoolDir,
		Logger:   a.logger,
	}
}

func (a *app) newStore() report.Store {
	return report.NewLRUStore(a.cfg.StoreCapacity(), report.NewDiskStore(a.cfg.StoreDir))
}
