package runner

// Result holds the output of a command execution.
type Result struct {
	RunID    string // unique identifier for this run
	Command  string // command text as passed to the shell
	ExitCode int    // process exit code, 128+n when killed by signal n
	Stdout   string // decoded stdout
	Stderr   string // decoded stderr
}
