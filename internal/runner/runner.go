// Package runner runs shell commands through the posix piped-process
// primitives and captures stdout and stderr separately.
package runner

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deixis/shellcap/internal/charset"
	"github.com/deixis/shellcap/internal/execerr"
	"github.com/deixis/shellcap/internal/log"
	"github.com/deixis/shellcap/internal/posix"
)

const readSize = 32 << 10

// redirectMu guards the window during which fd 2 of this process points at
// a run's stderr spool.
var redirectMu sync.Mutex

// Runner executes shell commands.
type Runner struct {
	// Syscalls returns the wrapper used for one run. Nil means posix.NewOS.
	Syscalls func() posix.Syscalls
	Encoding string // charset label for captured output, default UTF-8
	SpoolDir string // directory for stderr spool files, default os.TempDir
	Logger   log.Logger
}

// Run executes text with /bin/sh -c and waits for it to exit.
//
// A non-zero exit status is not an error. Every failure is returned as an
// *execerr.Error and no output accompanies it. The only other error is
// ctx's, when ctx is already done before anything starts.
func (r *Runner) Run(ctx context.Context, text string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd, err := posix.NewCommand(text)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	logger := r.logger()
	start := time.Now()

	res, err := r.run(r.syscalls(), cmd)
	if err != nil {
		logger.Debug("command failed", "run_id", runID, "command", text, "error", err)
		return nil, err
	}
	res.RunID = runID
	logger.Debug("command finished", "run_id", runID, "command", text,
		"exit_code", res.ExitCode, "duration", time.Since(start))
	return res, nil
}

func (r *Runner) run(sys posix.Syscalls, cmd *posix.Command) (*Result, error) {
	spool, err := os.CreateTemp(r.SpoolDir, "shellcap-stderr-*")
	if err != nil {
		return nil, execerr.Stderr(err)
	}
	restored := true
	defer func() {
		_ = spool.Close()
		if restored {
			_ = os.Remove(spool.Name())
		}
	}()

	stream, restored, err := spawn(sys, cmd, int(spool.Fd()))
	if !restored {
		// Whatever this process writes to fd 2 from now on lands in the
		// spool, so it is left on disk.
		r.logger().Error("stderr could not be restored", "spool", spool.Name(), "error", err)
	}
	if err != nil {
		return nil, err
	}

	fd := sys.Fileno(stream)
	if fd == -1 {
		err := execerr.Kernel(sys, "fileno failed")
		sys.Pclose(stream)
		return nil, err
	}
	out, err := drain(sys, fd)
	if err != nil {
		sys.Pclose(stream)
		return nil, err
	}
	status := sys.Pclose(stream)
	if status == -1 {
		return nil, execerr.Kernel(sys, "pclose failed")
	}

	stdout, err := charset.Decode(r.Encoding, out)
	if err != nil {
		return nil, execerr.Stdout(err)
	}
	stderr, err := r.readSpool(spool)
	if err != nil {
		return nil, execerr.Stderr(err)
	}

	return &Result{
		Command:  cmd.String(),
		ExitCode: posix.ExitCode(status),
		Stdout:   stdout,
		Stderr:   stderr,
	}, nil
}

// spawn starts cmd with its stderr redirected to the spool descriptor.
// fd 2 is shared by the whole process, so the redirect is held only long
// enough for the child to inherit it. Nothing may write to fd 2 in between;
// loggers use their own copy of it, see log.Stderr.
//
// Each descriptor spawn duplicates is closed before it returns. When the
// stream was opened but a later step failed, the stream is closed too.
// restored is false only when fd 2 could not be pointed back at the
// original stderr, in which case it still refers to the spool.
func spawn(sys posix.Syscalls, cmd *posix.Command, spool int) (stream posix.Stream, restored bool, err error) {
	redirectMu.Lock()
	defer redirectMu.Unlock()

	saved := sys.Dup(posix.Stderr)
	if saved == -1 {
		return nil, true, execerr.Kernel(sys, "dup failed")
	}
	if sys.Dup2(spool, posix.Stderr) == -1 {
		err := execerr.Kernel(sys, "dup2 failed")
		sys.Close(saved)
		return nil, true, err
	}

	// The first failure wins. Later steps still run so that fd 2 is put
	// back and saved is released.
	stream = sys.Popen(cmd)
	if stream == nil {
		err = execerr.Kernel(sys, "popen failed")
	}
	restored = restore(sys, saved)
	if !restored && err == nil {
		err = execerr.Kernel(sys, "dup2 failed restoring stderr")
	}
	if sys.Close(saved) == -1 && err == nil {
		err = execerr.Kernel(sys, "close failed")
	}

	if err != nil {
		if stream != nil {
			sys.Pclose(stream)
		}
		return nil, restored, err
	}
	return stream, true, nil
}

// restore points fd 2 back at saved. saved is the only remaining handle on
// the original stderr, so a failed dup2 is tried once more before giving up.
func restore(sys posix.Syscalls, saved int) bool {
	if sys.Dup2(saved, posix.Stderr) != -1 {
		return true
	}
	return sys.Dup2(saved, posix.Stderr) != -1
}

// drain reads fd until end of file.
func drain(sys posix.Syscalls, fd int) ([]byte, error) {
	var out bytes.Buffer
	buf := make([]byte, readSize)
	for {
		n := sys.Read(fd, buf)
		switch {
		case n == -1:
			return nil, &execerr.Error{
				Kind:    execerr.FailedToReadStdout,
				Message: execerr.FormatKernelError(sys, "read failed"),
			}
		case n == 0:
			return out.Bytes(), nil
		}
		out.Write(buf[:n])
	}
}

func (r *Runner) readSpool(spool *os.File) (string, error) {
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	b, err := io.ReadAll(spool)
	if err != nil {
		return "", err
	}
	return charset.Decode(r.Encoding, b)
}

func (r *Runner) syscalls() posix.Syscalls {
	if r.Syscalls != nil {
		return r.Syscalls()
	}
	return posix.NewOS()
}

func (r *Runner) logger() log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Discard()
}
