// Command shellcap runs shell commands and captures their stdout and
// stderr separately.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	shlog "github.com/deixis/shellcap/internal/log"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("shellcap: ")
	log.SetOutput(shlog.Stderr())

	err := newRootCommand().Execute()
	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// exitError ends the process with code once the command's own output has
// been written.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
