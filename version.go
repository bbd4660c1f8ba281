// Package shellcap runs shell commands through the POSIX piped-process
// primitives and captures their stdout and stderr separately.
package shellcap

// Version is the shellcap release version.
const Version = "0.3.0"
