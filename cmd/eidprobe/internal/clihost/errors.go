package clihost

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// PrintError prints an error to stderr with an "Error: " prefix.
func PrintError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// RecoverPanic turns a panic inside a subcommand into a stack-trace
// report instead of a raw Go crash, then exits 1.
func RecoverPanic() {
	if r := recover(); r != nil {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		fmt.Fprintf(os.Stderr, "\nPanic: %v\n\nStack trace:\n", r)
		for _, line := range strings.Split(string(buf[:n]), "\n") {
			if strings.HasPrefix(line, "goroutine") {
				continue
			}
			fmt.Fprintf(os.Stderr, "  %s\n", line)
		}
		fmt.Fprintln(os.Stderr, "\nThis is a bug in eidprobe.")
		os.Exit(1)
	}
}
