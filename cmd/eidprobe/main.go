// Package main is the entry point for eidprobe, a thin demonstration
// CLI over the anchorkit core: generate an EID for a CSS-matched
// element in an HTML fixture, or resolve a previously generated EID
// against one. It is explicitly a harness for exercising generateEID
// and resolve end to end, not the "CLI/browser-devtools front-end"
// product the engine's core treats as an external collaborator.
package main

import (
	"os"

	"github.com/anchorkit/anchorkit/cmd/eidprobe/internal/clihost"

	_ "github.com/anchorkit/anchorkit/cmd/eidprobe/cmd"
)

func main() {
	defer clihost.RecoverPanic()
	if err := clihost.Execute(); err != nil {
		clihost.PrintError(err)
		os.Exit(1)
	}
}
