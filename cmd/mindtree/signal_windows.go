//go:build windows

package main

import (
	"os"
)

// terminationSignals lists the signals that should cancel a running search.
// Windows primarily uses os.Interrupt (Ctrl+C).
var terminationSignals = []os.Signal{os.Interrupt}
