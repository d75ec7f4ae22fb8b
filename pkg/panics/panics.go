// Package panics reports unrecovered panics with a pointer to where bugs
// should be filed, then terminates the process.
package panics

import (
	"fmt"
	"io"
	"os"
	"runtime"
)

// Handler formats and reports a panic. The zero value writes to stderr and
// exits with status 1.
type Handler struct {
	SupportURL string
	Version    string

	Out  io.Writer
	Exit func(code int)
}

// New returns a handler for the given support URL and build version.
func New(supportURL, version string) *Handler {
	return &Handler{SupportURL: supportURL, Version: version}
}

// Recover must be deferred directly. It reports an in-flight panic and exits.
func (h *Handler) Recover() {
	if r := recover(); r != nil {
		stack := make([]byte, 64<<10)
		stack = stack[:runtime.Stack(stack, false)]
		h.Report(r, stack)

		exit := h.Exit
		if exit == nil {
			exit = os.Exit
		}
		exit(1)
	}
}

// Report writes the panic report.
func (h *Handler) Report(r any, stack []byte) {
	out := h.Out
	if out == nil {
		out = os.Stderr
	}

	fmt.Fprintf(out, "\n====================\n\nVersion: %s\n\n%s\n\nThread panicked: %v\n\n", h.Version, stack, r)
	fmt.Fprintf(out, "This is a bug. Please report it at:\n\n\t%s\n\n", h.SupportURL)
}
