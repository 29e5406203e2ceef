// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ckod3/Tiny-Shading-Language/pkg/source"
	"golang.org/x/term"
)

// terminalWidth returns the current terminal's column width, falling back
// to 80 when stdout isn't a terminal (piped output, CI logs).
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// printSyntaxError renders one error followed by the offending source
// line, each line truncated to the terminal width so long shader lines
// don't wrap. No caret marks the error's column.
func printSyntaxError(err *source.SyntaxError) {
	width := terminalWidth()
	msg := err.Error()
	//
	for _, line := range strings.Split(msg, "\n") {
		if len(line) > width {
			line = line[:width-1] + "…"
		}
		fmt.Println(line)
	}
	fmt.Println()
}

func printSyntaxErrors(errs []*source.SyntaxError) {
	for _, e := range errs {
		printSyntaxError(e)
	}
}
