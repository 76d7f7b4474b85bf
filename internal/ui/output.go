package ui

import (
	"fmt"
	"io"
)

// Success writes a styled success line.
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleSuccess.Render(fmt.Sprintf(format, args...)))
}

// Warning writes a styled warning line.
func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleWarning.Render(fmt.Sprintf(format, args...)))
}

// Error writes a styled error line.
func Error(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleError.Render(fmt.Sprintf(format, args...)))
}
