// Package ui formats CLI output with fatih/color. Colour is dropped
// automatically when the writer is not a terminal.
package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

// Success writes a "✓" line
func Success(w io.Writer, format string, args ...interface{}) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warn writes a "!" line
func Warn(w io.Writer, format string, args ...interface{}) {
	warnColor.Fprintf(w, "! %s\n", fmt.Sprintf(format, args...))
}

// Error writes a "✗" line
func Error(w io.Writer, format string, args ...interface{}) {
	errorColor.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Info writes a plain informational line
func Info(w io.Writer, format string, args ...interface{}) {
	infoColor.Fprintf(w, "%s\n", fmt.Sprintf(format, args...))
}
