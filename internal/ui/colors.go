// Package ui provides terminal UI utilities including colors, spinners, and prompts.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/undrift/agentmon/internal/status"
)

// Output is where the message helpers write. Errors always go to stderr.
var Output io.Writer = color.Output

// Color functions for styled output
var (
	Green  = color.New(color.FgGreen).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Blue   = color.New(color.FgBlue).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
	Dim    = color.New(color.Faint).SprintFunc()
)

// DisableColor turns off colour for every helper in this package.
func DisableColor() {
	color.NoColor = true
}

// Success prints a success message with a green checkmark.
func Success(msg string) {
	fmt.Fprintf(Output, "%s %s\n", Green("✓"), msg)
}

// Successf prints a formatted success message.
func Successf(format string, args ...interface{}) {
	Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message with a yellow warning symbol.
func Warning(msg string) {
	fmt.Fprintf(Output, "%s %s\n", Yellow("⚠"), msg)
}

// Warningf prints a formatted warning message.
func Warningf(format string, args ...interface{}) {
	Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message with a red X.
func Error(msg string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", Red("✗"), msg)
}

// Errorf prints a formatted error message.
func Errorf(format string, args ...interface{}) {
	Error(fmt.Sprintf(format, args...))
}

// Info prints an info message with a blue arrow.
func Info(msg string) {
	fmt.Fprintf(Output, "%s %s\n", Blue("→"), msg)
}

// Infof prints a formatted info message.
func Infof(format string, args ...interface{}) {
	Info(fmt.Sprintf(format, args...))
}

// Debug prints a debug message with a dim bullet (only if AGENTMON_DEBUG is set).
func Debug(msg string) {
	if os.Getenv("AGENTMON_DEBUG") != "" {
		fmt.Fprintf(Output, "%s %s\n", Dim("•"), Dim(msg))
	}
}

// Debugf prints a formatted debug message.
func Debugf(format string, args ...interface{}) {
	Debug(fmt.Sprintf(format, args...))
}

// SubHeader prints a styled sub-header.
func SubHeader(title string) {
	fmt.Fprintf(Output, "\n%s %s\n", Cyan("─────"), Bold(title))
}

// KeyValue prints a formatted key-value pair.
func KeyValue(key, value string) {
	fmt.Fprintf(Output, "  %-18s %s\n", Dim(key+":"), value)
}

// List prints a bulleted list item.
func List(item string) {
	fmt.Fprintf(Output, "  %s %s\n", Dim("•"), item)
}

// NewLine prints a blank line.
func NewLine() {
	fmt.Fprintln(Output)
}

// StateColor colours a string the way state is shown everywhere else.
func StateColor(state status.State, s string) string {
	switch state {
	case status.StateWaitingInput:
		return Yellow(s)
	case status.StateError:
		return Red(s)
	case status.StateRunning:
		return Green(s)
	case status.StateIdle:
		return Dim(s)
	default:
		return s
	}
}

// StateBadge returns the bracketed, coloured label for state, e.g. "[WAITING]".
func StateBadge(state status.State) string {
	return StateColor(state, "["+state.Label()+"]")
}
