package ui

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Spinner shows progress for a slow step. It draws on stderr so piped stdout stays clean.
type Spinner struct {
	s *spinner.Spinner
}

// NewSpinner creates a spinner with msg beside it.
func NewSpinner(msg string) *Spinner {
	return newSpinner(os.Stderr, msg)
}

func newSpinner(w io.Writer, msg string) *Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w), spinner.WithHiddenCursor(true))
	s.Suffix = " " + msg
	_ = s.Color("cyan")
	return &Spinner{s: s}
}

// Start starts the spinner.
func (sp *Spinner) Start() {
	sp.s.Start()
}

// Stop stops the spinner without printing anything.
func (sp *Spinner) Stop() {
	sp.s.Stop()
}

// Success stops the spinner and prints a success message.
func (sp *Spinner) Success(msg string) {
	sp.s.Stop()
	Success(msg)
}

// Fail stops the spinner and prints an error message.
func (sp *Spinner) Fail(msg string) {
	sp.s.Stop()
	Error(msg)
}

// Finish stops the spinner and reports err, or success when err is nil.
func (sp *Spinner) Finish(err error, success string) error {
	if err != nil {
		sp.Fail(err.Error())
		return err
	}
	sp.Success(success)
	return nil
}
