// Package prompt provides interactive terminal prompts for CLI commands.
package prompt

import (
	"errors"
	"os"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

var (
	// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
	ErrAborted = errors.New("aborted")

	// ErrNotInteractive is returned when a prompt is needed but stdin is not
	// a terminal.
	ErrNotInteractive = errors.New("confirmation required but stdin is not a terminal (use --force)")
)

// interactive reports whether stdin is a terminal. Tests replace it.
var interactive = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsInteractive reports whether prompts can be shown.
func IsInteractive() bool {
	return interactive()
}

// IsAborted returns true if the error indicates the user aborted (Ctrl+C).
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

// wrapError converts promptui interrupt/abort errors to ErrAborted for consistent handling.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}
