package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// Confirm prompts the user for yes/no confirmation.
// Returns ErrAborted if the user presses Ctrl+C and ErrNotInteractive when
// stdin is not a terminal.
func Confirm(label string, defaultYes bool) (bool, error) {
	if !interactive() {
		return false, ErrNotInteractive
	}

	defaultStr := "y/N"
	if defaultYes {
		defaultStr = "Y/n"
	}

	p := promptui.Prompt{
		Label:     fmt.Sprintf("%s [%s]", label, defaultStr),
		IsConfirm: true,
	}

	result, err := p.Run()
	if err != nil {
		switch {
		case errors.Is(err, promptui.ErrInterrupt):
			return false, ErrAborted
		case errors.Is(err, promptui.ErrAbort):
			// promptui returns ErrAbort for "n" and for empty input
			if result == "" {
				return defaultYes, nil
			}
			return false, nil
		default:
			return false, err
		}
	}

	answer := strings.ToLower(strings.TrimSpace(result))
	return answer == "y" || answer == "yes", nil
}

// ConfirmWithForce returns true immediately if force is true,
// otherwise prompts for confirmation.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label, false)
}

// ConfirmDelete asks before deleting the object at path. Recursive deletes
// say so in the question.
func ConfirmDelete(path string, recursive, force bool) (bool, error) {
	label := fmt.Sprintf("Delete '%s'?", path)
	if recursive {
		label = fmt.Sprintf("Delete '%s' and everything below it?", path)
	}
	return ConfirmWithForce(label, force)
}
