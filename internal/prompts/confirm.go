// Package prompts separates interactive confirmation into a pure decision
// function and a thin survey-backed I/O boundary, so command logic is
// testable without a terminal.
package prompts

import (
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mattn/go-isatty"

	"github.com/platform-tools/platform-cli/internal/models"
)

// Decision is the outcome of ShouldPrompt.
type Decision int

const (
	// Proceed without asking: an explicit skip flag was given.
	Proceed Decision = iota
	// Ask the operator interactively.
	Ask
	// Refuse: confirmation is required but no terminal is attached.
	Refuse
)

// ShouldPrompt decides how a confirmation gate resolves, given the explicit
// skip flag and terminal-ness. Pure; the I/O lives in Confirm.
func ShouldPrompt(skip, isTerminal bool) Decision {
	if skip {
		return Proceed
	}
	if !isTerminal {
		return Refuse
	}
	return Ask
}

// Confirm gates an irreversible action behind a yes/no prompt. With skip
// set it proceeds immediately; without a terminal it refuses rather than
// hanging. A declined prompt returns models.Aborted.
func Confirm(message string, skip bool) error {
	switch ShouldPrompt(skip, isatty.IsTerminal(os.Stdin.Fd())) {
	case Proceed:
		return nil
	case Refuse:
		return &models.Aborted{}
	}

	var ok bool
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &ok); err != nil {
		return &models.Aborted{}
	}
	if !ok {
		return &models.Aborted{}
	}
	return nil
}
