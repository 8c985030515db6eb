package cli

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/chmouel/blendgit/internal/dispatch"
)

// ErrAborted is returned when the user declines a confirmation.
var ErrAborted = errors.New("aborted")

// Package-level prompt functions; tests replace them.
var (
	commitFormFunc = runCommitForm
	confirmFunc    = runConfirm
)

func runCommitForm(summary, description *string) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Summary").
				Placeholder("Update lighting for shot 010").
				Value(summary),
			huh.NewText().
				Title("Description").
				Lines(5).
				Value(description),
		),
	).Run()
}

func runConfirm(title, description string) (bool, error) {
	ok := false
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}

// PromptCommit asks for a commit summary and description, prefilled with
// the given values. Both empty is ErrEmptyMessage.
func PromptCommit(summary, description string) (string, string, error) {
	if err := commitFormFunc(&summary, &description); err != nil {
		return "", "", err
	}
	summary = strings.TrimSpace(summary)
	description = strings.TrimSpace(description)
	if summary == "" && description == "" {
		return "", "", dispatch.ErrEmptyMessage
	}
	return summary, description, nil
}

// Confirm asks a yes/no question unless assumeYes is set. A "no" answer is
// ErrAborted.
func Confirm(title, description string, assumeYes bool) error {
	if assumeYes {
		return nil
	}
	ok, err := confirmFunc(title, description)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}
