// Package confirm asks the operator before a pipeline spends money.
package confirm

import (
	"context"
	"errors"

	"github.com/charmbracelet/huh"
)

// Confirmer decides whether to proceed with a costly operation.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Func adapts a plain function to Confirmer.
type Func func(ctx context.Context, question string) (bool, error)

// Confirm calls f.
func (f Func) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// Always answers every question with the same value (used for --yes).
type Always bool

// Confirm returns the fixed answer.
func (a Always) Confirm(context.Context, string) (bool, error) {
	return bool(a), nil
}

// Prompt asks through an interactive terminal form.
type Prompt struct{}

// Confirm shows a yes/no prompt. Aborting the form (ctrl+c) counts as "no".
func (Prompt) Confirm(ctx context.Context, question string) (bool, error) {
	var ok bool
	field := huh.NewConfirm().
		Title(question).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)

	err := huh.NewForm(huh.NewGroup(field)).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}
