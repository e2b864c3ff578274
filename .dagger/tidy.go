package main

import (
	"context"
	"errors"
	"fmt"

	"dagger/lingo/internal/dagger"
)

// CheckGoModTidy fails when "go mod tidy" would change go.mod or go.sum.
//
// +check
func (l *Lingo) CheckGoModTidy(ctx context.Context) (string, error) {
	_, err := l.goContainer().
		WithExec([]string{"go", "mod", "tidy", "-diff"}).
		Stdout(ctx)

	var e *dagger.ExecError
	switch {
	case errors.As(err, &e):
		return "", fmt.Errorf("go.mod or go.sum need tidying; run 'go mod tidy':\n\n%s", e.Stdout)
	case err != nil:
		return "", fmt.Errorf("running go mod tidy: %w", err)
	}
	return "go.mod and go.sum are tidy", nil
}
