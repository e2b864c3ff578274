// Lingo CI
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/lingo/internal/dagger"
)

// Lingo is the main module for the lingo CI pipeline
type Lingo struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Lingo CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Lingo {
	return &Lingo{
		Source: source,
	}
}

// goContainer returns a Go container with the project source mounted and
// module and build caches attached. lingo is pure Go, so CGO stays off.
func (l *Lingo) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", l.Source)
}

// Test runs the lingo unit tests via "go test"
func (l *Lingo) Test(ctx context.Context) (string, error) {
	return l.goContainer().
		WithExec([]string{"go", "test", "-race", "./..."}).
		Stdout(ctx)
}
