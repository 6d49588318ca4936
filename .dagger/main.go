// Chatdeck CI/CD
//
// Package main provides reproducible builds, tests and lint runs for chatdeck
// locally and in GitHub actions.
package main

import (
	"context"

	"dagger/chatdeck/internal/dagger"
)

// Chatdeck is the main module for the chatdeck CI/CD pipeline
type Chatdeck struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Chatdeck CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Chatdeck {
	return &Chatdeck{
		Source: source,
	}
}

// goContainer returns an Alpine Go container with the module caches and the
// project source mounted. chatdeck is pure Go, so CGO stays off.
func (c *Chatdeck) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", c.Source)
}

// Test runs the chatdeck unit tests via "go test"
//
// +check
func (c *Chatdeck) Test(ctx context.Context) (string, error) {
	return c.goContainer().
		WithExec([]string{"go", "test", "./..."}).
		Stdout(ctx)
}
