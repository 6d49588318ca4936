package main

import (
	"context"
	"fmt"
)

const golangciLintVersion = "v2.8.0"

// CheckLint runs golangci-lint against the chatdeck source code without
// applying fixes.
//
// +check
func (c *Chatdeck) CheckLint(ctx context.Context) (string, error) {
	return c.goContainer().
		WithExec([]string{
			"go",
			"install",
			fmt.Sprintf("github.com/golangci/golangci-lint/v2/cmd/golangci-lint@%s", golangciLintVersion),
		}).
		WithExec([]string{"/go/bin/golangci-lint", "run", "./..."}).
		Stdout(ctx)
}

// Vet runs "go vet" over every package.
func (c *Chatdeck) Vet(ctx context.Context) (string, error) {
	return c.goContainer().
		WithExec([]string{"go", "vet", "./..."}).
		Stdout(ctx)
}
