//go:build tools
// +build tools

// Package tools documents development tool dependencies.
// These tools are run with `go run` or installed via `go install` and are not
// tracked in go.mod since they are development tools, not runtime dependencies.
package tools

// Development tools:
//
// mockgen - regenerates internal/mocks (see internal/mocks/generate.go)
//   Run: go generate ./internal/mocks/...
//   Version: go.uber.org/mock/mockgen@v0.6.0
//
// golangci-lint - lint gate; honours the //nolint directives in the tree
//   Install: go install github.com/golangci/golangci-lint/v2/cmd/golangci-lint@v2.4.0
//
// Air - live reload for the app and engine binaries during local development
//   Install: go install github.com/air-verse/air@v1.63.0
//   Docs: https://github.com/air-verse/air
