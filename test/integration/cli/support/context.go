// Package support provides the shared state and step definitions for the
// CLI integration tests.
package support

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/MeKo-Tech/lapse/cmd/lapse/cmd"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand string
	LastOutput  string
	LastError   error

	// Test environment
	TempDir string

	// Test artifacts
	CreatedFiles []string
}

// NewTestContext creates a new test context.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "lapse-cli-test-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TestContext{TempDir: tempDir}, nil
}

// RunLapse executes the lapse root command in-process with the given
// argument string and captures combined output.
func (testCtx *TestContext) RunLapse(argLine string) error {
	args := strings.Fields(argLine)

	buf := new(bytes.Buffer)
	root := cmd.GetRootCommand()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	testCtx.LastCommand = "lapse " + argLine
	testCtx.LastError = root.Execute()
	testCtx.LastOutput = buf.String()
	return nil
}

// readFile reads a whole file as a string.
func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// Cleanup removes test artifacts.
func (testCtx *TestContext) Cleanup() error {
	for _, file := range testCtx.CreatedFiles {
		_ = os.Remove(file)
	}
	if testCtx.TempDir != "" {
		return os.RemoveAll(testCtx.TempDir)
	}
	return nil
}
