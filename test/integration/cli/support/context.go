package support

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/MeKo-Tech/atlasmatch/internal/testutil"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastStderr    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	WorkingDir string
	TempDir    string
	EnvVars    []string

	// Fixtures
	Atlas      *testutil.SyntheticAtlas
	AtlasImage string
	AtlasMeta  string
	Queries    map[string]string

	// Test artifacts
	CreatedFiles       []string
	CreatedDirectories []string
}

// NewTestContext creates a new test context.
func NewTestContext() (*TestContext, error) {
	workingDir, err := testutil.GetProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("failed to find project root: %w", err)
	}

	// Create temporary directory for test artifacts
	tempDir, err := os.MkdirTemp("", "atlasmatch-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	ctx := &TestContext{
		WorkingDir:         workingDir,
		TempDir:            tempDir,
		EnvVars:            []string{},
		Queries:            map[string]string{},
		CreatedFiles:       []string{},
		CreatedDirectories: []string{},
	}

	// Keep user configuration out of the commands under test.
	ctx.AddEnvVar("HOME", tempDir)
	ctx.AddEnvVar("XDG_CONFIG_HOME", filepath.Join(tempDir, ".config"))

	return ctx, nil
}

// Cleanup removes all temporary files and directories created during tests.
func (testCtx *TestContext) Cleanup() error {
	var errors []error

	// Remove created files
	for _, file := range testCtx.CreatedFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			errors = append(errors, fmt.Errorf("failed to remove file %s: %w", file, err))
		}
	}

	// Remove created directories
	for _, dir := range testCtx.CreatedDirectories {
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			errors = append(errors, fmt.Errorf("failed to remove directory %s: %w", dir, err))
		}
	}

	// Remove temp directory
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errors = append(errors, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("cleanup errors: %v", errors)
	}

	return nil
}

// AddEnvVar adds an environment variable for command execution.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// TrackFile adds a file to be cleaned up after tests.
func (testCtx *TestContext) TrackFile(filename string) {
	testCtx.CreatedFiles = append(testCtx.CreatedFiles, testCtx.Path(filename))
}

// TrackDirectory adds a directory to be cleaned up after tests.
func (testCtx *TestContext) TrackDirectory(dirname string) {
	testCtx.CreatedDirectories = append(testCtx.CreatedDirectories, testCtx.Path(dirname))
}

// Path resolves a scenario file name against the scenario's temp directory.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

var queryVariable = regexp.MustCompile(`\{query:([^}]+)\}`)

// substituteCommandVariables replaces variables in command strings:
// {atlas}, {meta}, {tmp} and {query:NAME}.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	command = strings.ReplaceAll(command, "{atlas}", testCtx.AtlasImage)
	command = strings.ReplaceAll(command, "{meta}", testCtx.AtlasMeta)
	command = strings.ReplaceAll(command, "{tmp}", testCtx.TempDir)
	return queryVariable.ReplaceAllStringFunc(command, func(m string) string {
		name := queryVariable.FindStringSubmatch(m)[1]
		if p, ok := testCtx.Queries[name]; ok {
			return p
		}
		return m
	})
}
