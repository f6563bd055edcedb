package support

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/atlasmatch/internal/imageio"
	"github.com/cucumber/godog"
	"gopkg.in/yaml.v3"
)

// iRunCommand executes a command line in the scenario's temp directory.
func (testCtx *TestContext) iRunCommand(command string) error {
	// Perform command substitution
	command = testCtx.substituteCommandVariables(command)

	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	// Parse command into parts
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Execute command
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...) //nolint:gosec // G204: scenario commands are test input
	cmd.Dir = testCtx.TempDir

	// Set environment variables
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)

	// Keep stdout apart from the JSON log lines on stderr
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)

	// Store exit code
	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			testCtx.LastExitCode = exitError.ExitCode()
		} else {
			testCtx.LastExitCode = -1
		}
	} else {
		testCtx.LastExitCode = 0
	}

	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s\nStderr: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput, testCtx.LastStderr)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldNotContain verifies the output lacks specific text.
func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBeValidJSON verifies the output is valid JSON.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	var v any
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &v); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastOutput)
	}
	return nil
}

// theJSONFieldShouldBe compares a dotted JSON path (numeric parts index arrays)
// with the expected value rendered as text.
func (testCtx *TestContext) theJSONFieldShouldBe(path, expected string) error {
	var data any
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &data); err != nil {
		return fmt.Errorf("output is not valid JSON: %w", err)
	}
	value, err := lookupPath(data, path)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(value); got != expected {
		return fmt.Errorf("JSON field %s is %q, expected %q", path, got, expected)
	}
	return nil
}

func lookupPath(data any, path string) (any, error) {
	current := data
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("field %s not found in JSON output", path)
			}
			current = next
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %s of %s out of range", part, path)
			}
			current = node[i]
		default:
			return nil, fmt.Errorf("field %s not found in JSON output", path)
		}
	}
	return current, nil
}

// theOutputShouldBeValidYAML verifies the output parses as YAML.
func (testCtx *TestContext) theOutputShouldBeValidYAML() error {
	var v any
	if err := yaml.Unmarshal([]byte(testCtx.LastOutput), &v); err != nil {
		return fmt.Errorf("output is not valid YAML: %w\nOutput: %s", err, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBeCSVWithRows verifies the output is CSV with a header and n
// data rows.
func (testCtx *TestContext) theOutputShouldBeCSVWithRows(n int) error {
	records, err := csv.NewReader(strings.NewReader(testCtx.LastOutput)).ReadAll()
	if err != nil {
		return fmt.Errorf("output is not valid CSV: %w", err)
	}
	if len(records) != n+1 {
		return fmt.Errorf("expected %d CSV data rows, got %d\nOutput: %s", n, len(records)-1, testCtx.LastOutput)
	}
	return nil
}

// theFileShouldExist verifies a file exists in the scenario directory.
func (testCtx *TestContext) theFileShouldExist(filename string) error {
	if _, err := os.Stat(testCtx.Path(filename)); err != nil {
		return fmt.Errorf("file %s does not exist: %w", filename, err)
	}
	return nil
}

// theFileShouldContain verifies a file contains the given text.
func (testCtx *TestContext) theFileShouldContain(filename, expectedContent string) error {
	data, err := os.ReadFile(testCtx.Path(filename))
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	if !strings.Contains(string(data), expectedContent) {
		return fmt.Errorf("file %s does not contain '%s'", filename, expectedContent)
	}
	return nil
}

// theImageShouldMeasure verifies an output image's size.
func (testCtx *TestContext) theImageShouldMeasure(filename string, width, height int) error {
	_, meta, err := imageio.LoadImage(testCtx.Path(filename))
	if err != nil {
		return err
	}
	if meta.Width != width || meta.Height != height {
		return fmt.Errorf("image %s is %dx%d, expected %dx%d", filename, meta.Width, meta.Height, width, height)
	}
	return nil
}

// theEnvironmentVariableIsSetTo sets an environment variable for later commands.
func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	testCtx.AddEnvVar(name, value)
	return nil
}

// aFileContaining writes a doc string into the scenario directory.
func (testCtx *TestContext) aFileContaining(filename string, content *godog.DocString) error {
	path := testCtx.Path(filename)
	if err := os.WriteFile(path, []byte(content.Content), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	testCtx.TrackFile(path)
	return nil
}

// theProcessingShouldCompleteWithinSeconds bounds the last command's run time.
func (testCtx *TestContext) theProcessingShouldCompleteWithinSeconds(seconds int) error {
	if testCtx.LastDuration > time.Duration(seconds)*time.Second {
		return fmt.Errorf("command took %v, expected at most %ds", testCtx.LastDuration, seconds)
	}
	return nil
}

// registerCommandSteps registers command execution and result verification steps.
func (testCtx *TestContext) registerCommandSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the processing should complete within (\d+) seconds$`, testCtx.theProcessingShouldCompleteWithinSeconds)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)
}

// registerOutputSteps registers output verification steps.
func (testCtx *TestContext) registerOutputSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the output should be valid YAML$`, testCtx.theOutputShouldBeValidYAML)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the output should be CSV with (\d+) rows?$`, testCtx.theOutputShouldBeCSVWithRows)
}

// registerFileSteps registers file verification steps.
func (testCtx *TestContext) registerFileSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a file "([^"]*)" containing:$`, testCtx.aFileContaining)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the image "([^"]*)" should measure (\d+)x(\d+)$`, testCtx.theImageShouldMeasure)
}

// RegisterCommonSteps registers all common step definitions.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	testCtx.registerCommandSteps(sc)
	testCtx.registerOutputSteps(sc)
	testCtx.registerFileSteps(sc)
}
