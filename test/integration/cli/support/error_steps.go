package support

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// theErrorShouldMention verifies that stderr, or stdout, names the problem.
func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	combined := strings.ToLower(testCtx.LastStderr + testCtx.LastOutput)
	if !strings.Contains(combined, strings.ToLower(errorText)) {
		return fmt.Errorf("error output does not mention '%s'\nStderr: %s\nOutput: %s",
			errorText, testCtx.LastStderr, testCtx.LastOutput)
	}
	return nil
}

// theErrorShouldMentionFileNotFound verifies file not found error.
func (testCtx *TestContext) theErrorShouldMentionFileNotFound() error {
	return testCtx.theErrorShouldMention("no such file")
}

// theErrorShouldMentionAnUndecodableImage verifies image decode error.
func (testCtx *TestContext) theErrorShouldMentionAnUndecodableImage() error {
	return testCtx.theErrorShouldMention("failed to decode image")
}

// theErrorShouldMentionUnrecognizedMetadata verifies metadata format errors.
func (testCtx *TestContext) theErrorShouldMentionUnrecognizedMetadata() error {
	for _, indicator := range []string{"unknown json atlas format", "unknown xml atlas format", "could not parse as json or xml"} {
		if testCtx.theErrorShouldMention(indicator) == nil {
			return nil
		}
	}
	return fmt.Errorf("error output does not describe unrecognized metadata\nStderr: %s", testCtx.LastStderr)
}

// theErrorShouldMentionInvalidConfigurationValues verifies configuration validation errors.
func (testCtx *TestContext) theErrorShouldMentionInvalidConfigurationValues() error {
	return testCtx.theErrorShouldMention("invalid")
}

// RegisterErrorSteps registers error verification steps.
func (testCtx *TestContext) RegisterErrorSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^the error should mention file not found$`, testCtx.theErrorShouldMentionFileNotFound)
	sc.Step(`^the error should mention an undecodable image$`, testCtx.theErrorShouldMentionAnUndecodableImage)
	sc.Step(`^the error should mention unrecognized metadata$`, testCtx.theErrorShouldMentionUnrecognizedMetadata)
	sc.Step(`^the error should mention invalid configuration values$`,
		testCtx.theErrorShouldMentionInvalidConfigurationValues)
}
