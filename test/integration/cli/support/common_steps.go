package support

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterCommonSteps registers the shared step definitions.
func (testCtx *TestContext) RegisterCommonSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run lapse with arguments "([^"]*)"$`, testCtx.iRunLapseWithArguments)
	sc.Step(`^the command succeeds$`, testCtx.theCommandSucceeds)
	sc.Step(`^the command fails$`, testCtx.theCommandFails)
	sc.Step(`^the output contains "([^"]*)"$`, testCtx.theOutputContains)
	sc.Step(`^the output has a line starting with "([^"]*)"$`, testCtx.theOutputHasALineStartingWith)
	sc.Step(`^the error mentions "([^"]*)"$`, testCtx.theErrorMentions)
	sc.Step(`^the report file "([^"]*)" exists and contains "([^"]*)"$`, testCtx.theReportFileContains)
}

func (testCtx *TestContext) iRunLapseWithArguments(argLine string) error {
	// Rewrite bare output filenames into the scenario temp dir.
	if strings.Contains(argLine, "--output ") {
		parts := strings.SplitN(argLine, "--output ", 2)
		rest := strings.Fields(parts[1])
		path := filepath.Join(testCtx.TempDir, rest[0])
		rest[0] = path
		argLine = parts[0] + "--output " + strings.Join(rest, " ")
		testCtx.CreatedFiles = append(testCtx.CreatedFiles, path)
	}
	return testCtx.RunLapse(argLine)
}

func (testCtx *TestContext) theCommandSucceeds() error {
	if testCtx.LastError != nil {
		return fmt.Errorf("expected %q to succeed, got: %w\noutput:\n%s",
			testCtx.LastCommand, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theCommandFails() error {
	if testCtx.LastError == nil {
		return fmt.Errorf("expected %q to fail but it succeeded\noutput:\n%s",
			testCtx.LastCommand, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputContains(expected string) error {
	if !strings.Contains(testCtx.LastOutput, expected) {
		return fmt.Errorf("output of %q does not contain %q:\n%s",
			testCtx.LastCommand, expected, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputHasALineStartingWith(prefix string) error {
	for _, line := range strings.Split(testCtx.LastOutput, "\n") {
		if strings.HasPrefix(line, prefix) {
			return nil
		}
	}
	return fmt.Errorf("no line of %q output starts with %q:\n%s",
		testCtx.LastCommand, prefix, testCtx.LastOutput)
}

func (testCtx *TestContext) theErrorMentions(expected string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("command %q produced no error", testCtx.LastCommand)
	}
	if !strings.Contains(testCtx.LastError.Error(), expected) {
		return fmt.Errorf("error %q does not mention %q", testCtx.LastError, expected)
	}
	return nil
}

func (testCtx *TestContext) theReportFileContains(name, expected string) error {
	path := filepath.Join(testCtx.TempDir, name)
	data, err := readFile(path)
	if err != nil {
		return err
	}
	if !strings.Contains(data, expected) {
		return fmt.Errorf("report file %s does not contain %q:\n%s", path, expected, data)
	}
	return nil
}
