package cli_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/atlasmatch/internal/testutil"
	"github.com/MeKo-Tech/atlasmatch/test/integration/cli/support"
	"github.com/cucumber/godog"
)

// InitializeScenario gives every scenario a fresh temp directory and the full
// step vocabulary.
func InitializeScenario(sc *godog.ScenarioContext) {
	testCtx, err := support.NewTestContext()
	if err != nil {
		panic(fmt.Sprintf("Failed to create test context: %v", err))
	}

	testCtx.RegisterCommonSteps(sc)
	testCtx.RegisterAtlasSteps(sc)
	testCtx.RegisterErrorSteps(sc)

	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		if cleanupErr := testCtx.Cleanup(); cleanupErr != nil {
			fmt.Printf("Warning: Failed to cleanup test context: %v\n", cleanupErr)
		}
		return ctx, nil
	})
}

// TestFeatures runs each feature file as its own subtest. GODOG_FORMAT and
// GODOG_TAGS select the formatter and a tag filter.
func TestFeatures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("features", "*.feature"))
	if err != nil {
		t.Fatalf("failed to list features: %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no .feature files found in features/")
	}

	format := os.Getenv("GODOG_FORMAT")
	if format == "" {
		format = "pretty"
	}

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			suite := godog.TestSuite{
				Name:                filepath.Base(path),
				ScenarioInitializer: InitializeScenario,
				Options: &godog.Options{
					Format:   format,
					Tags:     os.Getenv("GODOG_TAGS"),
					Paths:    []string{path},
					TestingT: t,
				},
			}
			if status := suite.Run(); status != 0 {
				t.Fatalf("%s finished with status %d", path, status)
			}
		})
	}
}

// buildCLI compiles cmd/atlasmatch into dir and returns the binary path.
func buildCLI(root, dir string) (string, error) {
	bin := filepath.Join(dir, "atlasmatch")
	build := exec.CommandContext(context.Background(), "go", "build", "-o", bin, "./cmd/atlasmatch")
	build.Dir = root
	build.Env = os.Environ()
	if out, err := build.CombinedOutput(); err != nil {
		return "", fmt.Errorf("go build: %w\n%s", err, out)
	}
	return bin, nil
}

// TestMain builds a fresh binary for this run and puts it first on PATH, so
// scenarios can call plain "atlasmatch".
func TestMain(m *testing.M) {
	os.Exit(runSuite(m))
}

func runSuite(m *testing.M) int {
	root, err := testutil.GetProjectRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate project root: %v\n", err)
		return 1
	}

	binDir, err := os.MkdirTemp("", "atlasmatch-bin-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create bin dir: %v\n", err)
		return 1
	}
	defer func() { _ = os.RemoveAll(binDir) }()

	if _, err := buildCLI(root, binDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to build CLI binary: %v\n", err)
		return 1
	}
	_ = os.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	return m.Run()
}
