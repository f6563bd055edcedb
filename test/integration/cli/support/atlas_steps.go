package support

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/atlasmatch/internal/imageio"
	"github.com/MeKo-Tech/atlasmatch/internal/testutil"
	"github.com/cucumber/godog"
)

// aSyntheticAtlasWithMetadata writes the default synthetic atlas as atlas.png
// and its metadata in the given dialect.
func (testCtx *TestContext) aSyntheticAtlasWithMetadata(format string) error {
	synth := testutil.GenerateAtlas(testutil.DefaultAtlasConfig())

	imagePath := testCtx.Path("atlas.png")
	if err := imageio.SaveImage(imagePath, synth.Image); err != nil {
		return fmt.Errorf("failed to write atlas image: %w", err)
	}

	text, err := synth.Metadata(format, "atlas.png")
	if err != nil {
		return fmt.Errorf("failed to generate %s metadata: %w", format, err)
	}
	ext := ".json"
	if format == testutil.FormatXML {
		ext = ".xml"
	}
	metaPath := testCtx.Path("atlas" + ext)
	if err := os.WriteFile(metaPath, []byte(text), 0o600); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	testCtx.Atlas = synth
	testCtx.AtlasImage = imagePath
	testCtx.AtlasMeta = metaPath
	return nil
}

// aQueryImageOfFrame writes an upright copy of a synthetic frame, upscaled by
// factor, and exposes it as {query:NAME}.
func (testCtx *TestContext) aQueryImageOfFrame(name string, factor int) error {
	if testCtx.Atlas == nil {
		return fmt.Errorf("no synthetic atlas generated before query %s", name)
	}
	img := testCtx.Atlas.Query(name, factor)
	if img == nil {
		return fmt.Errorf("synthetic atlas has no frame %s", name)
	}
	path := testCtx.Path(filepath.Join("queries", name+".png"))
	if err := imageio.SaveImage(path, img); err != nil {
		return fmt.Errorf("failed to write query image: %w", err)
	}
	testCtx.Queries[name] = path
	return nil
}

// RegisterAtlasSteps registers fixture generation steps.
func (testCtx *TestContext) RegisterAtlasSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a synthetic atlas with "([^"]*)" metadata$`, testCtx.aSyntheticAtlasWithMetadata)
	sc.Step(`^a query image of frame "([^"]*)" scaled by (\d+)$`, testCtx.aQueryImageOfFrame)
}
