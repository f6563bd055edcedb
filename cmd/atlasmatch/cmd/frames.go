package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/atlasmatch/internal/atlas"
	"github.com/MeKo-Tech/atlasmatch/internal/imageio"
	"github.com/spf13/cobra"
)

// framesCmd lists the frames of a metadata file.
var framesCmd = &cobra.Command{
	Use:   "frames META",
	Short: "List the frames described by atlas metadata",
	Long: `Parse atlas metadata and list its frames in document order.

The dialect is detected from the content, never from the file extension:
JSON array, JSON hash, JSON frames array, or Sparrow/Starling XML.

Examples:
  atlasmatch frames atlas.json
  atlasmatch frames atlas.xml --format csv
  atlasmatch frames atlas.json -f yaml -o frames.yaml`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolvedConfig()
		if err != nil {
			return err
		}
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		var text strings.Builder
		fmt.Fprintf(&text, "%s: loaded %d frames (%s)\n", args[0], len(doc.Frames), doc.Format)
		rows := make([][]string, len(doc.Frames))
		for i, f := range doc.Frames {
			text.WriteString(frameLine(i, f))
			text.WriteByte('\n')
			rows[i] = frameRow(i, f)
		}

		return emit(cmd, cfg, report{
			text: text.String(),
			value: struct {
				File   string       `json:"file" yaml:"file"`
				Format atlas.Format `json:"format" yaml:"format"`
				Meta   atlas.Meta   `json:"meta" yaml:"meta"`
				Frames []frameEntry `json:"frames" yaml:"frames"`
			}{args[0], doc.Format, doc.Meta, frameEntries(doc.Frames)},
			header: frameHeader,
			rows:   rows,
		})
	},
}

// loadDocument reads and parses a metadata file, naming the file in errors.
func loadDocument(path string) (*atlas.Document, error) {
	text, err := imageio.ReadText(path)
	if err != nil {
		return nil, err
	}
	doc, err := atlas.ParseDocument(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// findCmd searches frames by name.
var findCmd = &cobra.Command{
	Use:   "find META QUERY",
	Short: "Find the first frame whose name contains QUERY",
	Long: `Search the frames of atlas metadata by name.

The first frame whose name contains QUERY, ignoring case, is reported. The
command fails when no frame matches.

Examples:
  atlasmatch find atlas.json hero
  atlasmatch find atlas.xml WALK --format json`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolvedConfig()
		if err != nil {
			return err
		}
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}

		query := args[1]
		if strings.TrimSpace(query) == "" {
			return errors.New("empty name query")
		}
		i := doc.Frames.FindByName(query)
		if i < 0 {
			return fmt.Errorf("no frame name contains %q", query)
		}
		f := doc.Frames[i]

		return emit(cmd, cfg, report{
			text:   frameLine(i, f),
			value:  frameEntry{Index: i, Frame: f},
			header: frameHeader,
			rows:   [][]string{frameRow(i, f)},
		})
	},
}

func init() {
	rootCmd.AddCommand(framesCmd)
	rootCmd.AddCommand(findCmd)
}
