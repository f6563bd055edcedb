package cmd

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/MeKo-Tech/atlasmatch/internal/imageio"
	"github.com/MeKo-Tech/atlasmatch/internal/render"
	"github.com/spf13/cobra"
)

// cropCmd exports upright previews of frames.
var cropCmd = &cobra.Command{
	Use:   "crop ATLAS META [NAME]",
	Short: "Export upright previews or thumbnails of atlas frames",
	Long: `Cut frames out of an atlas, turn rotated frames upright and fit them into a
square preview.

With NAME the first frame whose name contains NAME is exported. --all renders a
contact sheet of thumbnails for every frame, --each writes one preview per frame
into a directory. Output images may be PNG, JPEG or WebP, chosen by extension.

Examples:
  atlasmatch crop atlas.png atlas.json hero --save hero.png
  atlasmatch crop atlas.png atlas.json hero --terminal --protocol blocks
  atlasmatch crop atlas.png atlas.xml --all --labels --save sheet.webp
  atlasmatch crop atlas.png atlas.json --each sprites/`,
	Args:         cobra.RangeArgs(2, 3),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolvedConfig()
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		each, _ := cmd.Flags().GetString("each")
		save, _ := cmd.Flags().GetString("save")
		columns, _ := cmd.Flags().GetInt("columns")
		labels, _ := cmd.Flags().GetBool("labels")

		sess, _ := newSession(cfg)
		if err := sess.LoadFiles(args[0], args[1]); err != nil {
			return err
		}
		snap := sess.Snapshot()

		var (
			img     image.Image
			written []string
			text    strings.Builder
		)
		switch {
		case each != "":
			if err := os.MkdirAll(each, 0o750); err != nil {
				return fmt.Errorf("failed to create %s: %w", each, err)
			}
			for i, f := range snap.Frames {
				path := filepath.Join(each, fmt.Sprintf("%d_%s.png", i, safeFileName(f.Name)))
				if err := imageio.SaveImage(path, render.Preview(snap.Atlas, f, cfg.Preview.Size)); err != nil {
					return err
				}
				written = append(written, path)
			}
			fmt.Fprintf(&text, "wrote %d previews to %s\n", len(written), each)
		case all:
			img = render.ContactSheet(snap.Atlas, snap.Frames, cfg.Preview.ThumbnailSize, columns, labels,
				cfg.ToRenderOptions().Background)
			if save == "" && !cfg.Preview.Terminal {
				save = "contact-sheet.png"
			}
			fmt.Fprintf(&text, "contact sheet of %d frames\n", len(snap.Frames))
		default:
			if len(args) < 3 {
				return errors.New("no frame name provided (use --all or --each for every frame)")
			}
			i := sess.FindByName(args[2])
			if i < 0 {
				return fmt.Errorf("no frame name contains %q", args[2])
			}
			f, _ := sess.Selected()
			img = render.Preview(snap.Atlas, f, cfg.Preview.Size)
			if save == "" && !cfg.Preview.Terminal {
				save = safeFileName(f.Name) + ".png"
			}
			text.WriteString(frameLine(i, f))
			text.WriteByte('\n')
		}

		if img != nil && save != "" {
			if err := imageio.SaveImage(save, img); err != nil {
				return err
			}
			written = append(written, save)
			fmt.Fprintf(&text, "saved %s\n", save)
		}
		if img != nil && cfg.Preview.Terminal {
			if err := showInTerminal(cmd, cfg, img); err != nil {
				return err
			}
		}

		rows := make([][]string, len(written))
		for i, p := range written {
			rows[i] = []string{p}
		}
		return emit(cmd, cfg, report{
			text: text.String(),
			value: struct {
				Files []string `json:"files" yaml:"files"`
			}{written},
			header: []string{"file"},
			rows:   rows,
		})
	},
}

// safeFileName turns a frame name into a single path element.
func safeFileName(name string) string {
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, name)
	safe = strings.Trim(safe, ".")
	if safe == "" {
		return "frame"
	}
	return safe
}

func init() {
	rootCmd.AddCommand(cropCmd)

	cropCmd.Flags().StringP("save", "s", "", "image file to write (default: NAME.png or contact-sheet.png)")
	cropCmd.Flags().Bool("all", false, "render a contact sheet of all frames")
	cropCmd.Flags().String("each", "", "write one preview per frame into this directory")
	cropCmd.Flags().Int("columns", 0, "contact sheet columns (0 = square layout)")
	cropCmd.Flags().Bool("labels", false, "print frame names under contact sheet thumbnails")
	cropCmd.Flags().Int("size", 256, "side of the square frame preview")
	cropCmd.Flags().Int("thumb-size", 44, "side of a contact sheet thumbnail")

	bindFlags(cropCmd.Flags().Lookup, []flagBinding{
		{"preview.size", "size"},
		{"preview.thumbnail_size", "thumb-size"},
	})
}
