package cmd

import (
	"fmt"
	"image"
	"strings"

	"github.com/MeKo-Tech/atlasmatch/internal/imageio"
	"github.com/MeKo-Tech/atlasmatch/internal/render"
	"github.com/MeKo-Tech/atlasmatch/internal/session"
	"github.com/MeKo-Tech/atlasmatch/internal/viewport"
	"github.com/spf13/cobra"
)

// viewCmd replays viewport interactions and renders the resulting view.
var viewCmd = &cobra.Command{
	Use:   "view ATLAS META",
	Short: "Replay pan, zoom and selection events and render the atlas view",
	Long: `Render the atlas with every frame outlined, after replaying viewport events.

Events are applied in order, each given with --event:
  wheel:X,Y,DY   zoom one notch at screen point X,Y (DY < 0 zooms in)
  down:X,Y       start panning at X,Y
  move:X,Y       pan to X,Y while the pointer is down
  up             stop panning
  click:X,Y      select the topmost frame under screen point X,Y
  select:I       select frame I (-1 clears the selection)

--select and --match choose a frame by name or by query image before the
events run. The selected frame is outlined solid.

Examples:
  atlasmatch view atlas.png atlas.json --save view.png
  atlasmatch view atlas.png atlas.json --event wheel:100,100,-1 --event click:40,40
  atlasmatch view atlas.png atlas.xml --match query.png --labels --terminal`,
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolvedConfig()
		if err != nil {
			return err
		}
		specs, _ := cmd.Flags().GetStringArray("event")
		selectName, _ := cmd.Flags().GetString("select")
		queryPath, _ := cmd.Flags().GetString("match")
		save, _ := cmd.Flags().GetString("save")

		events, err := viewport.ParseEvents(specs)
		if err != nil {
			return err
		}

		sess, _ := newSession(cfg)
		if err := sess.LoadFiles(args[0], args[1]); err != nil {
			return err
		}
		if selectName != "" && sess.FindByName(selectName) < 0 {
			return fmt.Errorf("no frame name contains %q", selectName)
		}
		if queryPath != "" {
			query, _, err := imageio.LoadImage(queryPath)
			if err != nil {
				return err
			}
			if _, err := sess.FindByImage(query); err != nil {
				return err
			}
		}
		sess.Replay(events)

		snap := sess.Snapshot()
		img := render.View(snap.Atlas, snap.Frames, snap.View, cfg.ToRenderOptions())
		if save == "" && !cfg.Preview.Terminal {
			save = "view.png"
		}
		if save != "" {
			if err := imageio.SaveImage(save, img); err != nil {
				return err
			}
		}
		if cfg.Preview.Terminal {
			if err := showInTerminal(cmd, cfg, img); err != nil {
				return err
			}
		}

		return emit(cmd, cfg, viewReport(sess, save))
	},
}

type viewSummary struct {
	Status   string         `json:"status" yaml:"status"`
	Image    string         `json:"image,omitempty" yaml:"image,omitempty"`
	View     viewport.State `json:"view" yaml:"view"`
	Selected *frameEntry    `json:"selected,omitempty" yaml:"selected,omitempty"`
	Screen   []int          `json:"screen_rect,omitempty" yaml:"screen_rect,omitempty"`
}

func viewReport(sess *session.Session, saved string) report {
	vs := sess.View()
	summary := viewSummary{Status: sess.Status(), Image: saved, View: vs}

	var text strings.Builder
	fmt.Fprintf(&text, "%s\n", summary.Status)
	fmt.Fprintf(&text, "scale: %.3f offset: [%.1f, %.1f]\n", vs.Scale, vs.OffsetX, vs.OffsetY)
	if f, ok := sess.Selected(); ok {
		summary.Selected = &frameEntry{Index: vs.Selected, Frame: f}
		r := render.ScreenRect(vs, f)
		summary.Screen = rectInts(r)
		fmt.Fprintf(&text, "selected %s\n", frameLine(vs.Selected, f))
		fmt.Fprintf(&text, "on screen: %v\n", r)
	} else {
		text.WriteString("selected: none\n")
	}
	if saved != "" {
		fmt.Fprintf(&text, "saved %s\n", saved)
	}

	return report{text: text.String(), value: summary}
}

func rectInts(r image.Rectangle) []int {
	return []int{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y}
}

func init() {
	rootCmd.AddCommand(viewCmd)

	viewCmd.Flags().StringArrayP("event", "e", nil, "viewport event to apply (repeatable, see above)")
	viewCmd.Flags().String("select", "", "select the first frame whose name contains this text")
	viewCmd.Flags().String("match", "", "select the frame that best matches this image")
	viewCmd.Flags().StringP("save", "s", "", "image file to write (default: view.png)")
	viewCmd.Flags().Int("width", 800, "rendered view width")
	viewCmd.Flags().Int("height", 600, "rendered view height")
	viewCmd.Flags().Bool("labels", false, "print frame names at the frame corners")

	bindFlags(viewCmd.Flags().Lookup, []flagBinding{
		{"render.width", "width"},
		{"render.height", "height"},
		{"render.labels", "labels"},
	})
}
