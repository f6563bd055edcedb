// Package session owns the state of one inspection: the atlas image, its frames
// and the viewport. Every load builds a complete new snapshot before it becomes
// visible, so a failed load leaves the previous one untouched.
package session

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/atlasmatch/internal/atlas"
	"github.com/MeKo-Tech/atlasmatch/internal/imageio"
	"github.com/MeKo-Tech/atlasmatch/internal/match"
	"github.com/MeKo-Tech/atlasmatch/internal/viewport"
)

// ErrPrecondition matches every *PreconditionError.
var ErrPrecondition = errors.New("precondition not met")

// PreconditionError is returned when an operation needs inputs that are not
// loaded yet. Its message is meant to be shown to the user as guidance.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// Snapshot is one consistent view of the loaded inputs.
type Snapshot struct {
	Atlas     image.Image
	AtlasPath string
	Document  *atlas.Document
	Frames    atlas.Collection
	View      viewport.State
}

// Session holds the current snapshot. It is not safe for concurrent use.
type Session struct {
	snap   Snapshot
	engine *match.Engine
}

// New creates an empty session. A nil engine uses the default matcher.
func New(engine *match.Engine) *Session {
	if engine == nil {
		engine = match.NewEngine(match.DefaultConfig())
	}
	return &Session{
		snap:   Snapshot{View: viewport.New()},
		engine: engine,
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot { return s.snap }

// Frames returns the loaded frames.
func (s *Session) Frames() atlas.Collection { return s.snap.Frames }

// View returns the viewport state.
func (s *Session) View() viewport.State { return s.snap.View }

// Ready reports whether both an atlas image and frames are loaded.
func (s *Session) Ready() bool {
	return s.snap.Atlas != nil && len(s.snap.Frames) > 0
}

// SetAtlas replaces the atlas image and resets the viewport.
func (s *Session) SetAtlas(img image.Image, path string) {
	next := s.snap
	next.Atlas = img
	next.AtlasPath = path
	next.View = viewport.New()
	s.snap = next
}

// LoadAtlasFile decodes an atlas image from disk. Decode failures keep the
// current image.
func (s *Session) LoadAtlasFile(path string) error {
	img, _, err := imageio.LoadImage(path)
	if err != nil {
		return err
	}
	s.SetAtlas(img, path)
	return nil
}

// LoadMetadata parses atlas metadata and replaces the frames. Parse failures keep
// the current frames.
func (s *Session) LoadMetadata(text string) error {
	doc, err := atlas.ParseDocument(text)
	if err != nil {
		return err
	}
	s.replace(s.snap.Atlas, s.snap.AtlasPath, doc)
	return nil
}

// LoadMetadataFile reads and parses a metadata file.
func (s *Session) LoadMetadataFile(path string) error {
	text, err := imageio.ReadText(path)
	if err != nil {
		return err
	}
	return s.LoadMetadata(text)
}

// Load replaces image and frames together.
func (s *Session) Load(img image.Image, text string) error {
	doc, err := atlas.ParseDocument(text)
	if err != nil {
		return err
	}
	s.replace(img, "", doc)
	return nil
}

// LoadFiles decodes the atlas and parses its metadata, then replaces both. If
// either input fails nothing changes.
func (s *Session) LoadFiles(atlasPath, metaPath string) error {
	img, _, err := imageio.LoadImage(atlasPath)
	if err != nil {
		return err
	}
	text, err := imageio.ReadText(metaPath)
	if err != nil {
		return err
	}
	doc, err := atlas.ParseDocument(text)
	if err != nil {
		return fmt.Errorf("%s: %w", metaPath, err)
	}
	s.replace(img, atlasPath, doc)
	return nil
}

func (s *Session) replace(img image.Image, path string, doc *atlas.Document) {
	s.snap = Snapshot{
		Atlas:     img,
		AtlasPath: path,
		Document:  doc,
		Frames:    doc.Frames,
		View:      viewport.New(),
	}
	slog.Info("Atlas loaded", "format", doc.Format, "frames", len(doc.Frames), "image", path)
}

// Apply runs a viewport event. A selection that does not name a loaded frame is
// ignored.
func (s *Session) Apply(e viewport.Event) {
	next := viewport.Apply(s.snap.View, s.snap.Frames, e)
	if next.Selected < -1 || next.Selected >= len(s.snap.Frames) {
		next = next.Select(s.snap.View.Selected)
	}
	s.snap.View = next
}

// Replay applies events in order.
func (s *Session) Replay(events []viewport.Event) {
	for _, e := range events {
		s.Apply(e)
	}
}

// Select sets the selection to a loaded frame index or -1.
func (s *Session) Select(i int) error {
	if i < -1 || i >= len(s.snap.Frames) {
		return fmt.Errorf("frame index %d out of range [0, %d)", i, len(s.snap.Frames))
	}
	s.snap.View = s.snap.View.Select(i)
	return nil
}

// Selected returns the selected frame, if any.
func (s *Session) Selected() (atlas.Frame, bool) {
	i := s.snap.View.Selected
	if i < 0 || i >= len(s.snap.Frames) {
		return atlas.Frame{}, false
	}
	return s.snap.Frames[i], true
}

// FindByName selects the first frame whose name contains q, ignoring case. It
// returns -1 and keeps the selection when nothing matches.
func (s *Session) FindByName(q string) int {
	i := s.snap.Frames.FindByName(q)
	if i >= 0 {
		s.snap.View = s.snap.View.Select(i)
	}
	return i
}

// FindByImage selects the frame that best matches query.
func (s *Session) FindByImage(query image.Image) (match.Result, error) {
	if err := s.checkMatchable(query); err != nil {
		return match.Result{}, err
	}
	res := s.engine.FindBestMatch(query, s.snap.Atlas, s.snap.Frames)
	if res.Found() {
		s.snap.View = s.snap.View.Select(res.Index)
	}
	return res, nil
}

// Rank returns the n best candidates for query without touching the selection.
func (s *Session) Rank(query image.Image, n int) ([]match.Result, error) {
	if err := s.checkMatchable(query); err != nil {
		return nil, err
	}
	return s.engine.Rank(query, s.snap.Atlas, s.snap.Frames, n), nil
}

func (s *Session) checkMatchable(query image.Image) error {
	switch {
	case s.snap.Atlas == nil && len(s.snap.Frames) == 0:
		return &PreconditionError{Message: "load an atlas image and its metadata first"}
	case s.snap.Atlas == nil:
		return &PreconditionError{Message: "load an atlas image first"}
	case len(s.snap.Frames) == 0:
		return &PreconditionError{Message: "load atlas metadata first"}
	case query == nil:
		return &PreconditionError{Message: "choose a query image to match"}
	}
	return nil
}

// Status summarizes what is loaded.
func (s *Session) Status() string {
	switch {
	case s.snap.Atlas == nil && len(s.snap.Frames) == 0:
		return "nothing loaded"
	case len(s.snap.Frames) == 0:
		return "atlas image loaded, waiting for metadata"
	case s.snap.Atlas == nil:
		return fmt.Sprintf("loaded %d frames, waiting for atlas image", len(s.snap.Frames))
	}
	return fmt.Sprintf("loaded %d frames", len(s.snap.Frames))
}

// MatchStatus describes a match result against frames.
func MatchStatus(res match.Result, frames atlas.Collection) string {
	if !res.Found() || res.Index >= len(frames) {
		return "no match"
	}
	return fmt.Sprintf("best match: %s (MSE %.1f)", frames[res.Index].Name, res.Score)
}
