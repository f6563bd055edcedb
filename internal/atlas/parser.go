package atlas

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// Format identifies the metadata dialect a document was recognized as.
type Format string

const (
	FormatJSONArray       Format = "json-array"
	FormatJSONHash        Format = "json-hash"
	FormatJSONFramesArray Format = "json-frames-array"
	FormatXML             Format = "xml"
)

// Meta is the optional atlas-level information some packers emit next to the
// frames (TexturePacker's "meta" block, Sparrow's imagePath attribute).
type Meta struct {
	App         string  `json:"app,omitempty" yaml:"app,omitempty"`
	Version     string  `json:"version,omitempty" yaml:"version,omitempty"`
	Image       string  `json:"image,omitempty" yaml:"image,omitempty"`
	PixelFormat string  `json:"format,omitempty" yaml:"format,omitempty"`
	Width       int     `json:"w,omitempty" yaml:"w,omitempty"`
	Height      int     `json:"h,omitempty" yaml:"h,omitempty"`
	Scale       float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// Document is a parsed metadata file.
type Document struct {
	Format Format     `json:"format" yaml:"format"`
	Meta   Meta       `json:"meta" yaml:"meta"`
	Frames Collection `json:"frames" yaml:"frames"`
}

// Parse normalizes atlas metadata text into a frame collection.
//
// JSON is attempted first and XML only when the text is not JSON at all; the
// declared file type is never consulted. Unrecognized text yields a
// *FormatError, a recognized document without frames an *EmptyAtlasError.
func Parse(text string) (Collection, error) {
	doc, err := ParseDocument(text)
	if err != nil {
		return nil, err
	}
	return doc.Frames, nil
}

// ParseDocument is Parse that also reports the detected dialect and atlas meta.
func ParseDocument(text string) (*Document, error) {
	text = strings.TrimPrefix(text, "\ufeff")

	var (
		doc *Document
		err error
	)
	if json.Valid([]byte(text)) {
		doc, err = parseJSON([]byte(text))
	} else {
		doc, err = parseXML(text)
	}
	if err != nil {
		return nil, err
	}
	if len(doc.Frames) == 0 {
		return nil, &EmptyAtlasError{Format: doc.Format}
	}

	slog.Debug("Parsed atlas metadata", "format", doc.Format, "frames", len(doc.Frames))
	return doc, nil
}

// newFrame builds a frame with non-negative size. The origin is kept as given,
// so a frame may start left of or above the atlas.
func newFrame(name string, x, y, w, h int, rotated bool) Frame {
	return Frame{
		Name:    name,
		X:       x,
		Y:       y,
		W:       max(w, 0),
		H:       max(h, 0),
		Rotated: rotated,
	}
}
