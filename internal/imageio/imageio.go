// Package imageio loads atlas and query images and writes previews.
package imageio

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// SupportedImageExtensions lists the extensions LoadImage can decode.
var SupportedImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp", ".tga"}

// SupportedOutputExtensions lists the extensions SaveImage can encode.
var SupportedOutputExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// DecodeError reports an image that could not be read or decoded. It is kept
// apart from metadata errors so callers can tell which input was bad.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Metadata captures lightweight file and pixel information.
type Metadata struct {
	Path      string
	Format    string
	SizeBytes int64
	Width     int
	Height    int
}

// IsSupportedImage reports whether the path has a decodable extension.
func IsSupportedImage(path string) bool {
	return slices.Contains(SupportedImageExtensions, strings.ToLower(filepath.Ext(path)))
}

type decodeFunc func(io.Reader) (image.Image, error)

// decoders are chosen by extension. TGA has no magic number, so content sniffing
// through image.Decode is not an option.
var decoders = map[string]struct {
	format string
	decode decodeFunc
}{
	".png":  {"png", png.Decode},
	".jpg":  {"jpeg", jpeg.Decode},
	".jpeg": {"jpeg", jpeg.Decode},
	".bmp":  {"bmp", bmp.Decode},
	".webp": {"webp", webp.Decode},
	".tga":  {"tga", tga.Decode},
}

// LoadImage opens and decodes an image file. Every failure is a *DecodeError.
func LoadImage(path string) (image.Image, Metadata, error) {
	if path == "" {
		return nil, Metadata{}, &DecodeError{Path: path, Err: errors.New("empty path")}
	}
	ext := strings.ToLower(filepath.Ext(path))
	dec, ok := decoders[ext]
	if !ok {
		return nil, Metadata{}, &DecodeError{Path: path, Err: fmt.Errorf("unsupported format: %s", ext)}
	}

	f, err := os.Open(path) //nolint:gosec // G304: reading a user-provided image path is expected
	if err != nil {
		return nil, Metadata{}, &DecodeError{Path: path, Err: err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("Error closing image file", "path", path, "error", err)
		}
	}()

	fi, err := f.Stat()
	if err != nil {
		return nil, Metadata{}, &DecodeError{Path: path, Err: err}
	}

	img, err := dec.decode(bufio.NewReader(f))
	if err != nil {
		return nil, Metadata{}, &DecodeError{Path: path, Err: err}
	}

	b := img.Bounds()
	meta := Metadata{
		Path:      path,
		Format:    dec.format,
		SizeBytes: fi.Size(),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}
	slog.Debug("Decoded image", "path", path, "format", meta.Format, "width", meta.Width, "height", meta.Height)
	return img, meta, nil
}

// ReadText reads a metadata file as text.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading a user-provided metadata path is expected
	if err != nil {
		return "", fmt.Errorf("failed to read metadata %s: %w", path, err)
	}
	return string(data), nil
}

// Encode writes img to w in the given format (png, jpeg, webp).
func Encode(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(format) {
	case "png":
		return png.Encode(w, img)
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case "webp":
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// SaveImage encodes img into path, picking the format from the extension.
// Parent directories are created as needed.
func SaveImage(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(SupportedOutputExtensions, ext) {
		return fmt.Errorf("unsupported output format: %s", ext)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // G304: writing to a user-provided output path is expected
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, img, strings.TrimPrefix(ext, ".")); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	slog.Debug("Wrote image", "path", path)
	return nil
}
