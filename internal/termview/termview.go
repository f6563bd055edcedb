// Package termview prints images inline in the terminal.
package termview

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"strings"

	"github.com/BourgeoisBear/rasterm"
	"github.com/andybons/gogif"
)

// Protocol is a way of getting pixels onto a terminal.
type Protocol string

const (
	Kitty  Protocol = "kitty"
	ITerm  Protocol = "iterm"
	Sixel  Protocol = "sixel"
	Blocks Protocol = "blocks" // 24-bit color half blocks, works nearly everywhere
)

// ParseProtocol maps a name (or "auto") to a protocol. Auto runs Detect.
func ParseProtocol(name string) (Protocol, error) {
	switch p := Protocol(strings.ToLower(strings.TrimSpace(name))); p {
	case "", "auto":
		return Detect(), nil
	case Kitty, ITerm, Sixel, Blocks:
		return p, nil
	}
	return "", fmt.Errorf("unknown terminal image protocol %q", name)
}

// Detect picks the richest protocol the terminal supports. Output that is not
// a terminal always gets Blocks.
func Detect() Protocol {
	if !isTerminal(os.Stdout) {
		return Blocks
	}
	if rasterm.IsTermKitty() {
		return Kitty
	}
	if rasterm.IsTermItermWez() {
		return ITerm
	}
	if capable, err := rasterm.IsSixelCapable(); capable && err == nil {
		return Sixel
	}
	return Blocks
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// Write prints img to w using protocol p, followed by a newline.
func Write(w io.Writer, img image.Image, p Protocol) error {
	switch p {
	case Kitty:
		rasterm.Settings{}.KittyWriteImage(w, img)
	case ITerm:
		rasterm.Settings{}.ItermWriteImage(w, img)
	case Sixel:
		rasterm.Settings{}.SixelWriteImage(w, Quantize(img, 64))
	case Blocks:
		return writeBlocks(w, img)
	default:
		return fmt.Errorf("unknown terminal image protocol %q", p)
	}
	_, err := fmt.Fprintln(w)
	return err
}

// Quantize reduces img to at most n colors for sixel output.
func Quantize(img image.Image, n int) *image.Paletted {
	paletted := image.NewPaletted(img.Bounds(), nil)
	quantizer := gogif.MedianCutQuantizer{NumColor: n}
	quantizer.Quantize(paletted, img.Bounds(), img, image.Point{})
	return paletted
}

// writeBlocks draws two pixel rows per text row with the upper half block:
// foreground is the top pixel, background the bottom one.
func writeBlocks(w io.Writer, img image.Image) error {
	bw := bufio.NewWriter(w)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			bottom := color.NRGBA{}
			if y+1 < b.Max.Y {
				bottom = color.NRGBAModel.Convert(img.At(x, y+1)).(color.NRGBA)
			}
			cell(bw, top, bottom)
		}
		fmt.Fprint(bw, "\x1b[0m\n")
	}
	return bw.Flush()
}

func cell(w io.Writer, top, bottom color.NRGBA) {
	switch {
	case top.A == 0 && bottom.A == 0:
		fmt.Fprint(w, "\x1b[0m ")
	case top.A == 0:
		fmt.Fprintf(w, "\x1b[0m\x1b[38;2;%d;%d;%dm▄", bottom.R, bottom.G, bottom.B)
	case bottom.A == 0:
		fmt.Fprintf(w, "\x1b[0m\x1b[38;2;%d;%d;%dm▀", top.R, top.G, top.B)
	default:
		fmt.Fprintf(w, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
			top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
	}
}
