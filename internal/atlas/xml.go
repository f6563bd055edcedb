package atlas

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

func errNotXML(err error) error {
	return &FormatError{Reason: "could not parse as JSON or XML", Err: err}
}

// parseXML reads the Sparrow/Starling dialect:
//
//	<TextureAtlas imagePath="sheet.png">
//	  <SubTexture name="coin" x="5" y="5" width="8" height="8" rotated="true"/>
//	</TextureAtlas>
//
// SubTexture elements are collected wherever they appear in the document.
func parseXML(text string) (*Document, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	// text is already decoded, whatever the declaration names.
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }
	doc := &Document{Format: FormatXML}

	depth := 0
	rootSeen := false
	found := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errNotXML(err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if rootSeen {
					return nil, errNotXML(errors.New("content after the root element"))
				}
				rootSeen = true
				if t.Name.Local == "TextureAtlas" {
					doc.Meta.Image, _ = attr(t, "imagePath")
				}
			}
			depth++
			if t.Name.Local == "SubTexture" {
				found++
				doc.Frames = append(doc.Frames, subTexture(t))
			}
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, errNotXML(errors.New("text outside the root element"))
			}
		}
	}

	if !rootSeen {
		return nil, errNotXML(errors.New("no root element"))
	}
	if found == 0 {
		return nil, &FormatError{Reason: "unknown XML atlas format"}
	}
	return doc, nil
}

func subTexture(el xml.StartElement) Frame {
	name, ok := attr(el, "name")
	if !ok {
		name = NoName
	}
	rotated, _ := attr(el, "rotated")
	rotation, _ := attr(el, "rotation")
	return newFrame(
		name,
		numAttr(el, "x"),
		numAttr(el, "y"),
		numAttr(el, "width"),
		numAttr(el, "height"),
		rotated == "true" || rotation == "90",
	)
}

func attr(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func numAttr(el xml.StartElement, name string) int {
	v, ok := attr(el, name)
	if !ok {
		return 0
	}
	return toInt32(stringToNumber(v))
}
