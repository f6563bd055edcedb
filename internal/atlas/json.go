package atlas

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// jsonShape is one recognized JSON layout. Shape detection happens once in
// detectShape; each variant then knows how to turn itself into frames.
type jsonShape interface {
	format() Format
	frames() (Collection, error)
	meta() Meta
}

// member is one key/value pair of a JSON object, kept in document order.
type member struct {
	key   string
	value json.RawMessage
}

// arrayShape: [{name?, x, y, w, h, rotated?}, ...]
type arrayShape struct {
	elems []json.RawMessage
}

// framesArrayShape: {"frames": [{filename|name|n, frame:{x,y,w,h}, rotated?}, ...]}
type framesArrayShape struct {
	elems []json.RawMessage
	m     Meta
}

// framesHashShape: {"frames": {"<name>": {frame:{x,y,w,h}, rotated?}, ...}}
type framesHashShape struct {
	entries []member
	m       Meta
}

func errUnknownJSON() error {
	return &FormatError{Reason: "unknown JSON atlas format"}
}

func parseJSON(data []byte) (*Document, error) {
	shape, err := detectShape(data)
	if err != nil {
		return nil, err
	}
	frames, err := shape.frames()
	if err != nil {
		return nil, err
	}
	return &Document{Format: shape.format(), Meta: shape.meta(), Frames: frames}, nil
}

func detectShape(data []byte) (jsonShape, error) {
	switch firstByte(data) {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return nil, &FormatError{Reason: "unknown JSON atlas format", Err: err}
		}
		return arrayShape{elems: elems}, nil
	case '{':
		members, err := objectMembers(data)
		if err != nil {
			return nil, &FormatError{Reason: "unknown JSON atlas format", Err: err}
		}
		frames, ok := lookup(members, "frames")
		if !ok || !jsonTruthy(frames) {
			return nil, errUnknownJSON()
		}
		m := decodeMeta(members)
		switch firstByte(frames) {
		case '[':
			var elems []json.RawMessage
			if err := json.Unmarshal(frames, &elems); err != nil {
				return nil, &FormatError{Reason: "unknown JSON atlas format", Err: err}
			}
			return framesArrayShape{elems: elems, m: m}, nil
		case '{':
			entries, err := objectMembers(frames)
			if err != nil {
				return nil, &FormatError{Reason: "unknown JSON atlas format", Err: err}
			}
			return framesHashShape{entries: entries, m: m}, nil
		}
	}
	return nil, errUnknownJSON()
}

func (arrayShape) format() Format { return FormatJSONArray }
func (arrayShape) meta() Meta     { return Meta{} }

func (s arrayShape) frames() (Collection, error) {
	out := make(Collection, 0, len(s.elems))
	for i, raw := range s.elems {
		fields, err := entryFields(i, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, newFrame(
			nameOf(fields, "name"),
			intField(fields, "x"),
			intField(fields, "y"),
			intField(fields, "w"),
			intField(fields, "h"),
			boolField(fields, "rotated"),
		))
	}
	return out, nil
}

func (framesArrayShape) format() Format { return FormatJSONFramesArray }
func (s framesArrayShape) meta() Meta   { return s.m }

func (s framesArrayShape) frames() (Collection, error) {
	out := make(Collection, 0, len(s.elems))
	for i, raw := range s.elems {
		fields, err := entryFields(i, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rectFrame(nameOf(fields, "filename", "name", "n"), fields))
	}
	return out, nil
}

func (framesHashShape) format() Format { return FormatJSONHash }
func (s framesHashShape) meta() Meta   { return s.m }

func (s framesHashShape) frames() (Collection, error) {
	out := make(Collection, 0, len(s.entries))
	for i, e := range s.entries {
		fields, err := entryFields(i, e.value)
		if err != nil {
			return nil, err
		}
		out = append(out, rectFrame(e.key, fields))
	}
	return out, nil
}

// rectFrame reads the rectangle from a nested "frame" object when present and
// from the entry itself otherwise.
func rectFrame(name string, fields map[string]json.RawMessage) Frame {
	rect := fields
	if raw, ok := fields["frame"]; ok && !isNull(raw) {
		rect = nil
		if firstByte(raw) == '{' {
			_ = json.Unmarshal(raw, &rect)
		}
	}
	return newFrame(
		name,
		intField(rect, "x"),
		intField(rect, "y"),
		intField(rect, "w"),
		intField(rect, "h"),
		boolField(fields, "rotated"),
	)
}

func entryFields(idx int, raw json.RawMessage) (map[string]json.RawMessage, error) {
	if firstByte(raw) != '{' {
		return nil, &FormatError{Reason: fmt.Sprintf("frame entry %d is not an object", idx)}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("frame entry %d", idx), Err: err}
	}
	return fields, nil
}

// nameOf returns the first present, non-null key among keys, or NoName.
func nameOf(fields map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if raw, ok := fields[k]; ok && !isNull(raw) {
			return jsonText(raw)
		}
	}
	return NoName
}

func intField(fields map[string]json.RawMessage, key string) int {
	raw, ok := fields[key]
	if !ok {
		return 0
	}
	return toInt32(jsonNumber(raw))
}

func boolField(fields map[string]json.RawMessage, key string) bool {
	raw, ok := fields[key]
	return ok && jsonTruthy(raw)
}

func lookup(members []member, key string) (json.RawMessage, bool) {
	for _, m := range members {
		if m.key == key {
			return m.value, true
		}
	}
	return nil, false
}

// objectMembers decodes a JSON object keeping key order. A repeated key keeps
// the position of its first occurrence and the value of its last.
func objectMembers(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("not a JSON object")
	}

	var out []member
	seen := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		if i, dup := seen[key]; dup {
			out[i].value = value
			continue
		}
		seen[key] = len(out)
		out = append(out, member{key: key, value: value})
	}
	return out, nil
}

func decodeMeta(members []member) Meta {
	raw, ok := lookup(members, "meta")
	if !ok || firstByte(raw) != '{' {
		return Meta{}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Meta{}
	}

	m := Meta{
		App:         textField(fields, "app"),
		Version:     textField(fields, "version"),
		Image:       textField(fields, "image"),
		PixelFormat: textField(fields, "format"),
	}
	if size, ok := fields["size"]; ok && firstByte(size) == '{' {
		var dims map[string]json.RawMessage
		if err := json.Unmarshal(size, &dims); err == nil {
			m.Width = intField(dims, "w")
			m.Height = intField(dims, "h")
		}
	}
	if scale, ok := fields["scale"]; ok {
		if f := jsonNumber(scale); !math.IsNaN(f) && !math.IsInf(f, 0) {
			m.Scale = f
		}
	}
	return m
}

func textField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return ""
	}
	return jsonText(raw)
}
