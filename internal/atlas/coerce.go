package atlas

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// toInt32 truncates toward zero and wraps into the signed 32-bit range, the way
// `value | 0` does. NaN and infinities become 0.
func toInt32(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(f), 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return int(int32(uint32(m)))
}

// stringToNumber converts numeric text the way a numeric cast of a string does:
// surrounding whitespace is ignored, the empty string is 0, 0x/0o/0b prefixes are
// honored and anything else non-numeric is NaN.
func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			u, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(u)
		}
	}
	if !decimalLiteral.MatchString(s) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out of range literals still carry a sign.
		if strings.HasPrefix(s, "-") {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	return f
}

func firstByte(raw []byte) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func isNull(raw json.RawMessage) bool {
	return firstByte(raw) == 'n'
}

// jsonNumber coerces any JSON value to a number: strings are converted, booleans
// are 0/1, null is 0 and containers are NaN.
func jsonNumber(raw json.RawMessage) float64 {
	switch firstByte(raw) {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return math.NaN()
		}
		return stringToNumber(s)
	case 't':
		return 1
	case 'f', 'n', 0:
		return 0
	case '[', '{':
		return math.NaN()
	}
	f, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// jsonTruthy reports the boolean value of a JSON value under loose truthiness:
// false, null, 0 and "" are false, everything else is true.
func jsonTruthy(raw json.RawMessage) bool {
	switch firstByte(raw) {
	case 'f', 'n', 0:
		return false
	case 't', '[', '{':
		return true
	case '"':
		var s string
		_ = json.Unmarshal(raw, &s)
		return s != ""
	}
	f := jsonNumber(raw)
	return f != 0 && !math.IsNaN(f)
}

// jsonText renders a JSON value as a name: strings verbatim, anything else as
// its literal JSON text.
func jsonText(raw json.RawMessage) string {
	if firstByte(raw) == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(bytes.TrimSpace(raw))
}
