package visit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric form field. Clients send it as a JSON number, a
// numeric string, an empty string or null. The text is kept as received so
// half-typed values survive a save and are reported by validation instead of
// being rejected by the decoder.
type Number string

// NumberOf renders f in its shortest decimal form.
func NumberOf(f float64) Number {
	return Number(strconv.FormatFloat(f, 'f', -1, 64))
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(s))
	case len(b) > 0 && (b[0] == '{' || b[0] == '['):
		return fmt.Errorf("expected a number, got %s", b)
	default:
		*n = Number(b)
	}
	return nil
}

// MarshalJSON writes numeric text as a JSON number and anything else as a
// string.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.isJSONNumber() {
		return []byte(n), nil
	}
	return json.Marshal(string(n))
}

func (n Number) IsEmpty() bool {
	return strings.TrimSpace(string(n)) == ""
}

// Float parses the value. ok is false for an empty field; err is set for text
// that is not a finite number.
func (n Number) Float() (v float64, ok bool, err error) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, fmt.Errorf("%q is not a number", s)
	}
	return v, true, nil
}

func (n Number) isJSONNumber() bool {
	s := string(n)
	if s == "" || !json.Valid([]byte(s)) {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
