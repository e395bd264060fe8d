package transform

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrNoFields is returned by Encode when none of the fields carries an
// encodable value. The caller decides whether to skip the measurement.
var ErrNoFields = errors.New("measurement has no encodable fields")

// Tag is an indexed, string-valued dimension on a time-series point.
type Tag struct {
	Key   string
	Value string
}

// Field is a value stored on a time-series point. Value must be a float64,
// a string, or nil; nil values are omitted from the encoded line.
type Field struct {
	Key   string
	Value any
}

// keyEscaper escapes the characters the line protocol reserves in
// measurement names, tag keys/values and field keys.
var keyEscaper = strings.NewReplacer(`,`, `\,`, `=`, `\=`, ` `, `\ `)

// stringValueEscaper escapes a double-quoted string field value.
var stringValueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Encode renders a single line-protocol line:
//
//	<measurement>[,<tag_key>=<tag_value>...] <field_key>=<field_value>[,...]
//
// No timestamp is embedded; the time-series store assigns write-time
// timestamps. Tags and fields keep the order they were given in.
func Encode(measurement string, tags []Tag, fields []Field) (string, error) {
	var b strings.Builder

	b.WriteString(keyEscaper.Replace(measurement))
	for _, t := range tags {
		b.WriteByte(',')
		b.WriteString(keyEscaper.Replace(t.Key))
		b.WriteByte('=')
		b.WriteString(keyEscaper.Replace(t.Value))
	}

	written := 0
	for _, f := range fields {
		v, ok := formatFieldValue(f.Value)
		if !ok {
			continue
		}
		if written == 0 {
			b.WriteByte(' ')
		} else {
			b.WriteByte(',')
		}
		b.WriteString(keyEscaper.Replace(f.Key))
		b.WriteByte('=')
		b.WriteString(v)
		written++
	}

	if written == 0 {
		return "", ErrNoFields
	}

	return b.String(), nil
}

// formatFieldValue renders a field value in canonical form. Floats use the
// shortest decimal representation that round-trips, without exponent
// notation. NaN and infinities cannot be stored and are dropped.
func formatFieldValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case string:
		return `"` + stringValueEscaper.Replace(x) + `"`, true
	default:
		return "", false
	}
}
