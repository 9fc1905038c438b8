package jsonv

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Encode serializes v in compact form. Object keys come out in
// lexicographic order, so two structurally equal values encode identically.
func Encode(v Value) string {
	var b strings.Builder
	encode(&b, v, -1, 0)
	return b.String()
}

// EncodeIndent serializes v pretty-printed with indent spaces per nesting
// level.
func EncodeIndent(v Value, indent int) string {
	var b strings.Builder
	encode(&b, v, indent, 0)
	return b.String()
}

func encode(b *strings.Builder, v Value, indent, depth int) {
	switch val := v.(type) {
	case nil, Null:
		b.WriteString("null")
	case Bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case Int:
		b.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		f := float64(val)
		if math.IsInf(f, 0) || math.IsNaN(f) {
			// Non-finite floats have no JSON representation.
			b.WriteString("null")
			return
		}
		// 17 significant digits guarantee float64 round-trip fidelity.
		b.WriteString(strconv.FormatFloat(f, 'g', 17, 64))
	case String:
		writeQuoted(b, string(val))
	case Array:
		if len(val) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteByte('[')
		for i, el := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			newline(b, indent, depth+1)
			encode(b, el, indent, depth+1)
		}
		newline(b, indent, depth)
		b.WriteByte(']')
	case Object:
		if len(val) == 0 {
			b.WriteString("{}")
			return
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			newline(b, indent, depth+1)
			writeQuoted(b, k)
			b.WriteByte(':')
			if indent >= 0 {
				b.WriteByte(' ')
			}
			encode(b, val[k], indent, depth+1)
		}
		newline(b, indent, depth)
		b.WriteByte('}')
	}
}

func newline(b *strings.Builder, indent, depth int) {
	if indent < 0 {
		return
	}
	b.WriteByte('\n')
	for i := 0; i < indent*depth; i++ {
		b.WriteByte(' ')
	}
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 {
				fmt.Fprintf(b, `\u%04x`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
}
