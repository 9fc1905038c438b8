package jsonv

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a syntax error with the byte offset it occurred at.
type ParseError struct {
	Msg    string
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("jsonv: %s at offset %d", e.Msg, e.Offset)
}

// Parse decodes one complete JSON document. Trailing non-whitespace content
// after the top-level value is an error. Duplicate object keys are accepted;
// the last occurrence wins.
func Parse(src string) (Value, error) {
	p := &parser{src: src}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing content after JSON value")
	}
	return v, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Offset: p.pos}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) consume() (byte, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0, p.errorf("unexpected end of input")
	}
	c := p.src[p.pos]
	p.pos++
	return c, nil
}

func (p *parser) expect(want byte) error {
	got, err := p.consume()
	if err != nil {
		return err
	}
	if got != want {
		return p.errorf("expected %q, got %q", want, got)
	}
	return nil
}

func (p *parser) literal(word string, v Value) (Value, error) {
	if !strings.HasPrefix(p.src[p.pos:], word) {
		return nil, p.errorf("invalid literal, expected %q", word)
	}
	p.pos += len(word)
	return v, nil
}

func (p *parser) value() (Value, error) {
	switch c := p.peek(); {
	case c == '"':
		s, err := p.stringVal()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == 't':
		return p.literal("true", Bool(true))
	case c == 'f':
		return p.literal("false", Bool(false))
	case c == 'n':
		return p.literal("null", Null{})
	case c == '-' || (c >= '0' && c <= '9'):
		return p.number()
	case c == 0:
		return nil, p.errorf("unexpected end of input")
	default:
		return nil, p.errorf("unexpected character %q", c)
	}
}

func (p *parser) object() (Value, error) {
	p.pos++ // '{'
	obj := Object{}
	if p.peek() == '}' {
		p.pos++
		return obj, nil
	}
	for {
		if p.peek() != '"' {
			return nil, p.errorf("expected object key")
		}
		key, err := p.stringVal()
		if err != nil {
			return nil, err
		}
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		member, err := p.value()
		if err != nil {
			return nil, err
		}
		obj[key] = member
		sep, err := p.consume()
		if err != nil {
			return nil, err
		}
		if sep == '}' {
			return obj, nil
		}
		if sep != ',' {
			return nil, p.errorf("expected ',' or '}', got %q", sep)
		}
	}
}

func (p *parser) array() (Value, error) {
	p.pos++ // '['
	arr := Array{}
	if p.peek() == ']' {
		p.pos++
		return arr, nil
	}
	for {
		el, err := p.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, el)
		sep, err := p.consume()
		if err != nil {
			return nil, err
		}
		if sep == ']' {
			return arr, nil
		}
		if sep != ',' {
			return nil, p.errorf("expected ',' or ']', got %q", sep)
		}
	}
}

// stringVal decodes a quoted string starting at the opening '"'. Escape
// sequences are decoded in place; \uXXXX code points are re-encoded as UTF-8.
func (p *parser) stringVal() (string, error) {
	if err := p.expect('"'); err != nil {
		return "", err
	}
	var out strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		p.pos++
		if c == '"' {
			return out.String(), nil
		}
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		if p.pos >= len(p.src) {
			break
		}
		e := p.src[p.pos]
		p.pos++
		switch e {
		case '"', '\\', '/':
			out.WriteByte(e)
		case 'b':
			out.WriteByte('\b')
		case 'f':
			out.WriteByte('\f')
		case 'n':
			out.WriteByte('\n')
		case 'r':
			out.WriteByte('\r')
		case 't':
			out.WriteByte('\t')
		case 'u':
			if p.pos+4 > len(p.src) {
				return "", p.errorf("truncated \\u escape")
			}
			cp, err := strconv.ParseUint(p.src[p.pos:p.pos+4], 16, 32)
			if err != nil {
				return "", p.errorf("bad hex in \\u escape")
			}
			p.pos += 4
			out.WriteRune(rune(cp))
		default:
			out.WriteByte(e)
		}
	}
	return "", p.errorf("unterminated string")
}

func (p *parser) number() (Value, error) {
	start := p.pos
	isFloat := false
	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		p.pos++
	}
	digits := 0
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
		digits++
	}
	if digits == 0 {
		return nil, p.errorf("malformed number")
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		isFloat = true
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		isFloat = true
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	text := p.src[start:p.pos]
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, p.errorf("malformed number %q", text)
		}
		return Float(f), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, p.errorf("malformed number %q", text)
	}
	return Int(n), nil
}
