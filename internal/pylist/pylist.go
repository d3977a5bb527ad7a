// Package pylist parses list-of-string literals as they appear in Lightcast
// exports, e.g. "['Python', 'Data Analysis']".
package pylist

import (
	"fmt"
	"strings"
)

// SyntaxError describes the position at which a literal could not be parsed.
type SyntaxError struct {
	Literal string
	Offset  int
	Msg     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid list literal at offset %d: %s", e.Offset, e.Msg)
}

// Parse returns the strings of a list literal. Both quote styles and the usual
// backslash escapes are accepted. A blank input is an empty list.
func Parse(literal string) ([]string, error) {
	p := &parser{src: literal}

	p.skipSpace()
	if p.eof() {
		return []string{}, nil
	}

	if !p.consume('[') {
		return nil, p.errorf("expected '['")
	}

	items := make([]string, 0)
	for {
		p.skipSpace()
		if p.consume(']') {
			break
		}

		item, err := p.str()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(']') {
			break
		}
		return nil, p.errorf("expected ',' or ']'")
	}

	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected trailing characters")
	}

	return items, nil
}

// ParseTrimmed is Parse with surrounding whitespace removed from every item.
func ParseTrimmed(literal string) ([]string, error) {
	items, err := Parse(literal)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) consume(c byte) bool {
	if !p.eof() && p.src[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Literal: p.src, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) str() (string, error) {
	if p.eof() {
		return "", p.errorf("unexpected end of input")
	}

	quote := p.src[p.pos]
	if quote != '\'' && quote != '"' {
		return "", p.errorf("expected quoted string")
	}
	p.pos++

	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}

		c := p.src[p.pos]
		p.pos++

		switch c {
		case quote:
			return b.String(), nil
		case '\\':
			if p.eof() {
				return "", p.errorf("unterminated escape")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(esc)
			default:
				// unknown escapes are kept as written
				b.WriteByte('\\')
				b.WriteByte(esc)
			}
		default:
			b.WriteByte(c)
		}
	}
}
