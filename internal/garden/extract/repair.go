// internal/garden/extract/repair.go
package extract

import (
	"regexp"
	"strings"
)

var (
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)
	unquotedKeyPattern   = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][A-Za-z0-9_$\-]*)(\s*:)`)
	pythonLiteralPattern = regexp.MustCompile(`([:\[,]\s*)(True|False|None)\b`)
)

var pythonLiterals = map[string]string{
	"True":  "true",
	"False": "false",
	"None":  "null",
}

// segment is either a string literal (quote set) or the code between them.
type segment struct {
	text  string
	quote byte
}

// Repair rewrites the usual near-JSON mistakes of chat models. Comments are
// dropped, single-quoted strings become double-quoted, and raw control
// characters inside strings are escaped. Outside strings, trailing commas
// are removed, bare keys are quoted and Python literals are mapped to JSON.
// Pattern fixes only ever see the code between string literals.
func Repair(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	for _, seg := range split(s) {
		switch seg.quote {
		case 0:
			b.WriteString(repairCode(seg.text))
		case '\'':
			b.WriteString(requote(seg.text))
		default:
			b.WriteByte('"')
			b.WriteString(escapeControl(seg.text))
			b.WriteByte('"')
		}
	}
	return b.String()
}

func repairCode(code string) string {
	code = stripControl(code)
	code = pythonLiteralPattern.ReplaceAllStringFunc(code, func(m string) string {
		parts := pythonLiteralPattern.FindStringSubmatch(m)
		return parts[1] + pythonLiterals[parts[2]]
	})
	code = unquotedKeyPattern.ReplaceAllString(code, `$1"$2"$3`)
	return trailingCommaPattern.ReplaceAllString(code, "$1")
}

// split breaks s into code and string segments, dropping comments. String
// segment text excludes the delimiters and keeps escapes verbatim. An
// unterminated string runs to the end of s.
func split(s string) []segment {
	var out []segment
	var code strings.Builder
	prev := byte('{')
	flush := func() {
		if code.Len() > 0 {
			out = append(out, segment{text: code.String()})
			code.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || (c == '\'' && opensValue(prev)):
			flush()
			end := closingQuote(s, i+1, c)
			out = append(out, segment{text: s[i+1 : end], quote: c})
			i = end
			prev = '"'
			continue
		case c == '/':
			if skip, ok := commentEnd(s, i); ok {
				i = skip
				continue
			}
		}
		code.WriteByte(c)
		if !isSpace(c) {
			prev = c
		}
	}
	flush()
	return out
}

// closingQuote returns the index of the quote ending a string opened just
// before from, or len(s) when it is unterminated.
func closingQuote(s string, from int, quote byte) int {
	escaped := false
	for i := from; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == quote:
			return i
		}
	}
	return len(s)
}

// requote turns the body of a single-quoted string into a double-quoted one.
func requote(body string) string {
	var b strings.Builder
	b.Grow(len(body) + 2)
	b.WriteByte('"')
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body) && body[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case c == '\\' && i+1 < len(body):
			b.WriteByte(c)
			b.WriteByte(body[i+1])
			i++
		case c == '"':
			b.WriteString(`\"`)
		default:
			writeEscaped(&b, c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func escapeControl(body string) string {
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		writeEscaped(&b, body[i])
	}
	return b.String()
}

func writeEscaped(b *strings.Builder, c byte) {
	switch {
	case c == '\n':
		b.WriteString(`\n`)
	case c == '\r':
		b.WriteString(`\r`)
	case c == '\t':
		b.WriteString(`\t`)
	case c < 0x20 || c == 0x7f:
	default:
		b.WriteByte(c)
	}
}

func stripControl(code string) string {
	return strings.Map(func(r rune) rune {
		if (r < 0x20 && r != '\n' && r != '\r' && r != '\t') || r == 0x7f {
			return -1
		}
		return r
	}, code)
}
