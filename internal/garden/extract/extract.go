// internal/garden/extract/extract.go

// Package extract recovers a JSON value from free-form generative text.
//
// The text is first stripped of conversational chatter, then scanned for
// balanced top-level {...} or [...] regions with a string-aware bracket
// matcher. Each region is parsed as-is and, failing that, once more after
// a lexical repair pass. Nothing in this package panics on bad input; all
// failures come back as *Failure.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type Reason string

const (
	ReasonEmpty       Reason = "empty"
	ReasonNoStructure Reason = "no_structure"
	ReasonUnparseable Reason = "unparseable"
)

// Failure is returned when no structured value could be recovered.
type Failure struct {
	Reason Reason
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return fmt.Sprintf("extract: %s", f.Reason)
	}
	return fmt.Sprintf("extract: %s: %s", f.Reason, f.Detail)
}

// IsFailure reports whether err is an extraction failure.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

// Result carries the recovered value and how it was obtained.
type Result struct {
	Value    any
	Repaired bool
	Region   string
}

const (
	maxRegions  = 8
	maxOpenings = 64
)

var (
	// Fences count only on their own line or at the edges of the text.
	fenceLinePattern = regexp.MustCompile("(?im)^[ \t]*```[a-z0-9_+-]*[ \t]*$")
	fenceHeadPattern = regexp.MustCompile("(?i)^\\s*```[a-z0-9_+-]*")
	fenceTailPattern = regexp.MustCompile("```\\s*$")
	prefixPattern    = regexp.MustCompile(`(?i)^\s*(?:(?:sure|certainly|of course|okay|ok|absolutely)\b[!.,]*\s*)?(?:here(?:'s| is| are)[^:\n{\[]*:\s*)?`)
	suffixPattern    = regexp.MustCompile(`(?i)\s*(?:i hope (?:this|that) helps|hope this helps|let me know if|feel free to)[^\n]*\s*$`)
)

// Extract returns the first structured value found in raw.
func Extract(raw string) (any, error) {
	res, err := ExtractDetailed(raw)
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

// ExtractDetailed is Extract with provenance for metrics and logging.
func ExtractDetailed(raw string) (Result, error) {
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		if v, err := parse(trimmed); err == nil {
			return Result{Value: v, Region: trimmed}, nil
		}
	}

	text := StripChatter(raw)
	if strings.TrimSpace(text) == "" {
		return Result{}, &Failure{Reason: ReasonEmpty}
	}

	regions := Regions(text)
	if len(regions) == 0 {
		return Result{}, &Failure{Reason: ReasonNoStructure, Detail: "no balanced object or array"}
	}

	var lastErr error
	for _, region := range regions {
		if v, err := parse(region); err == nil {
			return Result{Value: v, Region: region}, nil
		}
		v, err := parse(Repair(region))
		if err == nil {
			return Result{Value: v, Repaired: true, Region: region}, nil
		}
		lastErr = err
	}
	return Result{}, &Failure{Reason: ReasonUnparseable, Detail: lastErr.Error()}
}

// ExtractInto decodes the recovered value into dst.
func ExtractInto(raw string, dst any) error {
	v, err := Extract(raw)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return &Failure{Reason: ReasonUnparseable, Detail: err.Error()}
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return &Failure{Reason: ReasonUnparseable, Detail: err.Error()}
	}
	return nil
}

// StripChatter removes code fences and the conversational lead-in and
// sign-off that chat models wrap around structured answers.
func StripChatter(raw string) string {
	text := fenceLinePattern.ReplaceAllString(raw, "")
	text = fenceHeadPattern.ReplaceAllString(text, "")
	text = fenceTailPattern.ReplaceAllString(text, "")
	text = prefixPattern.ReplaceAllString(text, "")

	// Sign-offs are only looked for after the last closing bracket.
	cut := strings.LastIndexAny(text, "}]") + 1
	body, tail := text[:cut], text[cut:]
	for {
		trimmed := suffixPattern.ReplaceAllString(tail, "")
		if trimmed == tail {
			break
		}
		tail = trimmed
	}
	return strings.TrimSpace(body + tail)
}

func parse(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Regions returns the balanced top-level bracketed regions of s in order
// of appearance. An opening bracket that never closes is skipped and the
// scan resumes after it.
func Regions(s string) []string {
	var out []string
	pos := 0
	for attempts := 0; pos < len(s) && len(out) < maxRegions && attempts < maxOpenings; attempts++ {
		idx := strings.IndexAny(s[pos:], "{[")
		if idx < 0 {
			break
		}
		start := pos + idx
		end, ok := matchBracket(s, start)
		if !ok {
			pos = start + 1
			continue
		}
		out = append(out, s[start:end+1])
		pos = end + 1
	}
	return out
}

// matchBracket finds the bracket closing the one at start. Brackets are
// only counted outside string literals and comments.
func matchBracket(s string, start int) (int, bool) {
	stack := make([]byte, 0, 8)
	var quote byte
	escaped := false
	prev := byte('{')

	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
				prev = c
			}
			continue
		}

		switch c {
		case '"':
			quote = c
		case '\'':
			if opensValue(prev) {
				quote = c
			}
		case '/':
			if skip, ok := commentEnd(s, i); ok {
				i = skip
				continue
			}
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
		if !isSpace(c) {
			prev = c
		}
	}
	return 0, false
}

// opensValue reports whether a quote after prev can start a string.
func opensValue(prev byte) bool {
	switch prev {
	case '{', '[', ',', ':':
		return true
	}
	return false
}

// commentEnd returns the index of the last byte of a comment starting at i.
func commentEnd(s string, i int) (int, bool) {
	if i+1 >= len(s) {
		return 0, false
	}
	switch s[i+1] {
	case '/':
		if nl := strings.IndexByte(s[i:], '\n'); nl >= 0 {
			return i + nl - 1, true
		}
		return len(s) - 1, true
	case '*':
		if end := strings.Index(s[i+2:], "*/"); end >= 0 {
			return i + 2 + end + 1, true
		}
		return len(s) - 1, true
	}
	return 0, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
