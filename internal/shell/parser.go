package shell

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputLength is the longest input line, in characters, the shell accepts.
const DefaultMaxInputLength = 1000

var (
	// ErrTooLong is returned for input over the length limit.
	ErrTooLong = errors.New("input too long")
	// ErrInvalidID is returned by ParseID for anything but a positive integer.
	ErrInvalidID = errors.New("invalid id")
)

// commandRe splits a stage into a command word (word characters and
// hyphens) and the untouched remainder.
var commandRe = regexp.MustCompile(`^([\w-]+)(?:\s+([\s\S]*))?$`)

// Parsed is one stage split into command and argument text.
type Parsed struct {
	Command string
	Args    string
}

// Empty reports whether the stage held no command.
func (p Parsed) Empty() bool {
	return p.Command == ""
}

// ParseLine trims raw and splits it into a command word and the argument
// text after the first whitespace run. Internal whitespace in the argument
// text, newlines included, is preserved. A blank line parses to an empty
// Parsed; a line longer than maxLen characters yields ErrTooLong.
func ParseLine(raw string, maxLen int) (Parsed, error) {
	line := strings.TrimSpace(raw)
	if maxLen > 0 {
		if n := utf8.RuneCountInString(line); n > maxLen {
			return Parsed{}, fmt.Errorf("%w: %d characters (max %d)", ErrTooLong, n, maxLen)
		}
	}
	if line == "" {
		return Parsed{}, nil
	}
	if m := commandRe.FindStringSubmatch(line); m != nil {
		return Parsed{Command: m[1], Args: m[2]}, nil
	}
	// Command words with other characters ("?", "!x") still split on the
	// first whitespace run so they can resolve as aliases or be reported.
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return Parsed{Command: line}, nil
	}
	return Parsed{Command: line[:i], Args: strings.TrimLeftFunc(line[i:], unicode.IsSpace)}, nil
}

// SplitPipeline splits a line on '|' into trimmed stages. A '|' inside
// quotes still splits; quoting does not escape it.
func SplitPipeline(line string) []string {
	parts := strings.Split(line, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// ParseTitle reads a title from argument text: a "double-quoted" or
// 'single-quoted' string, or else the whole trimmed remainder. rest is the
// trimmed text after a closing quote. An unterminated quote runs to the end.
func ParseTitle(args string) (title, rest string) {
	s := strings.TrimSpace(args)
	if s == "" {
		return "", ""
	}
	if q := s[0]; q == '"' || q == '\'' {
		body := s[1:]
		if end := strings.IndexByte(body, q); end >= 0 {
			return strings.TrimSpace(body[:end]), strings.TrimSpace(body[end+1:])
		}
		return strings.TrimSpace(body), ""
	}
	return s, ""
}

// Fields splits argument text on whitespace, keeping quoted runs together
// and dropping the quotes.
func Fields(args string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		inTok bool
	)
	for _, r := range args {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inTok = true
		case unicode.IsSpace(r):
			if inTok {
				out = append(out, cur.String())
				cur.Reset()
				inTok = false
			}
		default:
			cur.WriteRune(r)
			inTok = true
		}
	}
	if inTok {
		out = append(out, cur.String())
	}
	return out
}

// cutWord splits off the first whitespace-delimited word.
func cutWord(args string) (word, rest string) {
	s := strings.TrimSpace(args)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// ParseID parses a positive note id, allowing a leading '#'.
func ParseID(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return id, nil
}
