package rewriter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tristendillon/tenantize/core/models"
)

var closers = map[byte]byte{'{': '}', '(': ')', '[': ']'}

func isQuote(c byte) bool {
	return c == '"' || c == '\'' || c == '`'
}

func commentAt(s string, i int) bool {
	return s[i] == '/' && i+1 < len(s) && (s[i+1] == '/' || s[i+1] == '*')
}

// skipString returns the index after the string literal opening at i.
func skipString(s string, i int) int {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(s)
}

// skipComment returns the index after the comment opening at i.
func skipComment(s string, i int) int {
	if s[i+1] == '/' {
		if end := strings.IndexByte(s[i:], '\n'); end >= 0 {
			return i + end
		}
		return len(s)
	}
	if end := strings.Index(s[i+2:], "*/"); end >= 0 {
		return i + 2 + end + 2
	}
	return len(s)
}

// matchClose finds the bracket closing the one at open, skipping strings and
// comments.
func matchClose(s string, open int) (int, bool) {
	want, ok := closers[s[open]]
	if !ok {
		return -1, false
	}
	depth := 0
	for i := open; i < len(s); {
		c := s[i]
		switch {
		case isQuote(c):
			i = skipString(s, i)
			continue
		case commentAt(s, i):
			i = skipComment(s, i)
			continue
		case c == '{' || c == '(' || c == '[':
			depth++
		case c == '}' || c == ')' || c == ']':
			depth--
			if depth == 0 {
				return i, c == want
			}
		}
		i++
	}
	return -1, false
}

// maskNested blanks out everything in obj that is not at the top level of
// the outer brackets: nested brackets, strings and comments. Offsets and
// newlines are preserved so matches on the mask index into obj.
func maskNested(obj string) string {
	out := []byte(obj)
	blank := func(from, to int) {
		for k := from; k < to; k++ {
			if out[k] != '\n' {
				out[k] = ' '
			}
		}
	}

	depth := 0
	for i := 0; i < len(obj); {
		c := obj[i]
		if isQuote(c) || commentAt(obj, i) {
			end := 0
			if isQuote(c) {
				end = skipString(obj, i)
			} else {
				end = skipComment(obj, i)
			}
			blank(i, end)
			i = end
			continue
		}
		switch c {
		case '{', '(', '[':
			depth++
			if depth > 1 {
				out[i] = ' '
			}
		case '}', ')', ']':
			if depth > 1 {
				out[i] = ' '
			}
			depth--
		default:
			if depth > 1 && c != '\n' {
				out[i] = ' '
			}
		}
		i++
	}
	return string(out)
}

// property is a top-level key of an object literal. Value is empty for
// shorthand properties.
type property struct {
	KeyStart   int
	KeyEnd     int
	ValueStart int
	ValueEnd   int
}

func (p property) Shorthand() bool {
	return p.ValueStart == p.ValueEnd
}

// topLevelKey finds key among the top-level properties of the object
// literal obj, which must start with '{' and end with '}'.
func topLevelKey(obj, key string) (property, bool) {
	masked := maskNested(obj)
	pattern := regexp.MustCompile(`[{,]\s*(` + regexp.QuoteMeta(key) + `)\s*([:,}])`)
	m := pattern.FindStringSubmatchIndex(masked)
	if m == nil {
		return property{}, false
	}

	prop := property{KeyStart: m[2], KeyEnd: m[3], ValueStart: m[3], ValueEnd: m[3]}
	if masked[m[4]] != ':' {
		return prop, true
	}

	start := m[5]
	for start < len(obj) && isSpace(obj[start]) {
		start++
	}
	end := len(obj) - 1
	if start > end {
		start = end
	}
	if comma := strings.IndexByte(masked[start:end], ','); comma >= 0 {
		end = start + comma
	}
	for end > start && isSpace(obj[end-1]) {
		end--
	}
	prop.ValueStart, prop.ValueEnd = start, end
	return prop, true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// insertFirst builds the text inserted right after obj[0] that adds entry as
// the first property, following the literal's inline or multi-line layout.
func insertFirst(obj, entry string) string {
	i := 1
	for i < len(obj) && (obj[i] == ' ' || obj[i] == '\t') {
		i++
	}
	if i < len(obj) && (obj[i] == '\n' || obj[i] == '\r') {
		nl := strings.IndexByte(obj, '\n')
		indent := leadingSpace(obj[nl+1:])
		return "\n" + indent + entry + ","
	}
	if strings.TrimSpace(obj[1:len(obj)-1]) == "" {
		return " " + entry + " "
	}
	return " " + entry + ","
}

// appendLast builds the text added after the last property of a non-empty
// object literal, and the offset in obj where it goes. Empty literals get
// the entry alone.
func appendLast(obj, entry string) (int, string) {
	if strings.TrimSpace(obj[1:len(obj)-1]) == "" {
		return 1, " " + entry + " "
	}
	last := len(obj) - 2
	for last > 0 && isSpace(obj[last]) {
		last--
	}
	trailingComma := obj[last] == ','
	multiLine := strings.Contains(obj[last:], "\n")

	if !multiLine {
		if trailingComma {
			return last + 1, " " + entry
		}
		return last + 1, ", " + entry
	}

	lineStart := strings.LastIndexByte(obj[:last], '\n') + 1
	indent := leadingSpace(obj[lineStart:])
	if trailingComma {
		return last + 1, "\n" + indent + entry + ","
	}
	return last + 1, ",\n" + indent + entry
}

func leadingSpace(s string) string {
	end := 0
	for end < len(s) && (s[end] == ' ' || s[end] == '\t') {
		end++
	}
	return s[:end]
}

// splice replaces text[Start:End] with Text.
type splice struct {
	Start int
	End   int
	Text  string
}

// applySplices applies non-overlapping splices from the end of text so the
// offsets of earlier ones stay valid.
func applySplices(text string, splices []splice) (string, error) {
	sorted := append([]splice(nil), splices...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	limit := len(text)
	for _, s := range sorted {
		if s.End > limit || s.Start > s.End {
			return text, fmt.Errorf("overlapping edit at offset %d: %w", s.Start, models.ErrPartialMatch)
		}
		text = text[:s.Start] + s.Text + text[s.End:]
		limit = s.Start
	}
	return text, nil
}
