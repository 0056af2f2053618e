package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tristendillon/tenantize/core/models"
)

var blockStart = regexp.MustCompile(`(?m)^(?:model|enum|type|view|generator|datasource)[ \t]`)

func headerPattern(kind models.BlockKind, name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^` + string(kind) + `[ \t]+` + regexp.QuoteMeta(name) + `[ \t]*\{`)
}

// blockEnd returns the offset just past the brace closing the block whose
// opening brace ends at open. A block closes on its opening line, or at the
// first later line starting with "}". Reaching another block header first
// means the block is unterminated.
func blockEnd(text string, open int) (int, bool) {
	lineEnd := strings.IndexByte(text[open:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text) - open
	}
	depth := 1
	for i := open; i < open+lineEnd; i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}

	body := open + lineEnd
	closing := strings.Index(text[body:], "\n}")
	if closing < 0 {
		return 0, false
	}
	end := body + closing + 2
	if next := blockStart.FindStringIndex(text[body:end]); next != nil {
		return 0, false
	}
	return end, true
}

func findBlocks(text string, kind models.BlockKind, name string) []models.Span {
	var spans []models.Span
	for _, m := range headerPattern(kind, name).FindAllStringIndex(text, -1) {
		if end, ok := blockEnd(text, m[1]); ok {
			spans = append(spans, models.Span{Start: m[0], End: end})
		}
	}
	return spans
}

// Locate finds the first `kind name { ... }` block in text. The block ends at
// the brace closing it, never inside a following block. Later blocks with the
// same name are recorded as Duplicates and never returned.
func Locate(text string, kind models.BlockKind, name, tenantField string) (*models.ModelDefinition, error) {
	spans := findBlocks(text, kind, name)
	if len(spans) == 0 {
		return nil, fmt.Errorf("%s %s: %w", kind, name, models.ErrNotFound)
	}

	first := spans[0]
	def := models.NewModelDefinition(kind, name, text[first.Start:first.End], first, tenantField)
	def.Duplicates = append(def.Duplicates, spans[1:]...)
	return def, nil
}

// Defined reports whether a block of that kind and name exists.
func Defined(text string, kind models.BlockKind, name string) bool {
	return len(findBlocks(text, kind, name)) > 0
}

// Replace swaps the text covered by span.
func Replace(text string, span models.Span, replacement string) string {
	return text[:span.Start] + replacement + text[span.End:]
}
