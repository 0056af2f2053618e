package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tristendillon/tenantize/core/models"
)

var primaryKeyAttr = regexp.MustCompile(`(^|\s)@id(\s|\(|$)`)

// Injection is the rewritten block plus what happened to it.
type Injection struct {
	Text  string
	Steps []string
	Notes []string
}

// edit inserts lines before line index pos of the original buffer. Edits at
// the same position keep seq order in the output.
type edit struct {
	pos   int
	seq   int
	step  string
	lines []string
}

// InjectTenantField adds the tenant field, the ownership relation and the
// lookup index to one model block. Insertion points are resolved against the
// original lines and applied bottom-up so earlier positions stay valid.
func InjectTenantField(def *models.ModelDefinition, spec models.TenantFieldSpec) (Injection, error) {
	if def.HasTenantField {
		return Injection{Text: def.RawText}, fmt.Errorf("model %s declares %s: %w", def.Name, spec.FieldName, models.ErrAlreadyMigrated)
	}

	lines := strings.Split(def.RawText, "\n")
	closing := len(lines) - 1
	if closing < 1 {
		return Injection{Text: def.RawText}, fmt.Errorf("model %s has no body: %w", def.Name, models.ErrPartialMatch)
	}

	primaryKey, firstAnnotation, lastAnnotation := -1, -1, -1
	for i := 1; i < closing; i++ {
		line := lines[i]
		switch {
		case models.IsAnnotation(line):
			if firstAnnotation < 0 {
				firstAnnotation = i
			}
			lastAnnotation = i
		case primaryKey < 0 && isFieldLine(line) && primaryKeyAttr.MatchString(line):
			primaryKey = i
		}
	}

	var result Injection
	var edits []edit

	if primaryKey >= 0 {
		edits = append(edits, edit{pos: primaryKey + 1, seq: 0, step: "field", lines: []string{spec.FieldLine()}})
	} else {
		result.Notes = append(result.Notes, fmt.Sprintf("no primary key line, %s not added: %s", spec.FieldName, models.ErrPartialMatch))
	}

	if !strings.Contains(def.RawText, spec.RelationSignature()) {
		e := edit{seq: 1, step: "relation"}
		if firstAnnotation >= 0 {
			e.pos = firstAnnotation
			if !isBlank(lines[firstAnnotation-1]) {
				e.lines = append(e.lines, "")
			}
			e.lines = append(e.lines, spec.RelationLine(), "")
		} else {
			e.pos = closing
			if !isBlank(lines[closing-1]) {
				e.lines = append(e.lines, "")
			}
			e.lines = append(e.lines, spec.RelationLine())
		}
		edits = append(edits, e)
	}

	if !strings.Contains(def.RawText, spec.IndexSignature()) {
		e := edit{seq: 2, step: "index"}
		if lastAnnotation >= 0 {
			e.pos = lastAnnotation + 1
			e.lines = []string{spec.IndexLine()}
		} else {
			e.pos = closing
			e.lines = []string{"", spec.IndexLine()}
		}
		edits = append(edits, e)
	}

	result.Text = applyEdits(lines, edits)
	for _, e := range orderedByPosition(edits) {
		result.Steps = append(result.Steps, e.step)
	}
	return result, nil
}

func applyEdits(lines []string, edits []edit) string {
	sorted := append([]edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].pos != sorted[j].pos {
			return sorted[i].pos > sorted[j].pos
		}
		return sorted[i].seq > sorted[j].seq
	})

	out := append([]string(nil), lines...)
	for _, e := range sorted {
		tail := append([]string(nil), out[e.pos:]...)
		out = append(append(out[:e.pos], e.lines...), tail...)
	}
	return strings.Join(out, "\n")
}

func orderedByPosition(edits []edit) []edit {
	sorted := append([]edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].pos != sorted[j].pos {
			return sorted[i].pos < sorted[j].pos
		}
		return sorted[i].seq < sorted[j].seq
	})
	return sorted
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func isFieldLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && !strings.HasPrefix(trimmed, "//") && !strings.HasPrefix(trimmed, "@@")
}
