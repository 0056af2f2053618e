package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tristendillon/tenantize/core/config"
	"github.com/tristendillon/tenantize/core/models"
)

const legacyMarker = "  // MODIFIED: Multi-tenant architecture"

// legacyField matches `siteId String @default("main")` and captures the
// attributes that follow the default.
func legacyField(legacy config.LegacyModel) *regexp.Regexp {
	return regexp.MustCompile(`^\s*` + regexp.QuoteMeta(legacy.Field) + `\s+String\s+@default\("` +
		regexp.QuoteMeta(legacy.Default) + `"\)(.*)$`)
}

// HasLegacyField reports whether the block still declares the legacy field.
func HasLegacyField(def *models.ModelDefinition, legacy config.LegacyModel) bool {
	_, ok := findLegacyField(def, legacy)
	return ok
}

// LegacyFieldUnique reports whether the legacy field is declared @unique,
// which makes the tenant back-relation singular.
func LegacyFieldUnique(def *models.ModelDefinition, legacy config.LegacyModel) bool {
	line, ok := findLegacyField(def, legacy)
	return ok && strings.Contains(line, "@unique")
}

func findLegacyField(def *models.ModelDefinition, legacy config.LegacyModel) (string, bool) {
	pattern := legacyField(legacy)
	for _, line := range def.FieldLines {
		if pattern.MatchString(line) {
			return line, true
		}
	}
	return "", false
}

// RenameLegacyField rewrites the first legacy marker field of one block into
// the tenant field, retargets annotations that referenced it and adds the
// ownership relation. Nothing outside the block is touched.
func RenameLegacyField(def *models.ModelDefinition, legacy config.LegacyModel, spec models.TenantFieldSpec) (Injection, error) {
	if def.HasTenantField {
		return Injection{Text: def.RawText}, fmt.Errorf("model %s declares %s: %w", def.Name, spec.FieldName, models.ErrAlreadyMigrated)
	}

	lines := strings.Split(def.RawText, "\n")
	closing := len(lines) - 1
	pattern := legacyField(legacy)
	fieldRef := regexp.MustCompile(`\b` + regexp.QuoteMeta(legacy.Field) + `\b`)

	renamed := false
	relationAt, firstAnnotation := -1, -1
	var result Injection

	for i := 1; i < closing; i++ {
		line := lines[i]
		switch {
		case models.IsAnnotation(line):
			if firstAnnotation < 0 {
				firstAnnotation = i
			}
			if fieldRef.MatchString(line) {
				lines[i] = fieldRef.ReplaceAllString(line, spec.FieldName)
				result.Steps = append(result.Steps, "annotation")
			}
		case !renamed && pattern.MatchString(line):
			rest := pattern.FindStringSubmatch(line)[1]
			replacement := spec.FieldLine()
			if strings.Contains(rest, "@unique") {
				replacement += " @unique"
			}
			lines[i] = replacement
			renamed = true
			result.Steps = append(result.Steps, "rename")
		case relationAt < 0 && legacy.RelationBefore != "" &&
			models.FieldName(line) == legacy.RelationBefore && strings.Contains(line, "@relation"):
			relationAt = i
		}
	}

	if !renamed {
		return Injection{Text: def.RawText}, fmt.Errorf("model %s has no %s field with default %q: %w",
			def.Name, legacy.Field, legacy.Default, models.ErrNotFound)
	}

	var edits []edit
	if !strings.Contains(def.RawText, spec.RelationSignature()) {
		e := edit{seq: 1, step: "relation"}
		switch {
		case relationAt >= 0:
			e.pos = relationAt
			e.lines = []string{spec.RelationLine()}
		case firstAnnotation >= 0:
			e.pos = firstAnnotation
			if !isBlank(lines[firstAnnotation-1]) {
				e.lines = append(e.lines, "")
			}
			e.lines = append(e.lines, spec.RelationLine(), "")
		default:
			e.pos = closing
			e.lines = []string{"", spec.RelationLine()}
		}
		edits = append(edits, e)
		result.Steps = append(result.Steps, "relation")
	}
	edits = append(edits, edit{pos: 1, seq: 0, step: "marker", lines: []string{legacyMarker}})
	result.Steps = append(result.Steps, "marker")

	result.Text = applyEdits(lines, edits)
	return result, nil
}
