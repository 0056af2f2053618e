package models

import "strings"

type BlockKind string

const (
	BlockModel BlockKind = "model"
	BlockEnum  BlockKind = "enum"
)

// Span is a half-open byte range [Start, End) into the schema text.
type Span struct {
	Start int
	End   int
}

// ModelDefinition is one located block of the schema. It only lives for the
// duration of a pass; RawText is the exact text covered by Span.
type ModelDefinition struct {
	Name            string
	Kind            BlockKind
	RawText         string
	Span            Span
	FieldLines      []string
	AnnotationLines []string
	HasTenantField  bool
	Duplicates      []Span
}

// NewModelDefinition splits a block's body into field and annotation lines.
func NewModelDefinition(kind BlockKind, name, raw string, span Span, tenantField string) *ModelDefinition {
	def := &ModelDefinition{
		Name:    name,
		Kind:    kind,
		RawText: raw,
		Span:    span,
	}

	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return def
	}
	for _, line := range lines[1 : len(lines)-1] {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "", strings.HasPrefix(trimmed, "//"):
			continue
		case strings.HasPrefix(trimmed, "@@"):
			def.AnnotationLines = append(def.AnnotationLines, line)
		default:
			def.FieldLines = append(def.FieldLines, line)
			if tenantField != "" && FieldName(line) == tenantField {
				def.HasTenantField = true
			}
		}
	}
	return def
}

// Ambiguous reports whether other blocks with the same name were found.
func (d *ModelDefinition) Ambiguous() bool {
	return len(d.Duplicates) > 0
}

// FieldName returns the leading identifier of a field declaration line.
func FieldName(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// IsAnnotation reports whether line is a block-level "@@" attribute.
func IsAnnotation(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "@@")
}
