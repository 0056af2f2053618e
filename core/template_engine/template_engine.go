package template_engine

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/tristendillon/tenantize/core/logger"
	"github.com/tristendillon/tenantize/core/shared"
	"gopkg.in/yaml.v3"
)

//go:embed templates
var TemplateFS embed.FS

const templateRoot = "templates"

type TemplateRef struct {
	Path string
}

var TEMPLATES = struct {
	Definitions   TemplateRef
	Header        TemplateRef
	Imports       TemplateRef
	TenantFilter  TemplateRef
	RequireTenant TemplateRef
	Ownership     TemplateRef
	InitConfig    TemplateRef
}{
	Definitions:   TemplateRef{Path: "schema/definitions.prisma.tmpl"},
	Header:        TemplateRef{Path: "routes/header.ts.tmpl"},
	Imports:       TemplateRef{Path: "routes/imports.ts.tmpl"},
	TenantFilter:  TemplateRef{Path: "routes/tenant_filter.ts.tmpl"},
	RequireTenant: TemplateRef{Path: "routes/require_tenant.ts.tmpl"},
	Ownership:     TemplateRef{Path: "routes/ownership.ts.tmpl"},
	InitConfig:    TemplateRef{Path: "init/tenantize.yaml.tmpl"},
}

type TemplateEngine struct {
	funcMap template.FuncMap
	parsed  map[string]*template.Template
}

func getDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"title":    shared.ToTitle,
		"trim":     strings.TrimSpace,
		"replace":  strings.ReplaceAll,
		"contains": strings.Contains,
		"join":     strings.Join,
		"repeat":   strings.Repeat,
		"quote":    strconv.Quote,
		"runeLen":  utf8.RuneCountInString,
		"pad":      func(s string, width int) string { return fmt.Sprintf("%-*s", width, s) },
		"indent":   func(width int, s string) string { return shared.IndentLines(s, strings.Repeat(" ", width)) },
		"toYaml":   toYaml,

		"now":      time.Now,
		"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },

		"default": func(def, val interface{}) interface{} {
			if val == nil || val == "" {
				return def
			}
			return val
		},
		"not": func(b bool) bool { return !b },
	}
}

func toYaml(v interface{}) (string, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{
		funcMap: getDefaultFuncMap(),
		parsed:  make(map[string]*template.Template),
	}
}

func (te *TemplateEngine) load(ref TemplateRef) (*template.Template, error) {
	if tmpl, ok := te.parsed[ref.Path]; ok {
		return tmpl, nil
	}

	templatePath := path.Join(templateRoot, ref.Path)
	content, err := TemplateFS.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", templatePath, err)
	}

	tmpl, err := template.New(path.Base(ref.Path)).
		Funcs(te.funcMap).
		Option("missingkey=error").
		Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", ref.Path, err)
	}
	te.parsed[ref.Path] = tmpl
	return tmpl, nil
}

// Render executes a template into a string.
func (te *TemplateEngine) Render(ref TemplateRef, data interface{}) (string, error) {
	tmpl, err := te.load(ref)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", ref.Path, err)
	}
	return buf.String(), nil
}

// RenderIndented renders a snippet and indents every non-empty line.
func (te *TemplateEngine) RenderIndented(ref TemplateRef, indent string, data interface{}) (string, error) {
	out, err := te.Render(ref, data)
	if err != nil {
		return "", err
	}
	return shared.IndentLines(out, indent), nil
}

func (te *TemplateEngine) GenerateFile(ref TemplateRef, outputPath string, data interface{}) error {
	out, err := te.Render(ref, data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	logger.Debug("Generated %s from %s", outputPath, ref.Path)
	return nil
}

func (te *TemplateEngine) ListTemplates() ([]string, error) {
	var templates []string
	err := fs.WalkDir(TemplateFS, templateRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			templates = append(templates, strings.TrimPrefix(p, templateRoot+"/"))
		}
		return nil
	})
	return templates, err
}

func (te *TemplateEngine) ValidateTemplate(ref TemplateRef) error {
	if _, err := te.load(ref); err != nil {
		return fmt.Errorf("template not valid: %w", err)
	}
	return nil
}

// ValidateTemplates parses every embedded template so a broken one fails
// before any file is touched.
func (te *TemplateEngine) ValidateTemplates() error {
	paths, err := te.ListTemplates()
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	for _, p := range paths {
		if err := te.ValidateTemplate(TemplateRef{Path: p}); err != nil {
			return err
		}
	}
	return nil
}
