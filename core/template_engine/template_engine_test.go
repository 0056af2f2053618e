package template_engine

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tristendillon/tenantize/core/config"
)

func allRefs() []TemplateRef {
	return []TemplateRef{
		TEMPLATES.Definitions,
		TEMPLATES.Header,
		TEMPLATES.Imports,
		TEMPLATES.TenantFilter,
		TEMPLATES.RequireTenant,
		TEMPLATES.Ownership,
		TEMPLATES.InitConfig,
	}
}

func TestEveryTemplateParses(t *testing.T) {
	te := NewTemplateEngine()
	for _, ref := range allRefs() {
		assert.NoError(t, te.ValidateTemplate(ref), ref.Path)
	}

	listed, err := te.ListTemplates()
	require.NoError(t, err)
	for _, ref := range allRefs() {
		assert.Contains(t, listed, ref.Path)
	}
}

func TestValidateTemplates(t *testing.T) {
	te := NewTemplateEngine()
	require.NoError(t, te.ValidateTemplates())
	for _, ref := range allRefs() {
		assert.Contains(t, te.parsed, ref.Path)
	}
}

func TestValidateTemplateMissing(t *testing.T) {
	err := NewTemplateEngine().ValidateTemplate(TemplateRef{Path: "routes/missing.ts.tmpl"})
	assert.Error(t, err)
}

func TestRenderHeaderUnderlinesLabel(t *testing.T) {
	out, err := NewTemplateEngine().Render(TEMPLATES.Header, struct {
		Label  string
		Marker string
	}{Label: "ÉQUIPE", Marker: "Multi-tenant ready"})
	require.NoError(t, err)
	assert.Equal(t, "/**\n * API: ÉQUIPE\n * ===========\n * Multi-tenant ready ✅\n */\n\n", out)
}

func TestRenderImports(t *testing.T) {
	te := NewTemplateEngine()
	data := struct {
		Call          string
		Module        string
		ContextModule string
		Helpers       []string
	}{Call: "ensureAuthenticated", Module: "@/lib/tenant-auth", ContextModule: "@/middleware/tenant-context"}

	out, err := te.Render(TEMPLATES.Imports, data)
	require.NoError(t, err)
	assert.Equal(t, "import { ensureAuthenticated } from \"@/lib/tenant-auth\";\n", out)

	data.Helpers = []string{"getTenantFilter", "verifyTenantAccess"}
	out, err = te.Render(TEMPLATES.Imports, data)
	require.NoError(t, err)
	assert.Equal(t, "import { ensureAuthenticated } from \"@/lib/tenant-auth\";\n"+
		"import { getTenantFilter, verifyTenantAccess } from \"@/middleware/tenant-context\";\n", out)
}

func TestRenderIndentedSkipsBlankLines(t *testing.T) {
	out, err := NewTemplateEngine().RenderIndented(TEMPLATES.RequireTenant, "    ", struct{ Request string }{"req"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "    // Resolve the tenant", lines[0])
	assert.Equal(t, "    const { tenantId } = await requireTenant(req);", lines[1])
	for _, line := range lines {
		assert.True(t, line == "" || strings.HasPrefix(line, "    "), line)
	}
}

func TestGenerateInitConfigLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", config.FileName)
	require.NoError(t, NewTemplateEngine().GenerateFile(TEMPLATES.InitConfig, path, config.Default()))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestFuncs(t *testing.T) {
	te := NewTemplateEngine()

	pad := te.funcMap["pad"].(func(string, int) string)
	assert.Equal(t, "id   |", pad("id", 5)+"|")

	def := te.funcMap["default"].(func(interface{}, interface{}) interface{})
	assert.Equal(t, "x", def("x", ""))
	assert.Equal(t, "y", def("x", "y"))

	yamlOut, err := toYaml([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "- a\n- b", yamlOut)
}
