package rewriter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/tristendillon/tenantize/core/classifier"
	"github.com/tristendillon/tenantize/core/config"
	"github.com/tristendillon/tenantize/core/logger"
	"github.com/tristendillon/tenantize/core/models"
	"github.com/tristendillon/tenantize/core/template_engine"
)

const (
	helperFilter = "getTenantFilter"
	helperTenant = "requireTenant"
	helperVerify = "verifyTenantAccess"
)

var (
	modelAccessor = regexp.MustCompile(`\b(prisma|db|tx)\.([a-z]\w*)\.`)
	promiseParams = regexp.MustCompile(`params\s*:\s*Promise<`)
	importStmt    = regexp.MustCompile(`(?m)^import\b[^;]*?from\s*["'][^"']+["'];?`)
	leadingImport = regexp.MustCompile(`(?m)^import\b`)
)

type ImportData struct {
	Call          string
	Module        string
	ContextModule string
	Helpers       []string
}

type HeaderData struct {
	Label  string
	Marker string
}

type SnippetData struct {
	Request   string
	Client    string
	Model     string
	Var       string
	Access    string
	Param     string
	ParamExpr string
	Field     string
}

// Rewrite is the in-memory result for one file. Nothing is written here.
type Rewrite struct {
	Content string
	Steps   []string
	Notes   []string
}

func (r *Rewrite) note(format string, args ...interface{}) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

func (r *Rewrite) step(name string) {
	for _, s := range r.Steps {
		if s == name {
			return
		}
	}
	r.Steps = append(r.Steps, name)
}

type Rewriter struct {
	auth   config.Auth
	spec   models.TenantFieldSpec
	engine *template_engine.TemplateEngine

	legacyImport *regexp.Regexp
	legacyCall   *regexp.Regexp
	authCheck    *regexp.Regexp
}

func NewRewriter(auth config.Auth, spec models.TenantFieldSpec, engine *template_engine.TemplateEngine) *Rewriter {
	call := regexp.QuoteMeta(auth.Call)
	return &Rewriter{
		auth:   auth,
		spec:   spec,
		engine: engine,
		legacyImport: regexp.MustCompile(`import\s*\{([^}]*)\}\s*from\s*["']` +
			regexp.QuoteMeta(auth.LegacyModule) + `["'];?`),
		legacyCall: regexp.MustCompile(`\b` + regexp.QuoteMeta(auth.LegacyCall) + `\(`),
		authCheck: regexp.MustCompile(`(?m)^([ \t]*)(?:const|let)\s+\w+\s*=\s*await\s+` + call +
			`\(\s*(\w+)\s*\);?[ \t]*\r?\n\s*if\s*\(\s*\w+\s+instanceof\s+NextResponse\s*\)\s*` +
			`(?:return\s+\w+;?|\{\s*return\s+\w+;?\s*\})`),
	}
}

// Rewrite migrates an unmigrated route file in memory. Any error leaves rf
// untouched; the caller decides what to commit.
func (r *Rewriter) Rewrite(rf *models.RouteFile) (Rewrite, error) {
	if rf.State != models.StateUnmigrated {
		return Rewrite{Content: rf.Content}, fmt.Errorf("%s is %s: %w", rf.RelPath, rf.State, models.ErrAlreadyMigrated)
	}

	result := Rewrite{Content: rf.Content}

	if r.legacyCall.MatchString(result.Content) {
		result.Content = r.legacyCall.ReplaceAllString(result.Content, r.auth.Call+"(")
		result.step("auth-call")
	}

	helpers, err := r.rewriteHandlers(rf, &result)
	if err != nil {
		return result, err
	}

	if err := r.swapImports(&result, helpers); err != nil {
		return result, err
	}

	if err := r.addHeader(rf, &result); err != nil {
		return result, err
	}

	logger.Debug("Rewrote %s: steps %v, %d notes", rf.RelPath, result.Steps, len(result.Notes))
	return result, nil
}

// rewriteHandlers processes handler segments from last to first so the
// spans of earlier handlers stay valid.
func (r *Rewriter) rewriteHandlers(rf *models.RouteFile, result *Rewrite) (map[string]bool, error) {
	helpers := make(map[string]bool)
	handlers := classifier.FindHandlers(result.Content)
	apiPath := models.APIPath(rf.RelPath)

	for i := len(handlers) - 1; i >= 0; i-- {
		h := handlers[i]
		seg := result.Content[h.Span.Start:h.Span.End]

		rewritten, err := r.rewriteSegment(rf, h.Method, seg, apiPath, result, helpers)
		if err != nil {
			return nil, fmt.Errorf("%s handler: %w", h.Method, err)
		}
		result.Content = result.Content[:h.Span.Start] + rewritten + result.Content[h.Span.End:]
	}
	return helpers, nil
}

func (r *Rewriter) rewriteSegment(rf *models.RouteFile, method models.Method, seg, apiPath string, result *Rewrite, helpers map[string]bool) (string, error) {
	var splices []splice

	role := method.Role(rf.ParamRoute)
	anchor := r.authCheck.FindStringSubmatchIndex(seg)

	switch {
	case anchor == nil:
		result.note("%s: no %s check found, tenant steps skipped: %s", method, r.auth.Call, models.ErrPartialMatch)
	default:
		indent := seg[anchor[2]:anchor[3]]
		request := seg[anchor[4]:anchor[5]]
		at := anchor[1]

		switch role {
		case models.RoleReadList:
			snippet, err := r.snippet(template_engine.TEMPLATES.TenantFilter, indent, SnippetData{Request: request})
			if err != nil {
				return seg, err
			}
			splices = append(splices, splice{Start: at, End: at, Text: snippet})
			splices = append(splices, scopeQueries(seg)...)
			helpers[helperFilter] = true
			result.step("tenant-filter")

		case models.RoleCreate:
			snippet, err := r.snippet(template_engine.TEMPLATES.RequireTenant, indent, SnippetData{Request: request})
			if err != nil {
				return seg, err
			}
			splices = append(splices, splice{Start: at, End: at, Text: snippet})
			helpers[helperTenant] = true
			result.step("require-tenant")

			stamps, calls := stampCreates(seg, r.stamp(), r.spec.FieldName)
			switch {
			case len(stamps) > 0:
				splices = append(splices, stamps...)
				result.step("stamp-create")
			case calls == 0:
				result.note("%s: no create call to stamp: %s", method, models.ErrPartialMatch)
			}

		case models.RoleReadOne, models.RoleUpdate, models.RoleDelete:
			if !rf.ParamRoute {
				result.note("%s: not a single-resource route, ownership check skipped: %s", method, models.ErrPartialMatch)
				break
			}
			data, ok := r.ownershipData(rf, seg, request)
			if !ok {
				result.note("%s: model accessor not found, ownership check skipped: %s", method, models.ErrPartialMatch)
				break
			}
			if data.ParamExpr == "" {
				result.note("%s: handler takes no params argument, ownership check skipped: %s", method, models.ErrPartialMatch)
				break
			}
			snippet, err := r.snippet(template_engine.TEMPLATES.Ownership, indent, data)
			if err != nil {
				return seg, err
			}
			splices = append(splices, splice{Start: at, End: at, Text: snippet})
			helpers[helperVerify] = true
			result.step("verify-ownership")
		}
	}

	tags := tagConsoleErrors(seg, fmt.Sprintf("[%s %s]", method, apiPath))
	if len(tags) > 0 {
		splices = append(splices, tags...)
		result.step("tag-errors")
	}

	return applySplices(seg, splices)
}

// snippet renders a handler snippet as a new paragraph at the given indent.
func (r *Rewriter) snippet(ref template_engine.TemplateRef, indent string, data SnippetData) (string, error) {
	data.Field = r.spec.FieldName
	out, err := r.engine.RenderIndented(ref, indent, data)
	if err != nil {
		return "", err
	}
	return "\n\n" + strings.Trim(out, "\n"), nil
}

func (r *Rewriter) stamp() string {
	if r.spec.FieldName == "tenantId" {
		return "tenantId"
	}
	return r.spec.FieldName + ": tenantId"
}

// ownershipData fills the lookup snippet. ParamExpr stays empty when the
// handler has no second argument to read the id from.
func (r *Rewriter) ownershipData(rf *models.RouteFile, seg, request string) (SnippetData, bool) {
	m := modelAccessor.FindStringSubmatch(seg)
	if m == nil {
		return SnippetData{}, false
	}

	param := rf.ParamName
	if param == "" {
		param = "id"
	}
	var expr string
	if base := classifier.SecondArg(seg); base != "" {
		expr = base + "." + param
		if promiseParams.MatchString(seg) {
			expr = "(await " + base + ")." + param
		}
	}

	return SnippetData{
		Request:   request,
		Client:    m[1],
		Model:     m[2],
		Var:       freeName(seg, "existing", "ownedRecord", "tenantRecord"),
		Access:    freeName(seg, "hasAccess", "tenantAccess", "accessGranted"),
		Param:     param,
		ParamExpr: expr,
	}, true
}

// freeName returns the first candidate not already declared in seg.
func freeName(seg string, candidates ...string) string {
	for _, name := range candidates {
		decl := regexp.MustCompile(`\b(?:const|let|var)\s+(?:\{[^}]*\b` + name + `\b[^}]*\}|` + name + `\b)`)
		if !decl.MatchString(seg) {
			return name
		}
	}
	return candidates[len(candidates)-1]
}

// swapImports replaces the single-tenant auth import with the multi-tenant
// ones. Other names imported from the legacy module are kept.
func (r *Rewriter) swapImports(result *Rewrite, used map[string]bool) error {
	helpers := make([]string, 0, len(used))
	for name := range used {
		helpers = append(helpers, name)
	}
	sort.Strings(helpers)

	rendered, err := r.engine.Render(template_engine.TEMPLATES.Imports, ImportData{
		Call:          r.auth.Call,
		Module:        r.auth.Module,
		ContextModule: r.auth.ContextModule,
		Helpers:       helpers,
	})
	if err != nil {
		return err
	}
	rendered = strings.TrimRight(rendered, "\n")

	content := result.Content
	if loc := r.legacyImport.FindStringSubmatchIndex(content); loc != nil {
		var kept []string
		found := false
		for _, name := range strings.Split(content[loc[2]:loc[3]], ",") {
			name = strings.TrimSpace(name)
			switch name {
			case "":
			case r.auth.LegacyCall:
				found = true
			default:
				kept = append(kept, name)
			}
		}
		if found {
			replacement := rendered
			if len(kept) > 0 {
				replacement = fmt.Sprintf("import { %s } from \"%s\";\n%s", strings.Join(kept, ", "), r.auth.LegacyModule, rendered)
			}
			result.Content = content[:loc[0]] + replacement + content[loc[1]:]
			result.step("imports")
			return nil
		}
	}

	result.note("legacy %s import not found, imports added after the last import: %s", r.auth.LegacyCall, models.ErrPartialMatch)
	if imports := importStmt.FindAllStringIndex(content, -1); len(imports) > 0 {
		end := imports[len(imports)-1][1]
		result.Content = content[:end] + "\n" + rendered + content[end:]
	} else if loc := leadingImport.FindStringIndex(content); loc != nil {
		result.Content = content[:loc[0]] + rendered + "\n" + content[loc[0]:]
	} else {
		result.Content = rendered + "\n\n" + content
	}
	result.step("imports")
	return nil
}

// addHeader prepends the label and marker block unless the file already
// opens with a comment. The swapped auth import still marks such a file as
// migrated.
func (r *Rewriter) addHeader(rf *models.RouteFile, result *Rewrite) error {
	trimmed := strings.TrimLeft(result.Content, " \t\r\n")
	if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") {
		return nil
	}

	header, err := r.engine.Render(template_engine.TEMPLATES.Header, HeaderData{Label: rf.Label, Marker: r.auth.Marker})
	if err != nil {
		return err
	}
	result.Content = header + result.Content
	result.step("header")
	return nil
}
