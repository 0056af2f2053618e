package classifier

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tristendillon/tenantize/core/config"
	"github.com/tristendillon/tenantize/core/logger"
	"github.com/tristendillon/tenantize/core/models"
)

var (
	handlerDecl = regexp.MustCompile(`(?m)^export\s+(?:async\s+function\s+|function\s+|const\s+)(GET|POST|PUT|PATCH|DELETE)\b\s*[(=:<]`)
	handlerArgs = regexp.MustCompile(`^export\s+(?:async\s+function\s+|function\s+|const\s+)\w+[^(]*\(\s*\w+\s*(?::\s*[\w.]+\s*)?,\s*(\{\s*params\s*\}|\w+)`)

	paramsAccess   = regexp.MustCompile(`\bparams\)?\.(\w+)`)
	paramsAwaited  = regexp.MustCompile(`\{\s*(\w+)\s*(?:,[^}]*)?\}\s*=\s*await\s+(?:\w+\.)?params\b`)
	paramsTypeDecl = regexp.MustCompile(`params\s*:\s*(?:Promise<\s*)?\{\s*(\w+)\s*:`)
)

const defaultParam = "id"

type Classifier struct {
	marker     string
	authCall   string
	legacyCall *regexp.Regexp
}

func NewClassifier(auth config.Auth) *Classifier {
	c := &Classifier{marker: auth.Marker, authCall: auth.Call}
	if auth.LegacyCall != "" {
		c.legacyCall = regexp.MustCompile(`\b` + regexp.QuoteMeta(auth.LegacyCall) + `\b`)
	}
	return c
}

// ParseRoute reads a handler file from disk and classifies it.
func (c *Classifier) ParseRoute(path, relPath, label string) (*models.RouteFile, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", relPath, err)
	}
	if label == "" {
		label = models.DeriveLabel(relPath)
	}

	rf := &models.RouteFile{
		Path:       path,
		RelPath:    relPath,
		Label:      label,
		RawContent: string(src),
		Content:    string(src),
	}
	c.Classify(rf)
	return rf, nil
}

// IsMigrated reports whether content already carries the marker comment or
// calls the multi-tenant auth helper.
func (c *Classifier) IsMigrated(content string) bool {
	return (c.marker != "" && strings.Contains(content, c.marker)) ||
		(c.authCall != "" && strings.Contains(content, c.authCall))
}

// Classify sets the state, handlers and path parameter of rf from its
// content. It never modifies the content.
func (c *Classifier) Classify(rf *models.RouteFile) {
	rf.Handlers = FindHandlers(rf.Content)
	rf.ParamName, rf.ParamRoute = ParamOf(rf.RelPath, rf.Content)

	switch {
	case c.IsMigrated(rf.Content):
		rf.State = models.StateAlreadyMigrated
		rf.Reason = "already migrated"
	case len(rf.Handlers) == 0:
		rf.Skip("no handler declarations")
	case c.legacyCall != nil && !c.legacyCall.MatchString(rf.Content):
		rf.Skip("no legacy auth call")
	default:
		rf.State = models.StateUnmigrated
	}

	logger.Debug("Classified %s: %s (methods: %v, param: %t)", rf.RelPath, rf.State, rf.Methods(), rf.ParamRoute)
}

// FindHandlers lists the exported method handlers in declaration order. Each
// handler owns the text from its declaration to the next one.
func FindHandlers(content string) []models.Handler {
	matches := handlerDecl.FindAllStringSubmatchIndex(content, -1)
	handlers := make([]models.Handler, 0, len(matches))
	for i, m := range matches {
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		handlers = append(handlers, models.Handler{
			Method: models.Method(content[m[2]:m[3]]),
			Span:   models.Span{Start: m[0], End: end},
		})
	}
	return handlers
}

// SecondArg returns the expression holding the route params in a handler
// segment: "params" for a destructured `{ params }`, "<name>.params" for a
// named context argument, or "" when the handler takes a single argument.
func SecondArg(seg string) string {
	m := handlerArgs.FindStringSubmatch(seg)
	if m == nil {
		return ""
	}
	if strings.HasPrefix(m[1], "{") {
		return "params"
	}
	return m[1] + ".params"
}

// ParamOf decides whether the route addresses a single resource and names
// its path parameter. Only a `[param]` folder makes a route single-resource.
// Without a path, handlers are read instead, and only when one of them
// receives the params argument.
func ParamOf(relPath, content string) (string, bool) {
	if name, ok := models.LastParam(relPath); ok {
		return name, true
	}
	if relPath != "" {
		return "", false
	}

	takesParams := false
	for _, h := range FindHandlers(content) {
		if SecondArg(content[h.Span.Start:h.Span.End]) != "" {
			takesParams = true
			break
		}
	}
	if !takesParams {
		return "", false
	}
	for _, pattern := range []*regexp.Regexp{paramsTypeDecl, paramsAwaited, paramsAccess} {
		if m := pattern.FindStringSubmatch(content); m != nil {
			return m[1], true
		}
	}
	return defaultParam, true
}
