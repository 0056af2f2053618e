package models

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tristendillon/tenantize/core/logger"
)

type RouteSegment struct {
	Name      string
	APIName   string
	IsParam   bool
	IsGroup   bool
	ParamName string
}

type RouteNode struct {
	Segment    RouteSegment
	Children   map[string]*RouteNode
	Parent     *RouteNode
	FullPath   string
	FolderPath string
	Depth      int
	File       *RouteFile
}

type RouteTree struct {
	Root   *RouteNode
	Routes []*RouteFile
}

func newRootNode() *RouteNode {
	return &RouteNode{
		Segment:  RouteSegment{Name: "", APIName: ""},
		Children: make(map[string]*RouteNode),
	}
}

func NewRouteTree() *RouteTree {
	return &RouteTree{Root: newRootNode()}
}

func (rt *RouteTree) Reset() {
	rt.Root = newRootNode()
	rt.Routes = nil
}

// ParseSegment understands app-router folder names: "[id]" and "[...slug]"
// are parameters, "(group)" folders do not appear in the URL.
func ParseSegment(folderName string) RouteSegment {
	segment := RouteSegment{Name: folderName, APIName: folderName}
	switch {
	case strings.HasPrefix(folderName, "[") && strings.HasSuffix(folderName, "]"):
		name := strings.TrimSuffix(strings.TrimPrefix(folderName, "["), "]")
		name = strings.TrimPrefix(name, "[")
		name = strings.TrimSuffix(name, "]")
		name = strings.TrimPrefix(name, "...")
		segment.IsParam = true
		segment.ParamName = name
		segment.APIName = ":" + name
	case strings.HasPrefix(folderName, "(") && strings.HasSuffix(folderName, ")"):
		segment.IsGroup = true
		segment.APIName = ""
	}
	return segment
}

// RouteDir returns the route folder of a handler file relative path,
// "src/app/api/admin/projets/[id]/route.ts" -> "src/app/api/admin/projets/[id]".
func RouteDir(relPath string) string {
	return filepath.ToSlash(filepath.Dir(filepath.Clean(relPath)))
}

// APIPath turns a handler file path into the URL it serves, dropping the
// framework's "app" root when present.
func APIPath(relPath string) string {
	dir := RouteDir(relPath)
	parts := strings.Split(dir, "/")
	for i, part := range parts {
		if part == "app" {
			parts = parts[i+1:]
			break
		}
	}
	var out []string
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		if seg := ParseSegment(part); !seg.IsGroup {
			out = append(out, part)
		}
	}
	return "/" + strings.Join(out, "/")
}

// LastParam returns the innermost path parameter of a handler path, if any.
func LastParam(relPath string) (string, bool) {
	parts := strings.Split(RouteDir(relPath), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if seg := ParseSegment(parts[i]); seg.IsParam {
			return seg.ParamName, true
		}
	}
	return "", false
}

// DeriveLabel builds a report label from the route folder names:
// "admin/projets" -> "PROJETS", "admin/projets/[id]" -> "PROJETS DETAIL".
func DeriveLabel(relPath string) string {
	parts := strings.Split(RouteDir(relPath), "/")
	var words []string
	detail := false
	for i := len(parts) - 1; i >= 0; i-- {
		seg := ParseSegment(parts[i])
		if seg.IsGroup || parts[i] == "." || parts[i] == "" {
			continue
		}
		if seg.IsParam {
			detail = true
			continue
		}
		words = append(words, strings.ToUpper(strings.ReplaceAll(parts[i], "-", " ")))
		break
	}
	if len(words) == 0 {
		words = append(words, "ROOT")
	}
	if detail {
		words = append(words, "DETAIL")
	}
	return strings.Join(words, " ")
}

func (rt *RouteTree) AddRoute(rf *RouteFile) {
	cleanPath := RouteDir(rf.RelPath)
	parts := strings.Split(cleanPath, "/")

	var validParts []string
	for _, part := range parts {
		if part != "" && part != "." {
			validParts = append(validParts, part)
		}
	}
	if len(validParts) == 0 {
		return
	}

	current := rt.Root
	var apiParts []string

	for i, part := range validParts {
		segment := ParseSegment(part)
		if !segment.IsGroup {
			apiParts = append(apiParts, segment.APIName)
		}

		if child, exists := current.Children[part]; exists {
			current = child
			continue
		}

		newNode := &RouteNode{
			Segment:    segment,
			Children:   make(map[string]*RouteNode),
			Parent:     current,
			FullPath:   "/" + path.Join(apiParts...),
			FolderPath: strings.Join(validParts[:i+1], "/"),
			Depth:      i + 1,
		}
		current.Children[part] = newNode
		current = newNode
	}

	current.File = rf
	rt.Routes = append(rt.Routes, rf)
}

func (rt *RouteTree) PrintTree(level logger.LogLevel) {
	rt.printNode(rt.Root, "", level)
}

func (rt *RouteTree) printNode(node *RouteNode, prefix string, level logger.LogLevel) {
	if node != rt.Root {
		paramInfo := ""
		if node.Segment.IsParam {
			paramInfo = fmt.Sprintf(" (param: %s)", node.Segment.ParamName)
		}
		fileInfo := ""
		if node.File != nil {
			methods := make([]string, 0, len(node.File.Handlers))
			for _, m := range node.File.Methods() {
				methods = append(methods, string(m))
			}
			fileInfo = fmt.Sprintf(" [%s] %s", strings.Join(methods, ", "), node.File.State)
		}
		logger.GetLogFromLevel(level)("%s%s -> %s%s%s", prefix, node.Segment.Name, node.FullPath, paramInfo, fileInfo)
	}

	keys := make([]string, 0, len(node.Children))
	for k := range node.Children {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rt.printNode(node.Children[key], prefix+"  ", level)
	}
}
