package shared

import (
	"strings"

	"github.com/jinzhu/inflection"
)

func ToTitle(s string) string {
	if s == "" {
		return s
	}
	first := strings.ToUpper(s[:1])
	rest := s[1:]
	return first + rest
}

// ToLowerFirst turns a model name into its client accessor: "OrderItem" -> "orderItem".
func ToLowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// RelationFieldName names a back-relation field for a model,
// "ArticleCategory" -> "articleCategories" for lists, "siteTemplate" otherwise.
func RelationFieldName(model string, list bool) string {
	if list {
		return ToLowerFirst(inflection.Plural(model))
	}
	return ToLowerFirst(model)
}

// IndentLines prefixes every non-empty line of block with indent.
func IndentLines(block, indent string) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
