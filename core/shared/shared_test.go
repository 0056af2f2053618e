package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToTitleAndLowerFirst(t *testing.T) {
	assert.Equal(t, "Order", ToTitle("order"))
	assert.Equal(t, "", ToTitle(""))
	assert.Equal(t, "orderItem", ToLowerFirst("OrderItem"))
	assert.Equal(t, "", ToLowerFirst(""))
}

func TestRelationFieldName(t *testing.T) {
	tests := []struct {
		model string
		list  bool
		want  string
	}{
		{"BeautyTreatment", true, "beautyTreatments"},
		{"ArticleCategory", true, "articleCategories"},
		{"Patient", true, "patients"},
		{"SiteTemplate", false, "siteTemplate"},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, RelationFieldName(tt.model, tt.list))
		})
	}
}

func TestIndentLines(t *testing.T) {
	got := IndentLines("a\n\n  b", "    ")
	assert.Equal(t, "    a\n\n      b", got)
}
