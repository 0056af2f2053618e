package models

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantFieldSpecLines(t *testing.T) {
	spec := DefaultTenantFieldSpec()

	assert.Equal(t, "  tenantId    String", spec.FieldLine())
	assert.Equal(t, "  tenant      Tenant @relation(fields: [tenantId], references: [id], onDelete: Cascade)", spec.RelationLine())
	assert.Equal(t, "  @@index([tenantId])", spec.IndexLine())

	spec.OnDelete = ""
	assert.Equal(t, "@relation(fields: [tenantId], references: [id])", spec.RelationAttribute())
}

func TestNewModelDefinitionSplitsLines(t *testing.T) {
	raw := "model Order {\n  id       String @id\n  // comment\n  tenantId String\n\n  @@index([status])\n}"
	def := NewModelDefinition(BlockModel, "Order", raw, Span{0, len(raw)}, "tenantId")

	assert.Equal(t, []string{"  id       String @id", "  tenantId String"}, def.FieldLines)
	assert.Equal(t, []string{"  @@index([status])"}, def.AnnotationLines)
	assert.True(t, def.HasTenantField)
	assert.False(t, def.Ambiguous())
}

func TestHasTenantFieldNeedsDeclaration(t *testing.T) {
	raw := "model Order {\n  id String @id\n  @@index([tenantId])\n}"
	def := NewModelDefinition(BlockModel, "Order", raw, Span{0, len(raw)}, "tenantId")
	assert.False(t, def.HasTenantField)
}

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want Status
	}{
		{nil, StatusModified},
		{fmt.Errorf("model Order: %w", ErrNotFound), StatusNotFound},
		{fmt.Errorf("wrap: %w", ErrAlreadyMigrated), StatusSkipped},
		{fmt.Errorf("wrap: %w", ErrAmbiguous), StatusAmbiguous},
		{fmt.Errorf("disk full"), StatusFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFromError(tt.err))
	}
}

func TestStatusJSON(t *testing.T) {
	data, err := json.Marshal(Outcome{Target: "Order", Kind: KindSchemaModel, Status: StatusNotFound})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"not-found"`)

	var out Outcome
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, StatusNotFound, out.Status)

	var bad Status
	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &bad))
}

func TestParseSegment(t *testing.T) {
	tests := []struct {
		folder  string
		param   bool
		group   bool
		name    string
		apiName string
	}{
		{"projets", false, false, "", "projets"},
		{"[id]", true, false, "id", ":id"},
		{"[...slug]", true, false, "slug", ":slug"},
		{"[[...slug]]", true, false, "slug", ":slug"},
		{"(admin)", false, true, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.folder, func(t *testing.T) {
			seg := ParseSegment(tt.folder)
			assert.Equal(t, tt.param, seg.IsParam)
			assert.Equal(t, tt.group, seg.IsGroup)
			assert.Equal(t, tt.name, seg.ParamName)
			assert.Equal(t, tt.apiName, seg.APIName)
		})
	}
}

func TestRoutePathHelpers(t *testing.T) {
	rel := "src/app/api/admin/projets/[id]/route.ts"

	assert.Equal(t, "/api/admin/projets/[id]", APIPath(rel))
	assert.Equal(t, "/api/admin/commandes", APIPath("src/app/(dashboard)/api/admin/commandes/route.ts"))

	param, ok := LastParam(rel)
	assert.True(t, ok)
	assert.Equal(t, "id", param)

	_, ok = LastParam("src/app/api/admin/projets/route.ts")
	assert.False(t, ok)

	assert.Equal(t, "PROJETS DETAIL", DeriveLabel(rel))
	assert.Equal(t, "PLANNING BEAUTE", DeriveLabel("src/app/api/admin/planning-beaute/route.ts"))
}

func TestRouteTreeAddRoute(t *testing.T) {
	tree := NewRouteTree()
	list := &RouteFile{RelPath: "api/admin/projets/route.ts"}
	detail := &RouteFile{RelPath: "api/admin/projets/[id]/route.ts"}

	tree.AddRoute(list)
	tree.AddRoute(detail)

	require.Len(t, tree.Routes, 2)
	projets := tree.Root.Children["api"].Children["admin"].Children["projets"]
	require.NotNil(t, projets)
	assert.Same(t, list, projets.File)
	assert.Equal(t, "/api/admin/projets", projets.FullPath)

	idNode := projets.Children["[id]"]
	require.NotNil(t, idNode)
	assert.Same(t, detail, idNode.File)
	assert.Equal(t, "/api/admin/projets/:id", idNode.FullPath)
	assert.True(t, idNode.Segment.IsParam)

	tree.Reset()
	assert.Empty(t, tree.Routes)
}

func TestRouteFileMethods(t *testing.T) {
	rf := &RouteFile{Handlers: []Handler{{Method: MethodPost}, {Method: MethodGet}, {Method: MethodPost}}}
	assert.Equal(t, []Method{MethodGet, MethodPost}, rf.Methods())

	assert.Equal(t, RoleReadList, MethodGet.Role(false))
	assert.Equal(t, RoleReadOne, MethodGet.Role(true))
	assert.Equal(t, RoleUpdate, MethodPatch.Role(true))

	rf.Fail("boom")
	assert.Equal(t, StateFailed, rf.State)
	assert.Equal(t, "failed", rf.State.String())
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", Fingerprint(""))
	assert.NotEqual(t, Fingerprint("a"), Fingerprint("b"))
}
