package migrator

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tristendillon/tenantize/core/config"
	"github.com/tristendillon/tenantize/core/models"
	"github.com/tristendillon/tenantize/core/schema"
)

const schemaFixture = `generator client {
  provider = "prisma-client-js"
}

enum TemplateCategory {
  RESTAURANT
  BEAUTY
}

model Order {
  id        String   @id @default(cuid())
  status    String
  createdAt DateTime @default(now())

  @@index([status])
}

model Author {
  id   String @id @default(cuid())
  name String
}
`

const unmigratedRoute = `import { NextRequest, NextResponse } from "next/server";
import { prisma } from "@/lib/prisma";
import { ensureAdmin } from "@/lib/auth";

export async function POST(request: NextRequest) {
  try {
    const authResult = await ensureAdmin(request);
    if (authResult instanceof NextResponse) return authResult;

    const data = await request.json();
    const order = await prisma.order.create({ data });
    return NextResponse.json({ success: true, data: order }, { status: 201 });
  } catch (error) {
    console.error("Erreur POST commande:", error);
    return NextResponse.json({ error: "Erreur" }, { status: 500 });
  }
}
`

const migratedRoute = `// Multi-tenant ready ✅
import { ensureAuthenticated } from "@/lib/tenant-auth";

export async function GET(request: Request) {
  return Response.json([]);
}
`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Schema.Targets = []string{"Order", "Author", "Ghost"}
	cfg.Schema.Legacy = []config.LegacyModel{}
	return cfg
}

func writeFixture(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func statuses(outcomes []models.Outcome) map[string]models.Status {
	out := make(map[string]models.Status, len(outcomes))
	for _, o := range outcomes {
		out[o.Target] = o.Status
	}
	return out
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NewMigrator(t.TempDir(), testConfig(), Options{}).Validate())
}

func TestMigrateSchemaWritesOutput(t *testing.T) {
	wd := t.TempDir()
	input := writeFixture(t, wd, "prisma/schema.prisma", schemaFixture)

	m := NewMigrator(wd, testConfig(), Options{})
	outcomes, err := m.MigrateSchema()
	require.NoError(t, err)

	assert.Equal(t, map[string]models.Status{
		"Tenant": models.StatusCreated,
		"Order":  models.StatusModified,
		"Author": models.StatusModified,
		"Ghost":  models.StatusNotFound,
	}, statuses(outcomes))

	out := readFile(t, filepath.Join(wd, "prisma/schema-multi-tenant.prisma"))
	assert.Contains(t, out, "model Tenant {")
	for _, name := range []string{"Order", "Author"} {
		def, err := schema.Locate(out, models.BlockModel, name, "tenantId")
		require.NoError(t, err)
		assert.True(t, def.HasTenantField, name)
		assert.Contains(t, def.RawText, "@@index([tenantId])", name)
	}
	assert.Equal(t, schemaFixture, readFile(t, input))
}

func TestMigrateSchemaIsIdempotent(t *testing.T) {
	wd := t.TempDir()
	writeFixture(t, wd, "prisma/schema.prisma", schemaFixture)

	cfg := testConfig()
	_, err := NewMigrator(wd, cfg, Options{}).MigrateSchema()
	require.NoError(t, err)
	first := readFile(t, filepath.Join(wd, cfg.Schema.Output))

	cfg.Schema.Input = cfg.Schema.Output
	cfg.Schema.Output = "prisma/schema-second.prisma"
	outcomes, err := NewMigrator(wd, cfg, Options{}).MigrateSchema()
	require.NoError(t, err)

	assert.Equal(t, first, readFile(t, filepath.Join(wd, cfg.Schema.Output)))
	for _, o := range outcomes {
		assert.False(t, o.Changed(), "%s changed on the second pass", o.Target)
	}
}

func TestMigrateSchemaMissingInput(t *testing.T) {
	wd := t.TempDir()
	writeFixture(t, wd, "src/app/api/admin/commandes/route.ts", unmigratedRoute)

	m := NewMigrator(wd, testConfig(), Options{})
	_, err := m.MigrateSchema()
	assert.ErrorIs(t, err, models.ErrFatalIO)

	outcomes, err := m.Run([]RouteTarget{{Path: "src/app/api/admin/commandes/route.ts"}})
	assert.ErrorIs(t, err, models.ErrFatalIO)
	assert.Empty(t, outcomes)
	assert.Equal(t, unmigratedRoute, readFile(t, filepath.Join(wd, "src/app/api/admin/commandes/route.ts")))
}

func TestDryRunWritesNothing(t *testing.T) {
	wd := t.TempDir()
	writeFixture(t, wd, "prisma/schema.prisma", schemaFixture)
	route := writeFixture(t, wd, "src/app/api/admin/commandes/route.ts", unmigratedRoute)

	var diff bytes.Buffer
	m := NewMigrator(wd, testConfig(), Options{DryRun: true, Diff: true, Output: &diff})
	outcomes, err := m.Run([]RouteTarget{{Path: "src/app/api/admin/commandes/route.ts", Label: "COMMANDES"}})
	require.NoError(t, err)

	assert.Equal(t, models.StatusModified, statuses(outcomes)["src/app/api/admin/commandes/route.ts"])
	assert.NoFileExists(t, filepath.Join(wd, "prisma/schema-multi-tenant.prisma"))
	assert.Equal(t, unmigratedRoute, readFile(t, route))

	assert.Contains(t, diff.String(), "+++ b/prisma/schema-multi-tenant.prisma")
	assert.Contains(t, diff.String(), "+++ b/src/app/api/admin/commandes/route.ts")
	assert.Contains(t, diff.String(), "+    const order = await prisma.order.create({ data: { ...data, tenantId } });")
}

func TestMigrateRoutes(t *testing.T) {
	wd := t.TempDir()
	created := writeFixture(t, wd, "src/app/api/admin/commandes/route.ts", unmigratedRoute)
	writeFixture(t, wd, "src/app/api/admin/menu/route.ts", migratedRoute)
	writeFixture(t, wd, "src/app/api/admin/empty/route.ts", "export const dynamic = \"force-dynamic\";\n")

	targets := []RouteTarget{
		{Path: "src/app/api/admin/commandes/route.ts", Label: "COMMANDES"},
		{Path: "src/app/api/admin/menu/route.ts", Label: "MENU"},
		{Path: "src/app/api/admin/empty/route.ts"},
		{Path: "src/app/api/admin/galerie/route.ts", Label: "GALERIE"},
	}

	m := NewMigrator(wd, testConfig(), Options{})
	outcomes := m.MigrateRoutes(targets)
	require.Len(t, outcomes, len(targets))

	assert.Equal(t, models.StatusModified, outcomes[0].Status)
	assert.Equal(t, []string{"auth-call", "require-tenant", "stamp-create", "tag-errors", "imports", "header"}, outcomes[0].Steps)
	assert.NotEqual(t, outcomes[0].BeforeHash, outcomes[0].AfterHash)
	assert.Equal(t, models.StatusSkipped, outcomes[1].Status)
	assert.Equal(t, "already migrated", outcomes[1].Reason)
	assert.Equal(t, models.StatusSkipped, outcomes[2].Status)
	assert.Equal(t, "EMPTY", outcomes[2].Label)
	assert.Equal(t, models.StatusNotFound, outcomes[3].Status)

	migrated := readFile(t, created)
	assert.Contains(t, migrated, "prisma.order.create({ data: { ...data, tenantId } })")
	assert.True(t, strings.HasPrefix(migrated, "/**\n * API: COMMANDES\n"))

	again := m.MigrateRoutes(targets[:1])
	assert.Equal(t, models.StatusSkipped, again[0].Status)
	assert.Equal(t, migrated, readFile(t, created))
	assert.Equal(t, outcomes[0].AfterHash, again[0].BeforeHash)
}

func TestRouteTargets(t *testing.T) {
	wd := t.TempDir()
	writeFixture(t, wd, "src/app/api/admin/projets/route.ts", unmigratedRoute)
	writeFixture(t, wd, "src/app/api/admin/projets/[id]/route.ts", unmigratedRoute)

	m := NewMigrator(wd, testConfig(), Options{})

	single, err := m.RouteTargets("src/app/api/admin/projets/route.ts", "PROJETS", false)
	require.NoError(t, err)
	assert.Equal(t, []RouteTarget{{Path: "src/app/api/admin/projets/route.ts", Label: "PROJETS"}}, single)

	all, err := m.RouteTargets("", "", true)
	require.NoError(t, err)
	assert.ElementsMatch(t, []RouteTarget{
		{Path: "src/app/api/admin/projets/route.ts", Label: "PROJETS"},
		{Path: "src/app/api/admin/projets/[id]/route.ts", Label: "PROJETS DETAIL"},
	}, all)

	configured, err := m.RouteTargets("", "", false)
	require.NoError(t, err)
	assert.Len(t, configured, len(config.Default().Routes.Files))
	assert.Equal(t, RouteTarget{Path: "src/app/api/admin/projets/route.ts", Label: "PROJETS CORPORATE"}, configured[0])
}

func TestWriteAtomicKeepsMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "route.ts")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

	require.NoError(t, writeAtomic(path, "new"))
	assert.Equal(t, "new", readFile(t, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteDiffSkipsUnchanged(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeDiff(&buf, "x.ts", "same\n", "same\n"))
	assert.Empty(t, buf.String())
}
