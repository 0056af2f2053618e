package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tristendillon/tenantize/core/config"
	"github.com/tristendillon/tenantize/core/models"
)

const handler = `import { ensureAdmin } from "@/lib/auth";

export async function GET(request: Request) {
  return Response.json([]);
}
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalkDiscoversMatchingHandlers(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app/api/admin/projets/route.ts", handler)
	writeFile(t, root, "src/app/api/admin/projets/[id]/route.ts", handler)
	writeFile(t, root, "src/app/api/admin/(shop)/produits/route.ts", handler)
	writeFile(t, root, "src/app/api/admin/menu/route-refactored.ts", handler)
	writeFile(t, root, "src/app/api/admin/menu-old/route.ts", handler)
	writeFile(t, root, "src/app/api/public/route.ts", handler)
	writeFile(t, root, "node_modules/pkg/src/app/api/admin/x/route.ts", handler)

	w := NewRouteWalker(config.Default().Routes)
	require.NoError(t, w.Walk(root))

	var paths []string
	for _, rf := range w.RouteTree.Routes {
		paths = append(paths, rf.RelPath)
	}
	assert.ElementsMatch(t, []string{
		"src/app/api/admin/projets/route.ts",
		"src/app/api/admin/projets/[id]/route.ts",
		"src/app/api/admin/(shop)/produits/route.ts",
	}, paths)

	for _, rf := range w.RouteTree.Routes {
		assert.Equal(t, models.StateUnmigrated, rf.State)
		if rf.RelPath == "src/app/api/admin/projets/[id]/route.ts" {
			assert.True(t, rf.ParamRoute)
			assert.Equal(t, "id", rf.ParamName)
			assert.Equal(t, "PROJETS DETAIL", rf.Label)
		}
	}
}

func TestWalkRecordsUnreadableHandler(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app/api/admin/menu/route.ts", handler)
	broken := filepath.Join(root, "src", "app", "api", "admin", "stock", "route.ts")
	require.NoError(t, os.MkdirAll(filepath.Dir(broken), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing.ts"), broken))

	w := NewRouteWalker(config.Default().Routes)
	require.NoError(t, w.Walk(root))
	require.Len(t, w.RouteTree.Routes, 2)

	states := make(map[string]models.MigrationState)
	for _, rf := range w.RouteTree.Routes {
		states[rf.RelPath] = rf.State
	}
	assert.Equal(t, models.StateUnmigrated, states["src/app/api/admin/menu/route.ts"])
	assert.Equal(t, models.StateFailed, states["src/app/api/admin/stock/route.ts"])
}

func TestWalkResetsBetweenRuns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app/api/admin/menu/route.ts", handler)

	w := NewRouteWalker(config.Default().Routes)
	require.NoError(t, w.Walk(root))
	require.NoError(t, w.Walk(root))
	assert.Len(t, w.RouteTree.Routes, 1)
}

func TestWalkMissingRoot(t *testing.T) {
	w := NewRouteWalker(config.Default().Routes)
	err := w.Walk(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestExcluded(t *testing.T) {
	w := NewRouteWalker(config.Default().Routes)
	assert.True(t, w.Excluded("src/app/api/admin/menu/route.backup.ts"))
	assert.True(t, w.Excluded(".next/server/app/api/route.ts"))
	assert.False(t, w.Excluded("src/app/api/admin/menu/route.ts"))
}
