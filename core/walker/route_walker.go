package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/tristendillon/tenantize/core/classifier"
	"github.com/tristendillon/tenantize/core/config"
	"github.com/tristendillon/tenantize/core/logger"
	"github.com/tristendillon/tenantize/core/models"
)

type RouteWalker struct {
	RouteTree  *models.RouteTree
	Pattern    string
	Exclude    []string
	classifier *classifier.Classifier
}

func NewRouteWalker(routes config.Routes) *RouteWalker {
	return &RouteWalker{
		RouteTree:  models.NewRouteTree(),
		Pattern:    routes.Discover,
		Exclude:    routes.Exclude,
		classifier: classifier.NewClassifier(routes.Auth),
	}
}

// Excluded reports whether relPath contains one of the exclude fragments.
func (w *RouteWalker) Excluded(relPath string) bool {
	for _, ex := range w.Exclude {
		if ex != "" && strings.Contains(relPath, ex) {
			return true
		}
	}
	return false
}

// Walk registers every handler file under root that matches the discovery
// pattern. The tree is reset first so a walker can be reused.
func (w *RouteWalker) Walk(root string) error {
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("routes root %s: %w", root, models.ErrNotFound)
		}
		return fmt.Errorf("routes root %s: %w", root, err)
	}

	w.RouteTree.Reset()

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if w.Excluded(relPath) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		matched, err := doublestar.Match(w.Pattern, relPath)
		if err != nil {
			return fmt.Errorf("invalid discovery pattern %q: %w", w.Pattern, err)
		}
		if !matched {
			return nil
		}

		rf, err := w.classifier.ParseRoute(path, relPath, "")
		if err != nil {
			logger.Warn("Route %s not readable: %v", relPath, err)
			rf = &models.RouteFile{Path: path, RelPath: relPath, Label: models.DeriveLabel(relPath)}
			rf.Fail(err.Error())
		}

		w.RouteTree.AddRoute(rf)
		logger.Debug("Registered route: %s (methods: %v)", relPath, rf.Methods())
		return nil
	})
}
