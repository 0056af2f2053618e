package migrator

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/tristendillon/tenantize/core/classifier"
	"github.com/tristendillon/tenantize/core/config"
	"github.com/tristendillon/tenantize/core/logger"
	"github.com/tristendillon/tenantize/core/models"
	"github.com/tristendillon/tenantize/core/rewriter"
	"github.com/tristendillon/tenantize/core/schema"
	"github.com/tristendillon/tenantize/core/template_engine"
	"github.com/tristendillon/tenantize/core/walker"
)

type Options struct {
	// DryRun computes every change but writes nothing.
	DryRun bool
	// Diff prints a unified diff of every changed file to Output.
	Diff   bool
	Output io.Writer
}

// RouteTarget is one handler file, relative to the routes root.
type RouteTarget struct {
	Path  string
	Label string
}

type Migrator struct {
	wd         string
	cfg        *config.Config
	opts       Options
	engine     *template_engine.TemplateEngine
	classifier *classifier.Classifier
	rewriter   *rewriter.Rewriter
	Walker     *walker.RouteWalker
}

func NewMigrator(wd string, cfg *config.Config, opts Options) *Migrator {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	engine := template_engine.NewTemplateEngine()
	return &Migrator{
		wd:         wd,
		cfg:        cfg,
		opts:       opts,
		engine:     engine,
		classifier: classifier.NewClassifier(cfg.Routes.Auth),
		rewriter:   rewriter.NewRewriter(cfg.Routes.Auth, cfg.TenantSpec(), engine),
		Walker:     walker.NewRouteWalker(cfg.Routes),
	}
}

func (m *Migrator) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.wd, path)
}

func (m *Migrator) routesRoot() string {
	return m.resolve(m.cfg.Routes.Root)
}

// Validate checks that every embedded snippet template parses.
func (m *Migrator) Validate() error {
	if err := m.engine.ValidateTemplates(); err != nil {
		return fmt.Errorf("invalid templates: %w", err)
	}
	return nil
}

// Run migrates the schema, then the route targets. An unreadable schema
// input stops the run before any route is touched.
func (m *Migrator) Run(targets []RouteTarget) ([]models.Outcome, error) {
	outcomes, err := m.MigrateSchema()
	if err != nil {
		return outcomes, err
	}
	return append(outcomes, m.MigrateRoutes(targets)...), nil
}

// MigrateSchema augments the schema input and writes the result to the
// configured output. Only a read failure on the input is returned as an
// error; everything else is reported through the outcomes.
func (m *Migrator) MigrateSchema() ([]models.Outcome, error) {
	input := m.resolve(m.cfg.Schema.Input)
	output := m.resolve(m.cfg.Schema.Output)

	src, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w: %w", m.cfg.Schema.Input, models.ErrFatalIO, err)
	}
	text := string(src)
	logger.Info("Read schema %s (%s)", m.cfg.Schema.Input, humanize.Bytes(uint64(len(src))))

	augmentor := schema.NewAugmentor(m.cfg.Schema, m.cfg.TenantSpec(), m.engine)
	result := augmentor.Augment(text)

	if err := m.commit(m.cfg.Schema.Output, output, text, result.Text); err != nil {
		logger.Error("Failed to write schema %s: %v", m.cfg.Schema.Output, err)
		for i := range result.Outcomes {
			if result.Outcomes[i].Changed() {
				result.Outcomes[i].Status = models.StatusFailed
				result.Outcomes[i].Reason = err.Error()
			}
		}
		return result.Outcomes, nil
	}

	if !m.opts.DryRun {
		logger.Info("Wrote schema %s (%s)", m.cfg.Schema.Output, humanize.Bytes(uint64(len(result.Text))))
	}
	return result.Outcomes, nil
}

// RouteTargets picks the handler files to migrate: a single file when given,
// every discovered file with all, the configured list otherwise.
func (m *Migrator) RouteTargets(file, label string, all bool) ([]RouteTarget, error) {
	switch {
	case file != "":
		return []RouteTarget{{Path: filepath.ToSlash(file), Label: label}}, nil
	case all:
		tree, err := m.Scan()
		if err != nil {
			return nil, err
		}
		targets := make([]RouteTarget, 0, len(tree.Routes))
		for _, rf := range tree.Routes {
			targets = append(targets, RouteTarget{Path: rf.RelPath, Label: rf.Label})
		}
		return targets, nil
	default:
		targets := make([]RouteTarget, 0, len(m.cfg.Routes.Files))
		for _, entry := range m.cfg.Routes.Files {
			targets = append(targets, RouteTarget{Path: entry.Path, Label: entry.Label})
		}
		return targets, nil
	}
}

// Scan discovers and classifies handler files without changing anything.
func (m *Migrator) Scan() (*models.RouteTree, error) {
	if err := m.Walker.Walk(m.routesRoot()); err != nil {
		return nil, fmt.Errorf("failed to walk routes: %w", err)
	}
	return m.Walker.RouteTree, nil
}

// MigrateRoutes rewrites the targets in order. Each target gets exactly one
// outcome and a failing target never stops the others.
func (m *Migrator) MigrateRoutes(targets []RouteTarget) []models.Outcome {
	outcomes := make([]models.Outcome, 0, len(targets))
	for _, target := range targets {
		outcome := m.migrateRoute(target)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (m *Migrator) migrateRoute(target RouteTarget) models.Outcome {
	outcome := models.Outcome{Target: target.Path, Kind: models.KindRoute, Label: target.Label}

	path := target.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.routesRoot(), filepath.FromSlash(target.Path))
	}

	rf, err := m.classifier.ParseRoute(path, target.Path, target.Label)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %w", models.ErrNotFound, err)
		}
		outcome.Status = models.StatusFromError(err)
		outcome.Reason = err.Error()
		logger.Warn("Route %s: %v", target.Path, err)
		return outcome
	}
	outcome.Label = rf.Label
	outcome.BeforeHash = models.Fingerprint(rf.Content)

	switch rf.State {
	case models.StateAlreadyMigrated, models.StateSkipped:
		outcome.Status = models.StatusSkipped
		outcome.Reason = rf.Reason
		logger.Info("Skipping %s: %s", target.Path, rf.Reason)
		return outcome
	}

	rewrite, err := m.rewriter.Rewrite(rf)
	if err != nil {
		rf.Fail(err.Error())
		outcome.Status = models.StatusFromError(err)
		outcome.Reason = err.Error()
		logger.Error("Failed to migrate %s: %v", target.Path, err)
		return outcome
	}

	if err := m.commit(target.Path, path, rf.Content, rewrite.Content); err != nil {
		rf.Fail(err.Error())
		outcome.Status = models.StatusFailed
		outcome.Reason = err.Error()
		logger.Error("Failed to write %s: %v", target.Path, err)
		return outcome
	}

	rf.Content = rewrite.Content
	rf.State = models.StateMigrated
	outcome.Status = models.StatusModified
	outcome.Steps = rewrite.Steps
	outcome.Notes = rewrite.Notes
	outcome.AfterHash = models.Fingerprint(rewrite.Content)

	for _, note := range rewrite.Notes {
		logger.Warn("%s: %s", rf.Label, note)
	}
	logger.Info("Migrated %s (%s)", rf.Label, target.Path)
	return outcome
}

// commit writes after to path unless running dry. With diffs enabled the
// change is printed either way.
func (m *Migrator) commit(name, path, before, after string) error {
	if m.opts.Diff {
		if err := writeDiff(m.opts.Output, name, before, after); err != nil {
			return err
		}
	}
	if m.opts.DryRun {
		logger.Info("[dry-run] Would write %s (%s)", name, humanize.Bytes(uint64(len(after))))
		return nil
	}
	return writeAtomic(path, after)
}
