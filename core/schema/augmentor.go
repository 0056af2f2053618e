package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tristendillon/tenantize/core/config"
	"github.com/tristendillon/tenantize/core/logger"
	"github.com/tristendillon/tenantize/core/models"
	"github.com/tristendillon/tenantize/core/shared"
	"github.com/tristendillon/tenantize/core/template_engine"
)

// templateModel is linked from the owner record when the schema defines it.
const templateModel = "Template"

type Relation struct {
	Field string
	Model string
}

// DefinitionsData feeds the definitions template.
type DefinitionsData struct {
	Owner           string
	Member          string
	Role            string
	TemplateModel   string
	Tenant          models.TenantFieldSpec
	ListRelations   []Relation
	SingleRelations []Relation
}

// Result is the rewritten schema and one outcome per target, in the order
// the targets were processed.
type Result struct {
	Text     string
	Outcomes []models.Outcome
}

type Augmentor struct {
	cfg    config.Schema
	spec   models.TenantFieldSpec
	engine *template_engine.TemplateEngine
}

func NewAugmentor(cfg config.Schema, spec models.TenantFieldSpec, engine *template_engine.TemplateEngine) *Augmentor {
	return &Augmentor{cfg: cfg, spec: spec, engine: engine}
}

// Augment runs the three phases in order. Every phase is idempotent, so
// Augment(Augment(x).Text).Text == Augment(x).Text.
func (a *Augmentor) Augment(text string) Result {
	var result Result

	text, outcome := a.insertDefinitions(text)
	result.Outcomes = append(result.Outcomes, outcome)

	for _, name := range a.cfg.Targets {
		text, outcome = a.injectModel(text, name)
		result.Outcomes = append(result.Outcomes, outcome)
	}

	for _, legacy := range a.cfg.Legacy {
		text, outcome = a.renameLegacy(text, legacy)
		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.Text = text
	return result
}

func (a *Augmentor) insertDefinitions(text string) (string, models.Outcome) {
	owner := a.spec.ParentModel
	outcome := models.Outcome{Target: owner, Kind: models.KindSchemaDefinitions}

	if Defined(text, models.BlockModel, owner) {
		outcome.Status = models.StatusSkipped
		outcome.Reason = fmt.Sprintf("model %s already defined", owner)
		logger.Debug("Definitions: %s", outcome.Reason)
		return text, outcome
	}

	anchor, err := Locate(text, models.BlockEnum, a.cfg.Anchor, "")
	if err != nil {
		outcome.Status = models.StatusFromError(err)
		outcome.Reason = fmt.Sprintf("anchor %s", err)
		logger.Warn("Definitions not inserted: anchor enum %s not found", a.cfg.Anchor)
		return text, outcome
	}

	rendered, err := a.engine.Render(template_engine.TEMPLATES.Definitions, a.definitionsData(text))
	if err != nil {
		outcome.Status = models.StatusFailed
		outcome.Reason = err.Error()
		logger.Error("Definitions not inserted: %v", err)
		return text, outcome
	}

	insertion := "\n\n" + strings.TrimSpace(rendered)
	outcome.Status = models.StatusCreated
	outcome.Steps = []string{"definitions"}
	outcome.AfterHash = models.Fingerprint(insertion)
	if anchor.Ambiguous() {
		err := fmt.Errorf("anchor enum %s found %d times, inserted after the first: %w", a.cfg.Anchor, len(anchor.Duplicates)+1, models.ErrAmbiguous)
		outcome.Status = models.StatusFromError(err)
		outcome.Reason = err.Error()
		logger.Warn("%s", outcome.Reason)
	}
	logger.Info("Inserted %s definitions after enum %s", owner, a.cfg.Anchor)

	return text[:anchor.Span.End] + insertion + text[anchor.Span.End:], outcome
}

func (a *Augmentor) definitionsData(text string) DefinitionsData {
	owner := a.spec.ParentModel
	data := DefinitionsData{
		Owner:  owner,
		Member: owner + "User",
		Role:   owner + "UserRole",
		Tenant: a.spec,
	}
	if Defined(text, models.BlockModel, templateModel) {
		data.TemplateModel = templateModel
	}

	for _, legacy := range a.cfg.Legacy {
		def, err := Locate(text, models.BlockModel, legacy.Name, a.spec.FieldName)
		if err != nil || !(def.HasTenantField || HasLegacyField(def, legacy)) {
			continue
		}
		if LegacyFieldUnique(def, legacy) {
			data.SingleRelations = append(data.SingleRelations, Relation{Field: shared.RelationFieldName(legacy.Name, false), Model: legacy.Name})
		} else {
			data.ListRelations = append(data.ListRelations, Relation{Field: shared.RelationFieldName(legacy.Name, true), Model: legacy.Name})
		}
	}

	for _, name := range a.cfg.Targets {
		if !Defined(text, models.BlockModel, name) {
			continue
		}
		data.ListRelations = append(data.ListRelations, Relation{Field: shared.RelationFieldName(name, true), Model: name})
	}
	return data
}

func (a *Augmentor) injectModel(text, name string) (string, models.Outcome) {
	outcome := models.Outcome{Target: name, Kind: models.KindSchemaModel}

	def, err := Locate(text, models.BlockModel, name, a.spec.FieldName)
	if err != nil {
		outcome.Status = models.StatusFromError(err)
		outcome.Reason = err.Error()
		logger.Warn("Model %s not found", name)
		return text, outcome
	}
	outcome.BeforeHash = models.Fingerprint(def.RawText)

	injection, err := InjectTenantField(def, a.spec)
	if err != nil {
		outcome.Status = models.StatusFromError(err)
		outcome.Reason = err.Error()
		logger.Debug("Model %s skipped: %v", name, err)
		return text, outcome
	}

	outcome.Steps = injection.Steps
	outcome.Notes = injection.Notes
	outcome.AfterHash = models.Fingerprint(injection.Text)
	outcome.Status = models.StatusModified
	if len(injection.Steps) == 0 {
		outcome.Status = models.StatusSkipped
		outcome.Reason = "nothing to insert"
	}
	if def.Ambiguous() {
		err := fmt.Errorf("model %s found %d times, only the first was changed: %w", name, len(def.Duplicates)+1, models.ErrAmbiguous)
		outcome.Status = models.StatusFromError(err)
		outcome.Reason = err.Error()
		logger.Warn("%s", outcome.Reason)
	}
	for _, note := range injection.Notes {
		logger.Warn("Model %s: %s", name, note)
	}
	logger.Info("Model %s: %s", name, strings.Join(injection.Steps, ", "))

	return Replace(text, def.Span, injection.Text), outcome
}

func (a *Augmentor) renameLegacy(text string, legacy config.LegacyModel) (string, models.Outcome) {
	outcome := models.Outcome{Target: legacy.Name, Kind: models.KindSchemaLegacy}

	def, err := Locate(text, models.BlockModel, legacy.Name, a.spec.FieldName)
	if err != nil {
		outcome.Status = models.StatusFromError(err)
		outcome.Reason = err.Error()
		logger.Warn("Legacy model %s not found", legacy.Name)
		return text, outcome
	}
	outcome.BeforeHash = models.Fingerprint(def.RawText)

	injection, err := RenameLegacyField(def, legacy, a.spec)
	if err != nil {
		outcome.Status = models.StatusFromError(err)
		outcome.Reason = err.Error()
		if errors.Is(err, models.ErrNotFound) {
			logger.Warn("Legacy model %s: %v", legacy.Name, err)
		}
		return text, outcome
	}

	outcome.Status = models.StatusModified
	outcome.Steps = injection.Steps
	outcome.AfterHash = models.Fingerprint(injection.Text)
	if def.Ambiguous() {
		err := fmt.Errorf("model %s found %d times, only the first was changed: %w", legacy.Name, len(def.Duplicates)+1, models.ErrAmbiguous)
		outcome.Status = models.StatusFromError(err)
		outcome.Reason = err.Error()
		logger.Warn("%s", outcome.Reason)
	}
	logger.Info("Legacy model %s: %s renamed to %s", legacy.Name, legacy.Field, a.spec.FieldName)

	return Replace(text, def.Span, injection.Text), outcome
}
