package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/tristendillon/tenantize/core/logger"
	"github.com/tristendillon/tenantize/core/models"
	"gopkg.in/yaml.v3"
)

const (
	configName = "tenantize"
	configType = "yaml"

	// FileName is what `tenantize init` writes and Load looks for.
	FileName = "tenantize.yaml"
)

type Config struct {
	Schema Schema `yaml:"schema" mapstructure:"schema"`
	Routes Routes `yaml:"routes" mapstructure:"routes"`
	Tenant Tenant `yaml:"tenant" mapstructure:"tenant"`
}

type Schema struct {
	Input   string        `yaml:"input" mapstructure:"input"`
	Output  string        `yaml:"output" mapstructure:"output"`
	Anchor  string        `yaml:"anchor" mapstructure:"anchor"`
	Targets []string      `yaml:"targets" mapstructure:"targets"`
	Legacy  []LegacyModel `yaml:"legacy" mapstructure:"legacy"`
}

// LegacyModel is a model that already carried a single-instance marker field
// which gets renamed to the tenant field.
type LegacyModel struct {
	Name           string `yaml:"name" mapstructure:"name"`
	Field          string `yaml:"field" mapstructure:"field"`
	Default        string `yaml:"default" mapstructure:"default"`
	RelationBefore string `yaml:"relation_before,omitempty" mapstructure:"relation_before"`
}

type Routes struct {
	Root     string       `yaml:"root" mapstructure:"root"`
	Files    []RouteEntry `yaml:"files" mapstructure:"files"`
	Discover string       `yaml:"discover" mapstructure:"discover"`
	Exclude  []string     `yaml:"exclude" mapstructure:"exclude"`
	Auth     Auth         `yaml:"auth" mapstructure:"auth"`
}

type RouteEntry struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Label string `yaml:"label" mapstructure:"label"`
}

// Auth names the identifiers swapped by the route rewriter.
type Auth struct {
	LegacyCall    string `yaml:"legacy_call" mapstructure:"legacy_call"`
	LegacyModule  string `yaml:"legacy_module" mapstructure:"legacy_module"`
	Call          string `yaml:"call" mapstructure:"call"`
	Module        string `yaml:"module" mapstructure:"module"`
	ContextModule string `yaml:"context_module" mapstructure:"context_module"`
	Marker        string `yaml:"marker" mapstructure:"marker"`
}

type Tenant struct {
	Field       string `yaml:"field" mapstructure:"field"`
	Type        string `yaml:"type" mapstructure:"type"`
	Relation    string `yaml:"relation" mapstructure:"relation"`
	ParentModel string `yaml:"parent_model" mapstructure:"parent_model"`
	ParentKey   string `yaml:"parent_key" mapstructure:"parent_key"`
	OnDelete    string `yaml:"on_delete" mapstructure:"on_delete"`
}

var defaultTargets = []string{
	"BeautyTreatment",
	"BeautyAppointment",
	"WellnessCourse",
	"WellnessCoach",
	"WellnessBooking",
	"Product",
	"Order",
	"OrderItem",
	"Article",
	"ArticleCategory",
	"Author",
	"MenuItem",
	"RestaurantReservation",
	"RestaurantTable",
	"Project",
	"TeamMember",
	"Patient",
	"Therapist",
	"ConsultationAppointment",
	"ServiceClient",
	"ServiceProject",
	"Quote",
	"Invoice",
	"GalleryItem",
}

var defaultRouteFiles = []RouteEntry{
	{"src/app/api/admin/projets/route.ts", "PROJETS CORPORATE"},
	{"src/app/api/admin/projets/[id]/route.ts", "PROJET INDIVIDUEL"},
	{"src/app/api/admin/equipe/route.ts", "ÉQUIPE"},
	{"src/app/api/admin/equipe/[id]/route.ts", "MEMBRE ÉQUIPE"},
	{"src/app/api/admin/produits/[id]/route.ts", "PRODUIT INDIVIDUEL"},
	{"src/app/api/admin/commandes/route.ts", "COMMANDES"},
	{"src/app/api/admin/commandes/[id]/route.ts", "COMMANDE INDIVIDUELLE"},
	{"src/app/api/admin/articles/route.ts", "ARTICLES"},
	{"src/app/api/admin/articles/[id]/route.ts", "ARTICLE INDIVIDUEL"},
	{"src/app/api/admin/categories/route.ts", "CATÉGORIES"},
	{"src/app/api/admin/auteurs/route.ts", "AUTEURS"},
	{"src/app/api/admin/menu/route.ts", "MENU"},
	{"src/app/api/admin/tables/route.ts", "TABLES"},
	{"src/app/api/admin/cours/route.ts", "COURS"},
	{"src/app/api/admin/coaches/route.ts", "COACHES"},
	{"src/app/api/admin/patients/route.ts", "PATIENTS"},
	{"src/app/api/admin/therapeutes/route.ts", "THÉRAPEUTES"},
	{"src/app/api/admin/devis/route.ts", "DEVIS"},
	{"src/app/api/admin/facturation/route.ts", "FACTURATION"},
	{"src/app/api/admin/galerie/route.ts", "GALERIE"},
}

var defaultExclude = []string{
	"node_modules",
	".next",
	"-refactored",
	"-migrated",
	"-old",
	".backup",
}

func defaultLegacy() []LegacyModel {
	return []LegacyModel{
		{Name: "SiteTemplate", Field: "siteId", Default: "main", RelationBefore: "template"},
		{Name: "TemplateCustomization", Field: "siteId", Default: "main"},
	}
}

func Default() *Config {
	return &Config{
		Schema: Schema{
			Input:   "prisma/schema.prisma",
			Output:  "prisma/schema-multi-tenant.prisma",
			Anchor:  "TemplateCategory",
			Targets: append([]string(nil), defaultTargets...),
			Legacy:  defaultLegacy(),
		},
		Routes: Routes{
			Root:     ".",
			Files:    append([]RouteEntry(nil), defaultRouteFiles...),
			Discover: "src/app/api/admin/**/route.ts",
			Exclude:  append([]string(nil), defaultExclude...),
			Auth: Auth{
				LegacyCall:    "ensureAdmin",
				LegacyModule:  "@/lib/auth",
				Call:          "ensureAuthenticated",
				Module:        "@/lib/tenant-auth",
				ContextModule: "@/middleware/tenant-context",
				Marker:        "Multi-tenant ready",
			},
		},
		Tenant: Tenant{
			Field:       "tenantId",
			Type:        "String",
			Relation:    "tenant",
			ParentModel: "Tenant",
			ParentKey:   "id",
			OnDelete:    "Cascade",
		},
	}
}

// Load reads configuration from path, or from tenantize.yaml in the working
// directory when path is empty. A missing default file is not an error.
// Values from a .env file and TENANTIZE_* variables override the file.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType(configType)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine working dir: %w", err)
		}
		v.SetConfigName(configName)
		v.AddConfigPath(wd)
	}

	for key, env := range map[string]string{
		"schema.input":  "TENANTIZE_SCHEMA_INPUT",
		"schema.output": "TENANTIZE_SCHEMA_OUTPUT",
		"routes.root":   "TENANTIZE_ROUTES_ROOT",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		logger.Debug("No config file found, using default config")
	} else {
		logger.Debug("Config file found: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(&cfg)
	logger.Debug("Config: %+v", cfg)

	return &cfg, nil
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	logger.Debug("Loaded environment from .env")
	return nil
}

// applyDefaults fills every unset value. Lists are replaced wholesale, never
// merged, so a configured target list fully overrides the default one.
func applyDefaults(cfg *Config) {
	def := Default()

	setString(&cfg.Schema.Input, def.Schema.Input)
	setString(&cfg.Schema.Output, def.Schema.Output)
	setString(&cfg.Schema.Anchor, def.Schema.Anchor)
	if len(cfg.Schema.Targets) == 0 {
		cfg.Schema.Targets = def.Schema.Targets
	}
	if cfg.Schema.Legacy == nil {
		cfg.Schema.Legacy = def.Schema.Legacy
	}

	setString(&cfg.Routes.Root, def.Routes.Root)
	setString(&cfg.Routes.Discover, def.Routes.Discover)
	if cfg.Routes.Files == nil {
		cfg.Routes.Files = def.Routes.Files
	}
	if cfg.Routes.Exclude == nil {
		cfg.Routes.Exclude = def.Routes.Exclude
	}

	auth, defAuth := &cfg.Routes.Auth, def.Routes.Auth
	setString(&auth.LegacyCall, defAuth.LegacyCall)
	setString(&auth.LegacyModule, defAuth.LegacyModule)
	setString(&auth.Call, defAuth.Call)
	setString(&auth.Module, defAuth.Module)
	setString(&auth.ContextModule, defAuth.ContextModule)
	setString(&auth.Marker, defAuth.Marker)

	t, defTenant := &cfg.Tenant, def.Tenant
	setString(&t.Field, defTenant.Field)
	setString(&t.Type, defTenant.Type)
	setString(&t.Relation, defTenant.Relation)
	setString(&t.ParentModel, defTenant.ParentModel)
	setString(&t.ParentKey, defTenant.ParentKey)
	setString(&t.OnDelete, defTenant.OnDelete)
}

func setString(target *string, fallback string) {
	if *target == "" {
		*target = fallback
	}
}

// Validate rejects configurations that would overwrite the schema input or
// produce unusable tenant lines.
func (c *Config) Validate() error {
	if c.Schema.Input == "" {
		return fmt.Errorf("schema.input must be set")
	}
	if c.Schema.Output == "" {
		return fmt.Errorf("schema.output must be set")
	}
	in, err := filepath.Abs(c.Schema.Input)
	if err != nil {
		return fmt.Errorf("resolve schema.input: %w", err)
	}
	out, err := filepath.Abs(c.Schema.Output)
	if err != nil {
		return fmt.Errorf("resolve schema.output: %w", err)
	}
	if in == out {
		return fmt.Errorf("schema.output must differ from schema.input (%s)", c.Schema.Input)
	}
	if c.Tenant.Field == "" {
		return fmt.Errorf("tenant.field must be set")
	}
	targets := make(map[string]bool, len(c.Schema.Targets))
	for _, name := range c.Schema.Targets {
		targets[name] = true
	}
	for _, legacy := range c.Schema.Legacy {
		if legacy.Name == "" || legacy.Field == "" {
			return fmt.Errorf("schema.legacy entries need a name and a field")
		}
		if targets[legacy.Name] {
			return fmt.Errorf("model %s is listed both as a target and as a legacy model", legacy.Name)
		}
	}
	return nil
}

// TenantSpec converts the tenant section into the injected field shape.
func (c *Config) TenantSpec() models.TenantFieldSpec {
	return models.TenantFieldSpec{
		FieldName:    c.Tenant.Field,
		FieldType:    c.Tenant.Type,
		RelationName: c.Tenant.Relation,
		ParentModel:  c.Tenant.ParentModel,
		ParentKey:    c.Tenant.ParentKey,
		OnDelete:     c.Tenant.OnDelete,
	}
}

// Write serialises cfg as yaml to path.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
