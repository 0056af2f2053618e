package models

import "fmt"

// TenantFieldSpec is the shape injected into every tenant-owned model.
type TenantFieldSpec struct {
	FieldName    string
	FieldType    string
	RelationName string
	ParentModel  string
	ParentKey    string
	OnDelete     string
}

func DefaultTenantFieldSpec() TenantFieldSpec {
	return TenantFieldSpec{
		FieldName:    "tenantId",
		FieldType:    "String",
		RelationName: "tenant",
		ParentModel:  "Tenant",
		ParentKey:    "id",
		OnDelete:     "Cascade",
	}
}

// FieldLine renders "  tenantId    String", aligned like hand-written models.
func (s TenantFieldSpec) FieldLine() string {
	return fmt.Sprintf("  %-11s %s", s.FieldName, s.FieldType)
}

// RelationLine renders the ownership relation declaration.
func (s TenantFieldSpec) RelationLine() string {
	return fmt.Sprintf("  %-11s %s %s", s.RelationName, s.ParentModel, s.RelationAttribute())
}

func (s TenantFieldSpec) RelationAttribute() string {
	attr := fmt.Sprintf("@relation(fields: [%s], references: [%s]", s.FieldName, s.ParentKey)
	if s.OnDelete != "" {
		attr += ", onDelete: " + s.OnDelete
	}
	return attr + ")"
}

// IndexLine renders the dedicated lookup index.
func (s TenantFieldSpec) IndexLine() string {
	return "  " + s.IndexSignature()
}

// RelationSignature identifies an existing ownership relation.
func (s TenantFieldSpec) RelationSignature() string {
	return fmt.Sprintf("@relation(fields: [%s]", s.FieldName)
}

// IndexSignature identifies an existing lookup index.
func (s TenantFieldSpec) IndexSignature() string {
	return fmt.Sprintf("@@index([%s])", s.FieldName)
}
