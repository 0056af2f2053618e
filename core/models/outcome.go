package models

import (
	"encoding/json"
	"fmt"
)

type Status int

const (
	StatusCreated Status = iota
	StatusModified
	StatusSkipped
	StatusNotFound
	StatusAmbiguous
	StatusFailed
)

// AllStatuses is the order used when printing aggregate counts.
var AllStatuses = []Status{
	StatusCreated,
	StatusModified,
	StatusSkipped,
	StatusNotFound,
	StatusAmbiguous,
	StatusFailed,
}

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusModified:
		return "modified"
	case StatusSkipped:
		return "skipped"
	case StatusNotFound:
		return "not-found"
	case StatusAmbiguous:
		return "ambiguous"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for _, candidate := range AllStatuses {
		if candidate.String() == name {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", name)
}

type TargetKind string

const (
	KindSchemaDefinitions TargetKind = "schema-definitions"
	KindSchemaModel       TargetKind = "schema-model"
	KindSchemaLegacy      TargetKind = "schema-legacy"
	KindRoute             TargetKind = "route"
)

// Outcome is the report record for one transformation target.
type Outcome struct {
	Target     string     `json:"target"`
	Kind       TargetKind `json:"kind"`
	Label      string     `json:"label,omitempty"`
	Status     Status     `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	Steps      []string   `json:"steps,omitempty"`
	Notes      []string   `json:"notes,omitempty"`
	BeforeHash string     `json:"before_hash,omitempty"`
	AfterHash  string     `json:"after_hash,omitempty"`
}

// Changed reports whether the target's text was rewritten.
func (o Outcome) Changed() bool {
	return o.Status == StatusCreated || o.Status == StatusModified ||
		(o.Status == StatusAmbiguous && len(o.Steps) > 0)
}
