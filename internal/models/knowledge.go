// Package models defines the domain types for muninn: knowledge units,
// inbox items, and their enumerations.
package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// KnowledgeType classifies a knowledge unit.
type KnowledgeType string

const (
	TypeConcept  KnowledgeType = "concept"
	TypePattern  KnowledgeType = "pattern"
	TypeDecision KnowledgeType = "decision"
	TypeBug      KnowledgeType = "bug"
	TypeBelief   KnowledgeType = "belief"
)

// UnmarshalYAML rejects unknown knowledge types so a bad enum value surfaces
// as a decode failure rather than silently passing through.
func (k *KnowledgeType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch t := KnowledgeType(s); t {
	case TypeConcept, TypePattern, TypeDecision, TypeBug, TypeBelief:
		*k = t
		return nil
	default:
		return fmt.Errorf("unknown knowledge type %q", s)
	}
}

// CaptureMethod records how an inbox item entered the brain.
type CaptureMethod string

const (
	MethodClipboardURL  CaptureMethod = "clipboard-url"
	MethodClipboardText CaptureMethod = "clipboard-text"
	MethodAISession     CaptureMethod = "ai-session"
	MethodWebCapture    CaptureMethod = "web-capture"
	MethodManual        CaptureMethod = "manual"
	MethodImport        CaptureMethod = "import"
)

// UnmarshalYAML rejects unknown capture methods.
func (m *CaptureMethod) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch c := CaptureMethod(s); c {
	case MethodClipboardURL, MethodClipboardText, MethodAISession,
		MethodWebCapture, MethodManual, MethodImport:
		*m = c
		return nil
	default:
		return fmt.Errorf("unknown capture method %q", s)
	}
}

// RelationKind names the edge type between two knowledge units.
type RelationKind string

const (
	RelUses                    RelationKind = "uses"
	RelImplements              RelationKind = "implements"
	RelRequiresUnderstandingOf RelationKind = "requires_understanding_of"
	RelInformedBy              RelationKind = "informed_by"
	RelOftenCombinedWith       RelationKind = "often_combined_with"
)

// UnmarshalYAML rejects unknown relation kinds.
func (r *RelationKind) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch k := RelationKind(s); k {
	case RelUses, RelImplements, RelRequiresUnderstandingOf,
		RelInformedBy, RelOftenCombinedWith:
		*r = k
		return nil
	default:
		return fmt.Errorf("unknown relation kind %q", s)
	}
}

// Relation is a directed edge to another knowledge unit.
type Relation struct {
	TargetID string       `yaml:"target_id"`
	Kind     RelationKind `yaml:"kind"`
}

// Confidence is a trust score clamped to [0.0, 1.0].
type Confidence float64

// Default confidence per record kind. An automatically captured candidate is
// less trusted than a filed, reviewed unit, so the defaults differ and are
// applied by the decode call site, never by the codec.
const (
	DefaultUnitConfidence Confidence = 0.8
	DefaultItemConfidence Confidence = 0.7
)

// NewConfidence clamps v into [0.0, 1.0].
func NewConfidence(v float64) Confidence {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return Confidence(v)
}

// UnmarshalYAML decodes and clamps.
func (c *Confidence) UnmarshalYAML(value *yaml.Node) error {
	var f float64
	if err := value.Decode(&f); err != nil {
		return err
	}
	*c = NewConfidence(f)
	return nil
}

// KnowledgeUnit is a filed, accepted piece of knowledge. The body is not part
// of the frontmatter; the codec handles it separately.
type KnowledgeUnit struct {
	ID         string        `yaml:"id"`
	Kind       KnowledgeType `yaml:"type"`
	Domain     string        `yaml:"domain"`
	Tags       []string      `yaml:"tags"`
	Confidence Confidence    `yaml:"confidence"`
	Source     string        `yaml:"source,omitempty"`
	Related    []Relation    `yaml:"related,omitempty"`

	Body string `yaml:"-"`
}

// Validate checks the fields required of every filed unit.
func (u *KnowledgeUnit) Validate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.ID, validation.Required),
		validation.Field(&u.Kind, validation.Required),
		validation.Field(&u.Domain, validation.Required),
	)
}

// InboxItem is a candidate knowledge unit awaiting review.
type InboxItem struct {
	ID              string        `yaml:"id"`
	Kind            KnowledgeType `yaml:"type"`
	Tags            []string      `yaml:"tags"`
	Confidence      Confidence    `yaml:"confidence"`
	Source          string        `yaml:"source,omitempty"`
	Related         []Relation    `yaml:"related"`
	SuggestedDomain string        `yaml:"suggested_domain"`
	SuggestedPath   string        `yaml:"suggested_path,omitempty"`
	CapturedAt      time.Time     `yaml:"captured_at"`
	CaptureMethod   CaptureMethod `yaml:"capture_method"`
	CaptureContext  string        `yaml:"capture_context,omitempty"`

	Body string `yaml:"-"`
}

// Validate checks the fields required of every inbox candidate.
func (i *InboxItem) Validate() error {
	return validation.ValidateStruct(i,
		validation.Field(&i.ID, validation.Required),
		validation.Field(&i.Kind, validation.Required),
		validation.Field(&i.SuggestedDomain, validation.Required),
		validation.Field(&i.CaptureMethod, validation.Required),
	)
}

// NewInboxItem constructs a candidate with a fresh ID, a UTC capture time,
// and the default candidate confidence.
func NewInboxItem(kind KnowledgeType, domain string, method CaptureMethod, body string) InboxItem {
	return InboxItem{
		ID:              uuid.NewString(),
		Kind:            kind,
		Confidence:      DefaultItemConfidence,
		SuggestedDomain: domain,
		CapturedAt:      time.Now().UTC(),
		CaptureMethod:   method,
		Body:            body,
	}
}

// ToKnowledgeUnit converts an accepted candidate into a filed unit under the
// given domain. Capture bookkeeping is dropped; everything else carries over.
func (i *InboxItem) ToKnowledgeUnit(domain string) KnowledgeUnit {
	return KnowledgeUnit{
		ID:         i.ID,
		Kind:       i.Kind,
		Domain:     domain,
		Tags:       i.Tags,
		Confidence: i.Confidence,
		Source:     i.Source,
		Related:    i.Related,
		Body:       i.Body,
	}
}
