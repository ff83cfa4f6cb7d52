package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ElementIDKind tags which variant of the identifier scheme an id belongs to.
type ElementIDKind int

const (
	// TemplateBacked identifies a virtual element projected from a template:
	// {plan id, date, template-element id}. Nothing is persisted under it.
	TemplateBacked ElementIDKind = iota
	// OverrideBacked identifies an element created by a bare `add` override:
	// {override id}. It stays addressable as long as the override row lives.
	OverrideBacked
)

const (
	templateIDPrefix = "tpl"
	overrideIDPrefix = "ovr"
	idSeparator      = ":"
)

// Parse errors. Parsing is total: every malformed input maps to one of these.
var (
	ErrMalformedElementID = errors.New("malformed element id")
	ErrUnknownIDPrefix    = errors.New("unknown element id prefix")
)

// ElementID is the composite identifier of a resolved element. It encodes
// provenance rather than pointing at a persisted row of its own.
type ElementID struct {
	Kind ElementIDKind

	// TemplateBacked fields
	PlanID            primitive.ObjectID
	Date              string // "2006-01-02"
	TemplateElementID primitive.ObjectID

	// OverrideBacked field
	OverrideID primitive.ObjectID
}

// NewTemplateElementID builds the identifier for a template-backed virtual
// element on a given plan and date.
func NewTemplateElementID(planID primitive.ObjectID, date time.Time, templateElementID primitive.ObjectID) ElementID {
	return ElementID{
		Kind:              TemplateBacked,
		PlanID:            planID,
		Date:              DayKey(date),
		TemplateElementID: templateElementID,
	}
}

// NewOverrideElementID builds the identifier for an element added by a bare
// override row.
func NewOverrideElementID(overrideID primitive.ObjectID) ElementID {
	return ElementID{Kind: OverrideBacked, OverrideID: overrideID}
}

// String encodes the identifier: "tpl:<plan>:<date>:<element>" or "ovr:<id>".
func (id ElementID) String() string {
	switch id.Kind {
	case OverrideBacked:
		return overrideIDPrefix + idSeparator + id.OverrideID.Hex()
	default:
		return strings.Join([]string{templateIDPrefix, id.PlanID.Hex(), id.Date, id.TemplateElementID.Hex()}, idSeparator)
	}
}

// MarshalJSON encodes the identifier as its string form.
func (id ElementID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// ParseElementID decodes an encoded element id back into its tagged form.
func ParseElementID(s string) (ElementID, error) {
	parts := strings.Split(s, idSeparator)
	switch parts[0] {
	case overrideIDPrefix:
		if len(parts) != 2 {
			return ElementID{}, fmt.Errorf("%w: %q", ErrMalformedElementID, s)
		}
		overrideID, err := primitive.ObjectIDFromHex(parts[1])
		if err != nil {
			return ElementID{}, fmt.Errorf("%w: bad override id in %q", ErrMalformedElementID, s)
		}
		return NewOverrideElementID(overrideID), nil

	case templateIDPrefix:
		if len(parts) != 4 {
			return ElementID{}, fmt.Errorf("%w: %q", ErrMalformedElementID, s)
		}
		planID, err := primitive.ObjectIDFromHex(parts[1])
		if err != nil {
			return ElementID{}, fmt.Errorf("%w: bad plan id in %q", ErrMalformedElementID, s)
		}
		date, err := time.Parse(DayKeyLayout, parts[2])
		if err != nil {
			return ElementID{}, fmt.Errorf("%w: bad date in %q", ErrMalformedElementID, s)
		}
		elementID, err := primitive.ObjectIDFromHex(parts[3])
		if err != nil {
			return ElementID{}, fmt.Errorf("%w: bad element id in %q", ErrMalformedElementID, s)
		}
		return NewTemplateElementID(planID, date, elementID), nil

	default:
		return ElementID{}, fmt.Errorf("%w: %q", ErrUnknownIDPrefix, s)
	}
}
