package engine

import (
	"sort"

	"fitarc/backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResolvedElement is one entry of a day's final element list after overrides
// have been applied to the baseline.
type ResolvedElement struct {
	ID        ElementID          `json:"id"`
	CatalogID primitive.ObjectID `json:"catalogId"`
	Position  int                `json:"position"`
	Sets      *int               `json:"sets,omitempty"`
	Reps      *int               `json:"reps,omitempty"`
	Quantity  *float64           `json:"quantity,omitempty"`
	Unit      string             `json:"unit,omitempty"`
	Notes     string             `json:"notes,omitempty"`

	// FromOverride marks elements whose content came from an override row
	// (replace payload or bare addition) rather than the template.
	FromOverride bool `json:"fromOverride"`

	// TemplateElementID is set for baseline-backed elements so a later commit
	// can diff against the right baseline entry.
	TemplateElementID *primitive.ObjectID `json:"templateElementId,omitempty"`
}

// Resolve applies a day's overrides to its freshly materialized baseline and
// returns the final ordered element list.
//
// Keyed overrides (those referencing a template-element id) win at most once
// per key; writers clear prior rows for the date before inserting, so the
// last active row per key is authoritative. Bare additions are appended with
// override-backed identifiers. Inactive rows are ignored entirely.
//
// Resolution is idempotent: recomputing baseline + overrides without an
// intervening write yields identical output.
func Resolve(baseline []VirtualElement, overrides []domain.Override) []ResolvedElement {
	keyed := make(map[primitive.ObjectID]domain.Override)
	var additions []domain.Override
	for _, ov := range overrides {
		if !ov.IsActive {
			continue
		}
		if ov.TemplateElementID != nil {
			// Later rows supersede earlier ones for the same key.
			keyed[*ov.TemplateElementID] = ov
		} else if ov.Action == domain.OverrideAdd {
			additions = append(additions, ov)
		}
	}

	resolved := make([]ResolvedElement, 0, len(baseline)+len(additions))
	for _, base := range baseline {
		ov, ok := keyed[base.TemplateElementID]
		if !ok {
			resolved = append(resolved, baselineElement(base))
			continue
		}
		switch ov.Action {
		case domain.OverrideRemove:
			// Dropped from the day.
		case domain.OverrideReplace:
			resolved = append(resolved, replaceElement(base, ov))
		default:
			// A keyed add makes no sense against an existing baseline
			// element; keep the baseline untouched.
			resolved = append(resolved, baselineElement(base))
		}
	}

	for _, ov := range additions {
		if ov.Payload == nil {
			continue
		}
		el := ResolvedElement{
			ID:           NewOverrideElementID(ov.ID),
			CatalogID:    ov.Payload.CatalogID,
			Sets:         ov.Payload.Sets,
			Reps:         ov.Payload.Reps,
			Quantity:     ov.Payload.Quantity,
			Unit:         ov.Payload.Unit,
			Notes:        ov.Payload.Notes,
			FromOverride: true,
		}
		if ov.Payload.Position != nil {
			el.Position = *ov.Payload.Position
		}
		resolved = append(resolved, el)
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].Position < resolved[j].Position
	})
	return resolved
}

func baselineElement(base VirtualElement) ResolvedElement {
	teID := base.TemplateElementID
	return ResolvedElement{
		ID:                base.ID,
		CatalogID:         base.CatalogID,
		Position:          base.Position,
		Sets:              base.Sets,
		Reps:              base.Reps,
		Quantity:          base.Quantity,
		Unit:              base.Unit,
		Notes:             base.Notes,
		TemplateElementID: &teID,
	}
}

// replaceElement substitutes override payload fields, falling back to the
// baseline for anything the payload leaves unset. The baseline's virtual
// identifier is kept so the element stays addressable across re-resolution.
func replaceElement(base VirtualElement, ov domain.Override) ResolvedElement {
	el := baselineElement(base)
	el.FromOverride = true
	p := ov.Payload
	if p == nil {
		return el
	}
	if p.CatalogID != primitive.NilObjectID {
		el.CatalogID = p.CatalogID
	}
	if p.Sets != nil {
		el.Sets = p.Sets
	}
	if p.Reps != nil {
		el.Reps = p.Reps
	}
	if p.Quantity != nil {
		el.Quantity = p.Quantity
	}
	if p.Unit != "" {
		el.Unit = p.Unit
	}
	if p.Position != nil {
		el.Position = *p.Position
	}
	if p.Notes != "" {
		el.Notes = p.Notes
	}
	return el
}
