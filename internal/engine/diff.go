package engine

import (
	"errors"
	"fmt"

	"fitarc/backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrMissingCatalogRef rejects a desired element that does not resolve to a
// concrete catalog entity. Overrides must always reference one, so the whole
// commit is refused before anything is written.
var ErrMissingCatalogRef = errors.New("desired element is missing a catalog reference")

// DesiredElement is one entry of the final list a user wants for a day.
// TemplateElementID, when set, declares which baseline element this entry
// was derived from; nil means a brand-new addition.
type DesiredElement struct {
	TemplateElementID *primitive.ObjectID
	CatalogID         primitive.ObjectID
	Position          int
	Sets              *int
	Reps              *int
	Quantity          *float64
	Unit              string
	Notes             string
}

// DiffDay computes the minimal override set that reproduces the desired list
// on top of the baseline:
//
//   - a desired element identical to its baseline source stages nothing,
//     keeping the override set minimal and leaving future template edits
//     visible;
//   - a desired element differing from its source stages a replace keyed to
//     the source template-element id;
//   - a desired element with no source stages a bare add;
//   - every baseline element missing from the desired sources stages a
//     remove, since the user explicitly dropped it.
//
// A desired element repeating an already-claimed source id is staged as a
// bare add, since a key can carry at most one override. The returned rows
// have scope fields (user, plan, date, id) unset; the writer fills those in
// before the delete-then-insert commit.
func DiffDay(baseline []VirtualElement, desired []DesiredElement) ([]domain.Override, error) {
	for i, d := range desired {
		if d.CatalogID == primitive.NilObjectID {
			return nil, fmt.Errorf("%w (element %d)", ErrMissingCatalogRef, i)
		}
	}

	byElementID := make(map[primitive.ObjectID]VirtualElement, len(baseline))
	for _, base := range baseline {
		byElementID[base.TemplateElementID] = base
	}

	var staged []domain.Override
	claimed := make(map[primitive.ObjectID]bool)

	for _, d := range desired {
		if d.TemplateElementID != nil && !claimed[*d.TemplateElementID] {
			base, ok := byElementID[*d.TemplateElementID]
			if ok {
				claimed[*d.TemplateElementID] = true
				if desiredMatchesBaseline(base, d) {
					continue // baseline already shows exactly this
				}
				key := *d.TemplateElementID
				staged = append(staged, domain.Override{
					TemplateElementID: &key,
					Action:            domain.OverrideReplace,
					Payload:           payloadFrom(d),
					IsActive:          true,
				})
				continue
			}
			// Source id not in the baseline (stale client state); treat the
			// entry as a plain addition below.
		}
		staged = append(staged, domain.Override{
			Action:   domain.OverrideAdd,
			Payload:  payloadFrom(d),
			IsActive: true,
		})
	}

	for _, base := range baseline {
		if !claimed[base.TemplateElementID] {
			key := base.TemplateElementID
			staged = append(staged, domain.Override{
				TemplateElementID: &key,
				Action:            domain.OverrideRemove,
				IsActive:          true,
			})
		}
	}

	return staged, nil
}

// desiredMatchesBaseline compares every user-visible field.
func desiredMatchesBaseline(base VirtualElement, d DesiredElement) bool {
	return base.CatalogID == d.CatalogID &&
		base.Position == d.Position &&
		intPtrEqual(base.Sets, d.Sets) &&
		intPtrEqual(base.Reps, d.Reps) &&
		floatPtrEqual(base.Quantity, d.Quantity) &&
		base.Unit == d.Unit &&
		base.Notes == d.Notes
}

func payloadFrom(d DesiredElement) *domain.OverridePayload {
	pos := d.Position
	return &domain.OverridePayload{
		CatalogID: d.CatalogID,
		Sets:      d.Sets,
		Reps:      d.Reps,
		Quantity:  d.Quantity,
		Unit:      d.Unit,
		Position:  &pos,
		Notes:     d.Notes,
	}
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
