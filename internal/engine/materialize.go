package engine

import (
	"sort"
	"time"

	"fitarc/backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VirtualElement is a read-time projection of one template element onto a
// concrete plan and date. It is never persisted; its identifier encodes where
// it came from so overrides and removals can address it later.
type VirtualElement struct {
	ID                ElementID
	TemplateElementID primitive.ObjectID
	CatalogID         primitive.ObjectID
	Position          int
	Sets              *int
	Reps              *int
	Quantity          *float64
	Unit              string
	Notes             string
}

// Materialize projects a template onto (planID, date), emitting one virtual
// element per template element in display order. The result is recomputed on
// every read; templates and pinning can change between calls, so nothing
// here may be cached across requests.
func Materialize(template *domain.Template, planID primitive.ObjectID, date time.Time) []VirtualElement {
	if template == nil {
		return nil
	}

	elements := make([]domain.TemplateElement, len(template.Elements))
	copy(elements, template.Elements)
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Position < elements[j].Position
	})

	baseline := make([]VirtualElement, 0, len(elements))
	for _, el := range elements {
		baseline = append(baseline, VirtualElement{
			ID:                NewTemplateElementID(planID, date, el.ID),
			TemplateElementID: el.ID,
			CatalogID:         el.CatalogID,
			Position:          el.Position,
			Sets:              el.Sets,
			Reps:              el.Reps,
			Quantity:          el.Quantity,
			Unit:              el.Unit,
			Notes:             el.Notes,
		})
	}
	return baseline
}
