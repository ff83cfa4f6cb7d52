package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OverrideAction type for per-day customization records.
type OverrideAction string

const (
	OverrideAdd     OverrideAction = "add"     // append an element not present in the baseline
	OverrideRemove  OverrideAction = "remove"  // drop a baseline element
	OverrideReplace OverrideAction = "replace" // substitute a baseline element's fields
)

// Override is a persisted customization scoped to (user, plan, date).
// It layers onto the freshly materialized baseline for that date and never
// outlives its scope. TemplateElementID is nil for bare additions.
type Override struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"userId" json:"userId"`
	PlanID primitive.ObjectID `bson:"planId" json:"planId"`
	Date   string             `bson:"date" json:"date"` // canonical "2006-01-02" day key

	TemplateElementID *primitive.ObjectID `bson:"templateElementId,omitempty" json:"templateElementId,omitempty"`
	Action            OverrideAction      `bson:"action" json:"action"`
	Payload           *OverridePayload    `bson:"payload,omitempty" json:"payload,omitempty"` // required for add/replace
	IsActive          bool                `bson:"isActive" json:"isActive"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
}

// OverridePayload carries the replacement/addition fields. For a replace,
// nil fields fall back to the baseline element's values at resolution time.
type OverridePayload struct {
	CatalogID primitive.ObjectID `bson:"catalogId" json:"catalogId"`
	Sets      *int               `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps      *int               `bson:"reps,omitempty" json:"reps,omitempty"`
	Quantity  *float64           `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Unit      string             `bson:"unit,omitempty" json:"unit,omitempty"`
	Position  *int               `bson:"position,omitempty" json:"position,omitempty"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
}
