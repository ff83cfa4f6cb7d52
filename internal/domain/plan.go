package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanKind distinguishes a training arc from its meal-planning twin.
type PlanKind string

const (
	PlanKindWorkout PlanKind = "workout"
	PlanKindMeal    PlanKind = "meal"
)

// Plan represents a user's active training or eating arc.
// StartDate is immutable once the plan is created; the schedule and all
// virtual element identifiers are anchored to it.
type Plan struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Kind      PlanKind           `bson:"kind" json:"kind"`
	Title     string             `bson:"title" json:"title"` // e.g., "Spring Cut"
	StartDate time.Time          `bson:"startDate" json:"startDate"`
	Goal      string             `bson:"goal,omitempty" json:"goal,omitempty"`

	// PinnedTemplates maps a day-kind tag to the template id frozen for it.
	// Written once when matching is finalized, never auto-refreshed.
	PinnedTemplates map[string]primitive.ObjectID `bson:"pinnedTemplates,omitempty" json:"pinnedTemplates,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
