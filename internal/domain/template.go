package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateKind distinguishes workout templates from meal templates.
type TemplateKind string

const (
	TemplateKindWorkout TemplateKind = "workout"
	TemplateKindMeal    TemplateKind = "meal"
)

// Template is a reusable prescription of ordered elements.
// Templates are authored data; the plan engine never mutates them.
type Template struct {
	ID      primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OwnerID *primitive.ObjectID `bson:"ownerId,omitempty" json:"ownerId,omitempty"` // nil means public/system template
	Kind    TemplateKind        `bson:"kind" json:"kind"`
	Title   string              `bson:"title" json:"title"`

	Goals []string `bson:"goals,omitempty" json:"goals,omitempty"` // e.g., "strength", "fat_loss"
	Tags  []string `bson:"tags,omitempty" json:"tags,omitempty"`   // day-kind tags: "push", "upper", "training_day", ...

	// Equipment and Difficulty scope workout templates only; empty means
	// unscoped and always compatible.
	Equipment  EquipmentLevel  `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Difficulty ExperienceLevel `bson:"difficulty,omitempty" json:"difficulty,omitempty"`

	Elements []TemplateElement `bson:"elements" json:"elements"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TemplateElement is one prescribed item within a template: an exercise for
// workout templates, a food entry for meal templates. Its ID is stable within
// the template and is what overrides key on.
type TemplateElement struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	CatalogID primitive.ObjectID `bson:"catalogId" json:"catalogId"` // exercise or food catalog entity
	Position  int                `bson:"position" json:"position"`   // display order within the template

	// Quantitative defaults. Pointers distinguish "unset" from zero.
	Sets     *int     `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps     *int     `bson:"reps,omitempty" json:"reps,omitempty"`
	Quantity *float64 `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Unit     string   `bson:"unit,omitempty" json:"unit,omitempty"` // e.g., "g", "ml", "kcal"
	Notes    string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// HasTag reports whether the template carries the given day-kind tag.
func (t *Template) HasTag(tag string) bool {
	for _, tt := range t.Tags {
		if tt == tag {
			return true
		}
	}
	return false
}

// HasGoal reports whether the template targets the given goal.
func (t *Template) HasGoal(goal string) bool {
	for _, g := range t.Goals {
		if g == goal {
			return true
		}
	}
	return false
}
