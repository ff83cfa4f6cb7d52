package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EquipmentLevel is the fixed ordinal scale of available equipment.
type EquipmentLevel string

const (
	EquipmentBodyweight EquipmentLevel = "bodyweight"
	EquipmentDumbbells  EquipmentLevel = "dumbbells"
	EquipmentFullGym    EquipmentLevel = "full_gym"
)

// ExperienceLevel is the fixed ordinal scale of training experience.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// TrainingSplit names the tag rotation a user trains on.
type TrainingSplit string

const (
	SplitFullBody     TrainingSplit = "full_body"
	SplitUpperLower   TrainingSplit = "upper_lower"
	SplitPushPullLegs TrainingSplit = "push_pull_legs"
)

// EatingMode selects the meal-template variant for a day.
type EatingMode string

const (
	EatingModeDefault     EatingMode = "default"
	EatingModeTrainingDay EatingMode = "training_day"
)

// User represents an account plus the profile the plan engine selects against.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Selector profile ---
	// These drive cadence scheduling and template selection.
	Goal        string          `bson:"goal,omitempty" json:"goal,omitempty"` // e.g., "strength", "fat_loss"
	Equipment   EquipmentLevel  `bson:"equipment,omitempty" json:"equipment,omitempty"`
	Experience  ExperienceLevel `bson:"experience,omitempty" json:"experience,omitempty"`
	Split       TrainingSplit   `bson:"split,omitempty" json:"split,omitempty"`
	CadenceDays int             `bson:"cadenceDays,omitempty" json:"cadenceDays,omitempty"` // Active training days per week (3-6)
	EatingMode  EatingMode      `bson:"eatingMode,omitempty" json:"eatingMode,omitempty"`
}
