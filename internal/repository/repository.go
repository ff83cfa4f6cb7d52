package repository

import (
	"context"
	"time"

	"fitarc/backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
}

// PlanRepository defines the interface for interacting with plan data.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error)
	// SetPinnedTemplates persists the frozen tag -> template map for a plan.
	SetPinnedTemplates(ctx context.Context, planID primitive.ObjectID, pinned map[string]primitive.ObjectID) error
}

// TemplateRepository defines the interface for the template catalog source.
type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Template, error)
	// GetVisibleToUser returns public templates plus the user's own, with
	// nested elements, as a single bulk read.
	GetVisibleToUser(ctx context.Context, userID primitive.ObjectID, kind domain.TemplateKind) ([]domain.Template, error)
}

// OverrideRepository defines the interface for the per-day override store.
type OverrideRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Override, error)
	// GetForDay returns the active overrides scoped to (user, plan, date).
	GetForDay(ctx context.Context, userID, planID primitive.ObjectID, date string) ([]domain.Override, error)
	// ReplaceForDay atomically swaps the full override set for (user, plan,
	// date): delete everything, insert the staged rows. Last writer wins.
	ReplaceForDay(ctx context.Context, userID, planID primitive.ObjectID, date string, overrides []domain.Override) error
	Create(ctx context.Context, override *domain.Override) (primitive.ObjectID, error)
	// Deactivate flips is_active off for a single override row.
	Deactivate(ctx context.Context, id primitive.ObjectID) error
	// DeactivateForTemplateElement retires any prior override keyed to a
	// template element for the day, so a fresh row stays the only active one.
	DeactivateForTemplateElement(ctx context.Context, userID, planID primitive.ObjectID, date string, templateElementID primitive.ObjectID) error
}

// CheckinRepository defines the interface for photo check-in metadata.
type CheckinRepository interface {
	Create(ctx context.Context, checkin *domain.Checkin) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Checkin, error)
	GetByUserAndRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time) ([]domain.Checkin, error)
}
