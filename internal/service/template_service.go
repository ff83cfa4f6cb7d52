package service

import (
	"context"
	"errors"

	"fitarc/backend/internal/domain"
	"fitarc/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrTemplateNotFound   = errors.New("template not found")
	ErrTemplateValidation = errors.New("template validation failed")
)

// --- Service Interface ---

type TemplateService interface {
	// CreateTemplate stores a user-authored template. OwnerID is always the
	// authenticated user; public templates are seeded out of band.
	CreateTemplate(ctx context.Context, userID primitive.ObjectID, template *domain.Template) (*domain.Template, error)
	// ListVisible returns the selection pool for a user and kind.
	ListVisible(ctx context.Context, userID primitive.ObjectID, kind domain.TemplateKind) ([]domain.Template, error)
	GetTemplate(ctx context.Context, id primitive.ObjectID) (*domain.Template, error)
}

// --- Service Implementation ---

type templateService struct {
	templateRepo repository.TemplateRepository
}

// NewTemplateService creates a new instance of templateService.
func NewTemplateService(templateRepo repository.TemplateRepository) TemplateService {
	return &templateService{templateRepo: templateRepo}
}

func (s *templateService) CreateTemplate(ctx context.Context, userID primitive.ObjectID, template *domain.Template) (*domain.Template, error) {
	if template.Title == "" || template.Kind == "" {
		return nil, ErrTemplateValidation
	}
	for _, el := range template.Elements {
		// Every element must point at a concrete catalog entity.
		if el.CatalogID == primitive.NilObjectID {
			return nil, ErrTemplateValidation
		}
	}
	owner := userID
	template.OwnerID = &owner

	templateID, err := s.templateRepo.Create(ctx, template)
	if err != nil {
		return nil, err
	}
	template.ID = templateID
	return template, nil
}

func (s *templateService) ListVisible(ctx context.Context, userID primitive.ObjectID, kind domain.TemplateKind) ([]domain.Template, error) {
	if kind == "" {
		kind = domain.TemplateKindWorkout
	}
	return s.templateRepo.GetVisibleToUser(ctx, userID, kind)
}

func (s *templateService) GetTemplate(ctx context.Context, id primitive.ObjectID) (*domain.Template, error) {
	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return template, nil
}
