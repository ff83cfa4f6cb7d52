package service

import (
	"context"
	"errors"
	"time"

	"fitarc/backend/internal/domain"
	"fitarc/backend/internal/engine"
	"fitarc/backend/internal/repository"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Service Interface ---

// MealService is the meal-planning twin of PlanService. The tag space is
// simpler (a day is either a training_day or default eating day, with no
// rotation) and selection has no equipment/difficulty tiers. Override
// semantics, diffing, and resolution are identical to the workout side.
type MealService interface {
	CreateMealPlan(ctx context.Context, userID primitive.ObjectID, title string, startDate time.Time) (*domain.Plan, error)
	GetMealPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.Plan, error)

	// FetchMealRange returns one resolution per calendar date in range;
	// eating happens every day, the cadence only flips the variant tag.
	FetchMealRange(ctx context.Context, userID, planID primitive.ObjectID, startDate, endDate time.Time) ([]DayResolution, error)
	FetchResolvedForDate(ctx context.Context, userID, planID primitive.ObjectID, date time.Time) (*DayResolution, error)
	CommitDay(ctx context.Context, userID, planID primitive.ObjectID, date time.Time, desired []engine.DesiredElement) error
	// PinTemplate freezes the single pinned key for the user's eating mode.
	PinTemplate(ctx context.Context, userID, planID primitive.ObjectID) (map[string]primitive.ObjectID, error)
}

// --- Service Implementation ---

type mealService struct {
	planRepo     repository.PlanRepository
	templateRepo repository.TemplateRepository
	overrideRepo repository.OverrideRepository
	userRepo     repository.UserRepository
}

// NewMealService creates a new instance of mealService.
func NewMealService(
	planRepo repository.PlanRepository,
	templateRepo repository.TemplateRepository,
	overrideRepo repository.OverrideRepository,
	userRepo repository.UserRepository,
) MealService {
	return &mealService{
		planRepo:     planRepo,
		templateRepo: templateRepo,
		overrideRepo: overrideRepo,
		userRepo:     userRepo,
	}
}

func (s *mealService) CreateMealPlan(ctx context.Context, userID primitive.ObjectID, title string, startDate time.Time) (*domain.Plan, error) {
	if startDate.IsZero() {
		return nil, ErrInvalidStartDate
	}
	plan := &domain.Plan{
		UserID:    userID,
		Kind:      domain.PlanKindMeal,
		Title:     title,
		StartDate: startDate,
	}
	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

func (s *mealService) GetMealPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.Plan, error) {
	return s.planRepo.GetByUserID(ctx, userID, domain.PlanKindMeal)
}

func (s *mealService) loadOwnedPlan(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Plan, *domain.User, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrPlanNotFound
		}
		return nil, nil, err
	}
	if plan.UserID != userID {
		return nil, nil, ErrPlanAccessDenied
	}
	if plan.Kind != domain.PlanKindMeal {
		return nil, nil, ErrPlanKindMismatch
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return plan, user, nil
}

// resolveMealDay resolves one calendar date. Meal days always exist, even
// when the template pool is empty.
func (s *mealService) resolveMealDay(ctx context.Context, plan *domain.Plan, user *domain.User, pool []domain.Template, date time.Time) (*DayResolution, error) {
	tag := engine.MealTagForDate(plan.StartDate, cadenceOf(user), date)

	template := engine.SelectMealTemplate(pool, tag, plan.PinnedTemplates[tag])

	resolution := &DayResolution{
		Date:     engine.DayStart(date),
		Tag:      tag,
		Elements: []engine.ResolvedElement{},
	}
	if template != nil {
		resolution.TemplateID = template.ID
		resolution.TemplateTitle = template.Title
	}

	// Overrides apply even without a template; bare additions committed
	// against an empty pool must survive re-reads.
	baseline := engine.Materialize(template, plan.ID, date)
	overrides, err := s.overrideRepo.GetForDay(ctx, plan.UserID, plan.ID, engine.DayKey(date))
	if err != nil {
		return nil, err
	}
	resolution.Elements = engine.Resolve(baseline, overrides)
	return resolution, nil
}

func (s *mealService) FetchMealRange(ctx context.Context, userID, planID primitive.ObjectID, startDate, endDate time.Time) ([]DayResolution, error) {
	plan, user, err := s.loadOwnedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	pool, err := s.templateRepo.GetVisibleToUser(ctx, userID, domain.TemplateKindMeal)
	if err != nil {
		return nil, err
	}

	var resolutions []DayResolution
	from := engine.DayStart(startDate)
	to := engine.DayStart(endDate)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		resolution, err := s.resolveMealDay(ctx, plan, user, pool, d)
		if err != nil {
			return nil, err
		}
		resolutions = append(resolutions, *resolution)
	}
	return resolutions, nil
}

func (s *mealService) FetchResolvedForDate(ctx context.Context, userID, planID primitive.ObjectID, date time.Time) (*DayResolution, error) {
	plan, user, err := s.loadOwnedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	pool, err := s.templateRepo.GetVisibleToUser(ctx, userID, domain.TemplateKindMeal)
	if err != nil {
		return nil, err
	}
	return s.resolveMealDay(ctx, plan, user, pool, date)
}

func (s *mealService) CommitDay(ctx context.Context, userID, planID primitive.ObjectID, date time.Time, desired []engine.DesiredElement) error {
	plan, user, err := s.loadOwnedPlan(ctx, userID, planID)
	if err != nil {
		return err
	}
	pool, err := s.templateRepo.GetVisibleToUser(ctx, userID, domain.TemplateKindMeal)
	if err != nil {
		return err
	}

	tag := engine.MealTagForDate(plan.StartDate, cadenceOf(user), date)
	template := engine.SelectMealTemplate(pool, tag, plan.PinnedTemplates[tag])

	baseline := engine.Materialize(template, plan.ID, date)
	staged, err := engine.DiffDay(baseline, desired)
	if err != nil {
		return err
	}

	dayKey := engine.DayKey(date)
	if err := s.overrideRepo.ReplaceForDay(ctx, userID, planID, dayKey, staged); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"plan": planID.Hex(),
		"date": dayKey,
		"rows": len(staged),
	}).Debug("meal day overrides committed")
	return nil
}

// PinTemplate pins the template for the user's eating mode. Like workout
// pinning it runs once; a plan that already carries a pin keeps it.
func (s *mealService) PinTemplate(ctx context.Context, userID, planID primitive.ObjectID) (map[string]primitive.ObjectID, error) {
	plan, user, err := s.loadOwnedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}
	if len(plan.PinnedTemplates) > 0 {
		return plan.PinnedTemplates, nil
	}

	pool, err := s.templateRepo.GetVisibleToUser(ctx, userID, domain.TemplateKindMeal)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}

	mode := string(user.EatingMode)
	if mode == "" {
		mode = string(domain.EatingModeDefault)
	}
	pinned := make(map[string]primitive.ObjectID)
	if template := engine.SelectMealTemplate(pool, mode, primitive.NilObjectID); template != nil {
		pinned[mode] = template.ID
	}

	if err := s.planRepo.SetPinnedTemplates(ctx, planID, pinned); err != nil {
		return nil, err
	}
	plan.PinnedTemplates = pinned
	return pinned, nil
}
