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

// --- Error Definitions ---
var (
	ErrPlanNotFound     = errors.New("plan not found")
	ErrPlanAccessDenied = errors.New("plan does not belong to this user")
	ErrPlanKindMismatch = errors.New("operation does not apply to this plan kind")
	ErrDayNotScheduled  = errors.New("date is not a scheduled day for this plan")
	ErrInvalidStartDate = errors.New("plan start date is required")
	ErrOverrideNotOwned = errors.New("override does not belong to this user")
)

// DayResolution is the final answer for one calendar date: which template the
// day resolved to and the element list after overrides.
type DayResolution struct {
	Date          time.Time                `json:"date"`
	Tag           string                   `json:"tag"`
	SlotIndex     *int                     `json:"slotIndex,omitempty"` // nil on non-training meal days
	TemplateID    primitive.ObjectID       `json:"templateId,omitempty"`
	TemplateTitle string                   `json:"templateTitle,omitempty"`
	Elements      []engine.ResolvedElement `json:"elements"`
}

// --- Service Interface ---

type PlanService interface {
	CreatePlan(ctx context.Context, userID primitive.ObjectID, title, goal string, startDate time.Time) (*domain.Plan, error)
	GetPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.Plan, error)

	// FetchPlanRange returns one resolution per active training date in
	// [startDate, endDate].
	FetchPlanRange(ctx context.Context, userID, planID primitive.ObjectID, startDate, endDate time.Time) ([]DayResolution, error)
	// FetchResolvedForDate returns nil (no error) for unscheduled dates;
	// absence is a valid state.
	FetchResolvedForDate(ctx context.Context, userID, planID primitive.ObjectID, date time.Time) (*DayResolution, error)
	// EnsureDayExists resolves a scheduled date, erroring on rest days
	// instead of returning nil.
	EnsureDayExists(ctx context.Context, userID, planID primitive.ObjectID, date time.Time) (*DayResolution, error)
	// CommitDay diffs the desired list against the recomputed baseline and
	// replaces the day's override set with the minimal staged rows.
	CommitDay(ctx context.Context, userID, planID primitive.ObjectID, date time.Time, desired []engine.DesiredElement) error
	// RemoveElement deletes by encoded element id, template- or
	// override-backed. Works for workout and meal elements alike.
	RemoveElement(ctx context.Context, userID primitive.ObjectID, elementID string) error
	// PinTemplates freezes the tag -> template map for the plan's rotation.
	// Computed once; later calls return the stored map untouched.
	PinTemplates(ctx context.Context, userID, planID primitive.ObjectID) (map[string]primitive.ObjectID, error)
}

// --- Service Implementation ---

// planService implements PlanService for workout plans.
type planService struct {
	planRepo     repository.PlanRepository
	templateRepo repository.TemplateRepository
	overrideRepo repository.OverrideRepository
	userRepo     repository.UserRepository
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.PlanRepository,
	templateRepo repository.TemplateRepository,
	overrideRepo repository.OverrideRepository,
	userRepo repository.UserRepository,
) PlanService {
	return &planService{
		planRepo:     planRepo,
		templateRepo: templateRepo,
		overrideRepo: overrideRepo,
		userRepo:     userRepo,
	}
}

// === Plan CRUD ===

func (s *planService) CreatePlan(ctx context.Context, userID primitive.ObjectID, title, goal string, startDate time.Time) (*domain.Plan, error) {
	if startDate.IsZero() {
		return nil, ErrInvalidStartDate
	}
	plan := &domain.Plan{
		UserID:    userID,
		Kind:      domain.PlanKindWorkout,
		Title:     title,
		Goal:      goal,
		StartDate: startDate,
	}
	planID, err := s.planRepo.Create(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = planID
	return plan, nil
}

func (s *planService) GetPlans(ctx context.Context, userID primitive.ObjectID) ([]domain.Plan, error) {
	return s.planRepo.GetByUserID(ctx, userID, domain.PlanKindWorkout)
}

// === Resolution (reads) ===

// loadOwnedPlan fetches a plan and verifies ownership and kind. Every read
// and write path goes through this before touching anything else.
func (s *planService) loadOwnedPlan(ctx context.Context, userID, planID primitive.ObjectID, kind domain.PlanKind) (*domain.Plan, *domain.User, error) {
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
	if plan.Kind != kind {
		return nil, nil, ErrPlanKindMismatch
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return plan, user, nil
}

// cadenceOf reads the training cadence from the profile. Profiles that never
// picked a cadence train three days a week.
func cadenceOf(user *domain.User) engine.Cadence {
	c := engine.Cadence(user.CadenceDays)
	if !c.IsValid() {
		return engine.CadenceThreeDays
	}
	return c
}

func selectorPrefs(user *domain.User) engine.SelectorPrefs {
	return engine.SelectorPrefs{
		Goal:       user.Goal,
		Equipment:  user.Equipment,
		Experience: user.Experience,
	}
}

// resolveWorkoutDay resolves one date against an already-loaded plan, user,
// and template pool. Returns nil for rest days.
func (s *planService) resolveWorkoutDay(ctx context.Context, plan *domain.Plan, user *domain.User, pool []domain.Template, date time.Time) (*DayResolution, error) {
	cadence := cadenceOf(user)
	slot, ok := engine.SlotIndex(plan.StartDate, cadence, date)
	if !ok {
		return nil, nil
	}
	return s.resolveWorkoutSlot(ctx, plan, user, pool, date, slot)
}

// resolveWorkoutSlot resolves a date whose slot index is already known.
func (s *planService) resolveWorkoutSlot(ctx context.Context, plan *domain.Plan, user *domain.User, pool []domain.Template, date time.Time, slot int) (*DayResolution, error) {
	tag := engine.TagForSlot(user.Split, slot)

	pinned := plan.PinnedTemplates[tag] // zero ObjectID when absent
	template := engine.SelectTemplate(tag, pool, selectorPrefs(user), slot, pinned)

	resolution := &DayResolution{
		Date:      engine.DayStart(date),
		Tag:       tag,
		SlotIndex: &slot,
		Elements:  []engine.ResolvedElement{},
	}
	if template != nil {
		resolution.TemplateID = template.ID
		resolution.TemplateTitle = template.Title
	}

	// Overrides apply even without a template: a commit against an empty pool
	// stages bare additions, and those must survive re-reads.
	baseline := engine.Materialize(template, plan.ID, date)
	overrides, err := s.overrideRepo.GetForDay(ctx, plan.UserID, plan.ID, engine.DayKey(date))
	if err != nil {
		return nil, err
	}
	resolution.Elements = engine.Resolve(baseline, overrides)
	return resolution, nil
}

func (s *planService) FetchPlanRange(ctx context.Context, userID, planID primitive.ObjectID, startDate, endDate time.Time) ([]DayResolution, error) {
	plan, user, err := s.loadOwnedPlan(ctx, userID, planID, domain.PlanKindWorkout)
	if err != nil {
		return nil, err
	}
	pool, err := s.templateRepo.GetVisibleToUser(ctx, userID, domain.TemplateKindWorkout)
	if err != nil {
		return nil, err
	}

	cadence := cadenceOf(user)
	from := engine.DayStart(startDate)
	to := engine.DayStart(endDate)

	// One pass over [start, from) seeds the slot counter; the range loop then
	// advances it per active day instead of re-counting from the plan start.
	slot := 0
	for d := engine.DayStart(plan.StartDate); d.Before(from); d = d.AddDate(0, 0, 1) {
		if engine.IsActiveDay(plan.StartDate, cadence, d) {
			slot++
		}
	}

	var resolutions []DayResolution
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !engine.IsActiveDay(plan.StartDate, cadence, d) {
			continue
		}
		resolution, err := s.resolveWorkoutSlot(ctx, plan, user, pool, d, slot)
		if err != nil {
			return nil, err
		}
		slot++
		resolutions = append(resolutions, *resolution)
	}
	return resolutions, nil
}

func (s *planService) FetchResolvedForDate(ctx context.Context, userID, planID primitive.ObjectID, date time.Time) (*DayResolution, error) {
	plan, user, err := s.loadOwnedPlan(ctx, userID, planID, domain.PlanKindWorkout)
	if err != nil {
		return nil, err
	}
	pool, err := s.templateRepo.GetVisibleToUser(ctx, userID, domain.TemplateKindWorkout)
	if err != nil {
		return nil, err
	}
	return s.resolveWorkoutDay(ctx, plan, user, pool, date)
}

func (s *planService) EnsureDayExists(ctx context.Context, userID, planID primitive.ObjectID, date time.Time) (*DayResolution, error) {
	resolution, err := s.FetchResolvedForDate(ctx, userID, planID, date)
	if err != nil {
		return nil, err
	}
	if resolution == nil {
		return nil, ErrDayNotScheduled
	}
	return resolution, nil
}

// === Writes ===

func (s *planService) CommitDay(ctx context.Context, userID, planID primitive.ObjectID, date time.Time, desired []engine.DesiredElement) error {
	plan, user, err := s.loadOwnedPlan(ctx, userID, planID, domain.PlanKindWorkout)
	if err != nil {
		return err
	}
	cadence := cadenceOf(user)
	slot, ok := engine.SlotIndex(plan.StartDate, cadence, date)
	if !ok {
		return ErrDayNotScheduled
	}
	pool, err := s.templateRepo.GetVisibleToUser(ctx, userID, domain.TemplateKindWorkout)
	if err != nil {
		return err
	}

	tag := engine.TagForSlot(user.Split, slot)
	template := engine.SelectTemplate(tag, pool, selectorPrefs(user), slot, plan.PinnedTemplates[tag])

	// An empty pool still allows a commit: everything desired becomes an add
	// against an empty baseline.
	baseline := engine.Materialize(template, plan.ID, date)
	staged, err := engine.DiffDay(baseline, desired)
	if err != nil {
		return err
	}

	dayKey := engine.DayKey(date)
	if err := s.overrideRepo.ReplaceForDay(ctx, userID, planID, dayKey, staged); err != nil {
		// No retry here: re-running a partially applied delete-then-insert
		// could corrupt the day. The caller retries the whole commit.
		return err
	}

	logrus.WithFields(logrus.Fields{
		"plan": planID.Hex(),
		"date": dayKey,
		"rows": len(staged),
	}).Debug("day overrides committed")
	return nil
}

func (s *planService) RemoveElement(ctx context.Context, userID primitive.ObjectID, elementID string) error {
	id, err := engine.ParseElementID(elementID)
	if err != nil {
		return err
	}

	switch id.Kind {
	case engine.OverrideBacked:
		override, err := s.overrideRepo.GetByID(ctx, id.OverrideID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPlanNotFound
			}
			return err
		}
		if override.UserID != userID {
			return ErrOverrideNotOwned
		}
		return s.overrideRepo.Deactivate(ctx, id.OverrideID)

	default: // TemplateBacked
		plan, err := s.planRepo.GetByID(ctx, id.PlanID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPlanNotFound
			}
			return err
		}
		if plan.UserID != userID {
			return ErrPlanAccessDenied
		}
		// Retire any prior override for the key first so the inserted remove
		// stays the only active row.
		if err := s.overrideRepo.DeactivateForTemplateElement(ctx, userID, plan.ID, id.Date, id.TemplateElementID); err != nil {
			return err
		}
		elementID := id.TemplateElementID
		_, err = s.overrideRepo.Create(ctx, &domain.Override{
			UserID:            userID,
			PlanID:            plan.ID,
			Date:              id.Date,
			TemplateElementID: &elementID,
			Action:            domain.OverrideRemove,
			IsActive:          true,
		})
		return err
	}
}

// PinTemplates computes the pinned map over every tag in the split rotation
// and persists it. Pinning happens once; an already-pinned plan is returned
// as-is rather than recomputed.
func (s *planService) PinTemplates(ctx context.Context, userID, planID primitive.ObjectID) (map[string]primitive.ObjectID, error) {
	plan, user, err := s.loadOwnedPlan(ctx, userID, planID, domain.PlanKindWorkout)
	if err != nil {
		return nil, err
	}
	if len(plan.PinnedTemplates) > 0 {
		return plan.PinnedTemplates, nil
	}

	pool, err := s.templateRepo.GetVisibleToUser(ctx, userID, domain.TemplateKindWorkout)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}

	prefs := selectorPrefs(user)
	pinned := make(map[string]primitive.ObjectID)
	for i, tag := range engine.RotationTags(user.Split) {
		if template := engine.SelectTemplate(tag, pool, prefs, i, primitive.NilObjectID); template != nil {
			pinned[tag] = template.ID
		}
	}

	if err := s.planRepo.SetPinnedTemplates(ctx, planID, pinned); err != nil {
		return nil, err
	}
	plan.PinnedTemplates = pinned

	logrus.WithFields(logrus.Fields{
		"plan": planID.Hex(),
		"tags": len(pinned),
	}).Info("plan templates pinned")
	return pinned, nil
}
