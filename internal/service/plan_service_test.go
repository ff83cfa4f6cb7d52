package service

import (
	"context"
	"testing"
	"time"

	"fitarc/backend/internal/domain"
	"fitarc/backend/internal/engine"
	"fitarc/backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- In-memory repository fakes ---

type memUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	user.ID = primitive.NewObjectID()
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

type memPlanRepo struct {
	plans map[primitive.ObjectID]*domain.Plan
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{plans: make(map[primitive.ObjectID]*domain.Plan)}
}

func (r *memPlanRepo) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	plan.ID = primitive.NewObjectID()
	cp := *plan
	r.plans[plan.ID] = &cp
	return plan.ID, nil
}

func (r *memPlanRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	p, ok := r.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPlanRepo) GetByUserID(_ context.Context, userID primitive.ObjectID, kind domain.PlanKind) ([]domain.Plan, error) {
	var out []domain.Plan
	for _, p := range r.plans {
		if p.UserID == userID && p.Kind == kind {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memPlanRepo) SetPinnedTemplates(_ context.Context, planID primitive.ObjectID, pinned map[string]primitive.ObjectID) error {
	p, ok := r.plans[planID]
	if !ok {
		return repository.ErrNotFound
	}
	p.PinnedTemplates = pinned
	return nil
}

type memTemplateRepo struct {
	templates []domain.Template
}

func (r *memTemplateRepo) Create(_ context.Context, template *domain.Template) (primitive.ObjectID, error) {
	template.ID = primitive.NewObjectID()
	r.templates = append(r.templates, *template)
	return template.ID, nil
}

func (r *memTemplateRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Template, error) {
	for i := range r.templates {
		if r.templates[i].ID == id {
			cp := r.templates[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memTemplateRepo) GetVisibleToUser(_ context.Context, userID primitive.ObjectID, kind domain.TemplateKind) ([]domain.Template, error) {
	var out []domain.Template
	for _, t := range r.templates {
		if t.Kind != kind {
			continue
		}
		if t.OwnerID == nil || *t.OwnerID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

type memOverrideRepo struct {
	rows []domain.Override
}

func (r *memOverrideRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Override, error) {
	for i := range r.rows {
		if r.rows[i].ID == id {
			cp := r.rows[i]
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memOverrideRepo) GetForDay(_ context.Context, userID, planID primitive.ObjectID, date string) ([]domain.Override, error) {
	var out []domain.Override
	for _, row := range r.rows {
		if row.UserID == userID && row.PlanID == planID && row.Date == date && row.IsActive {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memOverrideRepo) ReplaceForDay(_ context.Context, userID, planID primitive.ObjectID, date string, overrides []domain.Override) error {
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.UserID == userID && row.PlanID == planID && row.Date == date {
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	for _, ov := range overrides {
		ov.ID = primitive.NewObjectID()
		ov.UserID = userID
		ov.PlanID = planID
		ov.Date = date
		ov.IsActive = true
		ov.CreatedAt = time.Now()
		r.rows = append(r.rows, ov)
	}
	return nil
}

func (r *memOverrideRepo) Create(_ context.Context, override *domain.Override) (primitive.ObjectID, error) {
	override.ID = primitive.NewObjectID()
	override.CreatedAt = time.Now()
	r.rows = append(r.rows, *override)
	return override.ID, nil
}

func (r *memOverrideRepo) Deactivate(_ context.Context, id primitive.ObjectID) error {
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].IsActive = false
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memOverrideRepo) DeactivateForTemplateElement(_ context.Context, userID, planID primitive.ObjectID, date string, templateElementID primitive.ObjectID) error {
	for i := range r.rows {
		row := &r.rows[i]
		if row.UserID == userID && row.PlanID == planID && row.Date == date &&
			row.TemplateElementID != nil && *row.TemplateElementID == templateElementID {
			row.IsActive = false
		}
	}
	return nil
}

// --- Fixture ---

type planFixture struct {
	svc          PlanService
	userRepo     *memUserRepo
	planRepo     *memPlanRepo
	templateRepo *memTemplateRepo
	overrideRepo *memOverrideRepo
	userID       primitive.ObjectID
	planID       primitive.ObjectID
	template     domain.Template
}

// date helpers anchored on Monday 2024-01-01.
var (
	monday  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tuesday = monday.AddDate(0, 0, 1)
)

func intp(v int) *int { return &v }

// newPlanFixture seeds one user (3-day cadence, full-body split), one public
// workout template with two elements, and one plan starting Monday 2024-01-01.
func newPlanFixture(t *testing.T) *planFixture {
	t.Helper()
	ctx := context.Background()

	userRepo := newMemUserRepo()
	planRepo := newMemPlanRepo()
	templateRepo := &memTemplateRepo{}
	overrideRepo := &memOverrideRepo{}

	user := &domain.User{
		Name:        "Lena",
		Email:       "lena@example.com",
		Goal:        "strength",
		Equipment:   domain.EquipmentFullGym,
		Experience:  domain.ExperienceIntermediate,
		Split:       domain.SplitFullBody,
		CadenceDays: 3,
	}
	userID, err := userRepo.Create(ctx, user)
	require.NoError(t, err)

	template := domain.Template{
		Kind:  domain.TemplateKindWorkout,
		Title: "Full Body A",
		Goals: []string{"strength"},
		Tags:  []string{"full_body"},
		Elements: []domain.TemplateElement{
			{ID: primitive.NewObjectID(), CatalogID: primitive.NewObjectID(), Position: 0, Sets: intp(3), Reps: intp(5)},
			{ID: primitive.NewObjectID(), CatalogID: primitive.NewObjectID(), Position: 1, Sets: intp(3), Reps: intp(8)},
		},
	}
	_, err = templateRepo.Create(ctx, &template)
	require.NoError(t, err)

	svc := NewPlanService(planRepo, templateRepo, overrideRepo, userRepo)
	plan, err := svc.CreatePlan(ctx, userID, "Strength Block", "strength", monday)
	require.NoError(t, err)

	return &planFixture{
		svc:          svc,
		userRepo:     userRepo,
		planRepo:     planRepo,
		templateRepo: templateRepo,
		overrideRepo: overrideRepo,
		userID:       userID,
		planID:       plan.ID,
		template:     template,
	}
}

// desiredFromResolved mirrors what a client sends back: the resolved list
// re-expressed as desired elements.
func desiredFromResolved(elements []engine.ResolvedElement) []engine.DesiredElement {
	desired := make([]engine.DesiredElement, 0, len(elements))
	for _, el := range elements {
		desired = append(desired, engine.DesiredElement{
			TemplateElementID: el.TemplateElementID,
			CatalogID:         el.CatalogID,
			Position:          el.Position,
			Sets:              el.Sets,
			Reps:              el.Reps,
			Quantity:          el.Quantity,
			Unit:              el.Unit,
			Notes:             el.Notes,
		})
	}
	return desired
}

// --- Tests ---

func TestPlanService_FetchResolvedForDate(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	t.Run("scheduled day resolves to the pinned-or-selected template", func(t *testing.T) {
		res, err := f.svc.FetchResolvedForDate(ctx, f.userID, f.planID, monday)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, "full_body", res.Tag)
		require.NotNil(t, res.SlotIndex)
		assert.Equal(t, 0, *res.SlotIndex)
		assert.Equal(t, f.template.ID, res.TemplateID)
		require.Len(t, res.Elements, 2)
		assert.False(t, res.Elements[0].FromOverride)
	})

	t.Run("rest day resolves to nil without error", func(t *testing.T) {
		res, err := f.svc.FetchResolvedForDate(ctx, f.userID, f.planID, tuesday)
		require.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("foreign user is denied", func(t *testing.T) {
		_, err := f.svc.FetchResolvedForDate(ctx, primitive.NewObjectID(), f.planID, monday)
		assert.ErrorIs(t, err, ErrPlanAccessDenied)
	})
}

func TestPlanService_EnsureDayExists(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	res, err := f.svc.EnsureDayExists(ctx, f.userID, f.planID, monday)
	require.NoError(t, err)
	require.NotNil(t, res)

	_, err = f.svc.EnsureDayExists(ctx, f.userID, f.planID, tuesday)
	assert.ErrorIs(t, err, ErrDayNotScheduled)
}

func TestPlanService_CommitDay(t *testing.T) {
	ctx := context.Background()

	t.Run("edit, drop and add round-trips through resolution", func(t *testing.T) {
		f := newPlanFixture(t)
		res, err := f.svc.EnsureDayExists(ctx, f.userID, f.planID, monday)
		require.NoError(t, err)
		require.Len(t, res.Elements, 2)

		desired := desiredFromResolved(res.Elements[:1]) // drop the second element
		desired[0].Sets = intp(5)                        // edit the first
		addedCatalog := primitive.NewObjectID()
		desired = append(desired, engine.DesiredElement{ // and add a new one
			CatalogID: addedCatalog,
			Position:  2,
			Sets:      intp(4),
		})

		require.NoError(t, f.svc.CommitDay(ctx, f.userID, f.planID, monday, desired))

		// One replace, one remove, one add.
		rows, err := f.overrideRepo.GetForDay(ctx, f.userID, f.planID, engine.DayKey(monday))
		require.NoError(t, err)
		assert.Len(t, rows, 3)

		after, err := f.svc.FetchResolvedForDate(ctx, f.userID, f.planID, monday)
		require.NoError(t, err)
		require.Len(t, after.Elements, 2)
		assert.Equal(t, intp(5), after.Elements[0].Sets)
		assert.True(t, after.Elements[0].FromOverride)
		assert.Equal(t, addedCatalog, after.Elements[1].CatalogID)
		assert.True(t, after.Elements[1].FromOverride)
	})

	t.Run("committing the unchanged baseline stores nothing", func(t *testing.T) {
		f := newPlanFixture(t)
		res, err := f.svc.EnsureDayExists(ctx, f.userID, f.planID, monday)
		require.NoError(t, err)

		require.NoError(t, f.svc.CommitDay(ctx, f.userID, f.planID, monday, desiredFromResolved(res.Elements)))

		rows, err := f.overrideRepo.GetForDay(ctx, f.userID, f.planID, engine.DayKey(monday))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("re-committing reverts earlier edits", func(t *testing.T) {
		f := newPlanFixture(t)
		res, err := f.svc.EnsureDayExists(ctx, f.userID, f.planID, monday)
		require.NoError(t, err)

		edited := desiredFromResolved(res.Elements)
		edited[0].Sets = intp(10)
		require.NoError(t, f.svc.CommitDay(ctx, f.userID, f.planID, monday, edited))

		// Second commit sends the pristine baseline again; the replace row
		// must be gone afterwards.
		require.NoError(t, f.svc.CommitDay(ctx, f.userID, f.planID, monday, desiredFromResolved(res.Elements)))
		rows, err := f.overrideRepo.GetForDay(ctx, f.userID, f.planID, engine.DayKey(monday))
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("missing catalog reference rejects the whole commit", func(t *testing.T) {
		f := newPlanFixture(t)
		res, err := f.svc.EnsureDayExists(ctx, f.userID, f.planID, monday)
		require.NoError(t, err)

		desired := desiredFromResolved(res.Elements)
		desired = append(desired, engine.DesiredElement{Position: 5})

		err = f.svc.CommitDay(ctx, f.userID, f.planID, monday, desired)
		assert.ErrorIs(t, err, engine.ErrMissingCatalogRef)
		assert.Empty(t, f.overrideRepo.rows)
	})

	t.Run("commit against an empty pool is visible on re-read", func(t *testing.T) {
		userRepo := newMemUserRepo()
		planRepo := newMemPlanRepo()
		overrideRepo := &memOverrideRepo{}
		user := &domain.User{
			Name:        "Noah",
			Email:       "noah@example.com",
			Split:       domain.SplitFullBody,
			CadenceDays: 3,
		}
		userID, err := userRepo.Create(ctx, user)
		require.NoError(t, err)

		svc := NewPlanService(planRepo, &memTemplateRepo{}, overrideRepo, userRepo)
		plan, err := svc.CreatePlan(ctx, userID, "From Scratch", "strength", monday)
		require.NoError(t, err)

		addedCatalog := primitive.NewObjectID()
		desired := []engine.DesiredElement{{CatalogID: addedCatalog, Position: 0, Sets: intp(3)}}
		require.NoError(t, svc.CommitDay(ctx, userID, plan.ID, monday, desired))

		rows, err := overrideRepo.GetForDay(ctx, userID, plan.ID, engine.DayKey(monday))
		require.NoError(t, err)
		require.Len(t, rows, 1)

		res, err := svc.FetchResolvedForDate(ctx, userID, plan.ID, monday)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, primitive.NilObjectID, res.TemplateID)
		require.Len(t, res.Elements, 1)
		assert.Equal(t, addedCatalog, res.Elements[0].CatalogID)
		assert.True(t, res.Elements[0].FromOverride)
	})

	t.Run("rest day cannot be committed", func(t *testing.T) {
		f := newPlanFixture(t)
		err := f.svc.CommitDay(ctx, f.userID, f.planID, tuesday, nil)
		assert.ErrorIs(t, err, ErrDayNotScheduled)
	})

	t.Run("meal plan through the workout service is a kind mismatch", func(t *testing.T) {
		f := newPlanFixture(t)
		mealPlan := &domain.Plan{UserID: f.userID, Kind: domain.PlanKindMeal, StartDate: monday}
		mealPlanID, err := f.planRepo.Create(ctx, mealPlan)
		require.NoError(t, err)

		err = f.svc.CommitDay(ctx, f.userID, mealPlanID, monday, nil)
		assert.ErrorIs(t, err, ErrPlanKindMismatch)
	})
}

func TestPlanService_RemoveElement(t *testing.T) {
	ctx := context.Background()

	t.Run("template-backed removal drops the element on re-resolution", func(t *testing.T) {
		f := newPlanFixture(t)
		res, err := f.svc.EnsureDayExists(ctx, f.userID, f.planID, monday)
		require.NoError(t, err)
		require.Len(t, res.Elements, 2)

		require.NoError(t, f.svc.RemoveElement(ctx, f.userID, res.Elements[0].ID.String()))

		after, err := f.svc.FetchResolvedForDate(ctx, f.userID, f.planID, monday)
		require.NoError(t, err)
		require.Len(t, after.Elements, 1)
		assert.Equal(t, res.Elements[1].CatalogID, after.Elements[0].CatalogID)
	})

	t.Run("override-backed removal deactivates the addition", func(t *testing.T) {
		f := newPlanFixture(t)
		res, err := f.svc.EnsureDayExists(ctx, f.userID, f.planID, monday)
		require.NoError(t, err)

		desired := append(desiredFromResolved(res.Elements), engine.DesiredElement{
			CatalogID: primitive.NewObjectID(),
			Position:  9,
		})
		require.NoError(t, f.svc.CommitDay(ctx, f.userID, f.planID, monday, desired))

		after, err := f.svc.FetchResolvedForDate(ctx, f.userID, f.planID, monday)
		require.NoError(t, err)
		require.Len(t, after.Elements, 3)
		added := after.Elements[2]
		require.True(t, added.FromOverride)

		require.NoError(t, f.svc.RemoveElement(ctx, f.userID, added.ID.String()))

		final, err := f.svc.FetchResolvedForDate(ctx, f.userID, f.planID, monday)
		require.NoError(t, err)
		assert.Len(t, final.Elements, 2)
	})

	t.Run("foreign user cannot remove", func(t *testing.T) {
		f := newPlanFixture(t)
		res, err := f.svc.EnsureDayExists(ctx, f.userID, f.planID, monday)
		require.NoError(t, err)

		err = f.svc.RemoveElement(ctx, primitive.NewObjectID(), res.Elements[0].ID.String())
		assert.ErrorIs(t, err, ErrPlanAccessDenied)
	})

	t.Run("malformed id is rejected", func(t *testing.T) {
		f := newPlanFixture(t)
		err := f.svc.RemoveElement(ctx, f.userID, "not-an-element-id")
		assert.ErrorIs(t, err, engine.ErrUnknownIDPrefix)
	})
}

func TestPlanService_PinTemplates(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	pinned, err := f.svc.PinTemplates(ctx, f.userID, f.planID)
	require.NoError(t, err)
	require.Len(t, pinned, 1)
	assert.Equal(t, f.template.ID, pinned["full_body"])

	// A better-matching template arriving later must not change the pin.
	newer := domain.Template{
		Kind:     domain.TemplateKindWorkout,
		Title:    "Full Body B",
		Goals:    []string{"strength"},
		Tags:     []string{"full_body"},
		Elements: []domain.TemplateElement{{ID: primitive.NewObjectID(), CatalogID: primitive.NewObjectID()}},
	}
	_, err = f.templateRepo.Create(ctx, &newer)
	require.NoError(t, err)

	again, err := f.svc.PinTemplates(ctx, f.userID, f.planID)
	require.NoError(t, err)
	assert.Equal(t, pinned, again)

	res, err := f.svc.FetchResolvedForDate(ctx, f.userID, f.planID, monday)
	require.NoError(t, err)
	assert.Equal(t, f.template.ID, res.TemplateID)
}

func TestPlanService_FetchPlanRange(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	// First week on a 3-day cadence: Mon, Wed, Fri.
	resolutions, err := f.svc.FetchPlanRange(ctx, f.userID, f.planID, monday, monday.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, resolutions, 3)
	for i, res := range resolutions {
		require.NotNil(t, res.SlotIndex)
		assert.Equal(t, i, *res.SlotIndex)
		assert.Equal(t, "full_body", res.Tag)
	}
	assert.Equal(t, engine.DayKey(monday), engine.DayKey(resolutions[0].Date))
	assert.Equal(t, engine.DayKey(monday.AddDate(0, 0, 2)), engine.DayKey(resolutions[1].Date))
	assert.Equal(t, engine.DayKey(monday.AddDate(0, 0, 4)), engine.DayKey(resolutions[2].Date))
}

func TestPlanService_FetchPlanRange_MatchesPerDayResolution(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	// Put an override on the second active day so the range carries edits too.
	wednesday := monday.AddDate(0, 0, 2)
	res, err := f.svc.EnsureDayExists(ctx, f.userID, f.planID, wednesday)
	require.NoError(t, err)
	edited := desiredFromResolved(res.Elements)
	edited[0].Sets = intp(6)
	require.NoError(t, f.svc.CommitDay(ctx, f.userID, f.planID, wednesday, edited))

	// Two weeks, and a window that starts mid-plan: each range entry must be
	// identical to resolving its date individually.
	resolutions, err := f.svc.FetchPlanRange(ctx, f.userID, f.planID, monday, monday.AddDate(0, 0, 13))
	require.NoError(t, err)
	require.Len(t, resolutions, 6)
	for _, got := range resolutions {
		single, err := f.svc.FetchResolvedForDate(ctx, f.userID, f.planID, got.Date)
		require.NoError(t, err)
		require.NotNil(t, single)
		assert.Equal(t, *single, got)
	}

	secondWeek, err := f.svc.FetchPlanRange(ctx, f.userID, f.planID, monday.AddDate(0, 0, 7), monday.AddDate(0, 0, 13))
	require.NoError(t, err)
	require.Len(t, secondWeek, 3)
	require.NotNil(t, secondWeek[0].SlotIndex)
	assert.Equal(t, 3, *secondWeek[0].SlotIndex)
}

func TestPlanService_CreatePlan_RequiresStartDate(t *testing.T) {
	f := newPlanFixture(t)
	_, err := f.svc.CreatePlan(context.Background(), f.userID, "No Start", "strength", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidStartDate)
}
