package engine

import (
	"testing"

	"fitarc/backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func tmpl(title string, opts func(*domain.Template)) domain.Template {
	t := domain.Template{
		ID:    primitive.NewObjectID(),
		Kind:  domain.TemplateKindWorkout,
		Title: title,
	}
	if opts != nil {
		opts(&t)
	}
	return t
}

func TestSelectTemplateEmptyPool(t *testing.T) {
	got := SelectTemplate("push", nil, SelectorPrefs{}, 0, primitive.NilObjectID)
	assert.Nil(t, got)
}

func TestSelectTemplateTierOrder(t *testing.T) {
	prefs := SelectorPrefs{
		Goal:       "strength",
		Equipment:  domain.EquipmentDumbbells,
		Experience: domain.ExperienceBeginner,
	}

	perfect := tmpl("perfect", func(tp *domain.Template) {
		tp.Tags = []string{"push"}
		tp.Goals = []string{"strength"}
		tp.Equipment = domain.EquipmentBodyweight
		tp.Difficulty = domain.ExperienceIntermediate
	})
	goalEquip := tmpl("goal+equip", func(tp *domain.Template) {
		tp.Tags = []string{"push"}
		tp.Goals = []string{"strength"}
		tp.Equipment = domain.EquipmentDumbbells
		tp.Difficulty = domain.ExperienceAdvanced // two levels off
	})
	goalOnly := tmpl("goal only", func(tp *domain.Template) {
		tp.Tags = []string{"push"}
		tp.Goals = []string{"strength"}
		tp.Equipment = domain.EquipmentFullGym
		tp.Difficulty = domain.ExperienceAdvanced
	})

	// All three carry the tag; tier 1 should win outright.
	pool := []domain.Template{goalOnly, goalEquip, perfect}
	got := SelectTemplate("push", pool, prefs, 0, primitive.NilObjectID)
	require.NotNil(t, got)
	assert.Equal(t, perfect.ID, got.ID)

	// Without the perfect candidate, tier 2 wins.
	pool = []domain.Template{goalOnly, goalEquip}
	got = SelectTemplate("push", pool, prefs, 0, primitive.NilObjectID)
	require.NotNil(t, got)
	assert.Equal(t, goalEquip.ID, got.ID)

	// Goal-only candidate left: tier 3.
	pool = []domain.Template{goalOnly}
	got = SelectTemplate("push", pool, prefs, 0, primitive.NilObjectID)
	require.NotNil(t, got)
	assert.Equal(t, goalOnly.ID, got.ID)
}

// A single advanced full-gym template against a beginner bodyweight user:
// every constrained tier fails, the unrestricted tier still serves it.
func TestSelectTemplateLastResortTier(t *testing.T) {
	hard := tmpl("advanced gym day", func(tp *domain.Template) {
		tp.Tags = []string{"push"}
		tp.Goals = []string{"hypertrophy"}
		tp.Equipment = domain.EquipmentFullGym
		tp.Difficulty = domain.ExperienceAdvanced
	})
	prefs := SelectorPrefs{
		Goal:       "strength",
		Equipment:  domain.EquipmentBodyweight,
		Experience: domain.ExperienceBeginner,
	}

	got := SelectTemplate("push", []domain.Template{hard}, prefs, 0, primitive.NilObjectID)
	require.NotNil(t, got)
	assert.Equal(t, hard.ID, got.ID)
}

func TestSelectTemplateTagIsPreferenceNotFilter(t *testing.T) {
	legsOnly := tmpl("legs", func(tp *domain.Template) {
		tp.Tags = []string{"legs"}
	})

	// No template carries "push"; the full pool serves as fallback.
	got := SelectTemplate("push", []domain.Template{legsOnly}, SelectorPrefs{}, 0, primitive.NilObjectID)
	require.NotNil(t, got)
	assert.Equal(t, legsOnly.ID, got.ID)
}

func TestSelectTemplateSlotRotation(t *testing.T) {
	a := tmpl("a", func(tp *domain.Template) { tp.Tags = []string{"full_body"} })
	b := tmpl("b", func(tp *domain.Template) { tp.Tags = []string{"full_body"} })
	pool := []domain.Template{a, b}

	first := SelectTemplate("full_body", pool, SelectorPrefs{}, 0, primitive.NilObjectID)
	second := SelectTemplate("full_body", pool, SelectorPrefs{}, 1, primitive.NilObjectID)
	third := SelectTemplate("full_body", pool, SelectorPrefs{}, 2, primitive.NilObjectID)

	require.NotNil(t, first)
	require.NotNil(t, second)
	require.NotNil(t, third)
	assert.NotEqual(t, first.ID, second.ID, "adjacent slots sharing a tag rotate")
	assert.Equal(t, first.ID, third.ID, "rotation wraps at the candidate count")
}

func TestSelectTemplateDeterministic(t *testing.T) {
	pool := []domain.Template{
		tmpl("a", func(tp *domain.Template) { tp.Tags = []string{"pull"} }),
		tmpl("b", func(tp *domain.Template) { tp.Tags = []string{"pull"} }),
		tmpl("c", func(tp *domain.Template) { tp.Tags = []string{"pull"} }),
	}
	prefs := SelectorPrefs{Goal: "strength"}

	first := SelectTemplate("pull", pool, prefs, 5, primitive.NilObjectID)
	for i := 0; i < 10; i++ {
		again := SelectTemplate("pull", pool, prefs, 5, primitive.NilObjectID)
		require.NotNil(t, again)
		assert.Equal(t, first.ID, again.ID)
	}
}

func TestSelectTemplatePinned(t *testing.T) {
	pinned := tmpl("pinned", func(tp *domain.Template) { tp.Tags = []string{"legs"} })
	other := tmpl("other", func(tp *domain.Template) {
		tp.Tags = []string{"push"}
		tp.Goals = []string{"strength"}
	})
	pool := []domain.Template{other, pinned}
	prefs := SelectorPrefs{Goal: "strength"}

	// Pinned id wins even when live matching would prefer another template.
	got := SelectTemplate("push", pool, prefs, 0, pinned.ID)
	require.NotNil(t, got)
	assert.Equal(t, pinned.ID, got.ID)

	// A pin pointing at a removed template falls through to live selection.
	got = SelectTemplate("push", []domain.Template{other}, prefs, 0, pinned.ID)
	require.NotNil(t, got)
	assert.Equal(t, other.ID, got.ID)
}

func TestSelectMealTemplate(t *testing.T) {
	trainingDay := tmpl("training day meals", func(tp *domain.Template) {
		tp.Kind = domain.TemplateKindMeal
		tp.Tags = []string{"training_day"}
	})
	restDay := tmpl("rest day meals", func(tp *domain.Template) {
		tp.Kind = domain.TemplateKindMeal
		tp.Tags = []string{"default"}
	})
	pool := []domain.Template{restDay, trainingDay}

	t.Run("empty pool", func(t *testing.T) {
		assert.Nil(t, SelectMealTemplate(nil, "default", primitive.NilObjectID))
	})

	t.Run("pinned wins", func(t *testing.T) {
		got := SelectMealTemplate(pool, "default", trainingDay.ID)
		require.NotNil(t, got)
		assert.Equal(t, trainingDay.ID, got.ID)
	})

	t.Run("eating mode exact match", func(t *testing.T) {
		got := SelectMealTemplate(pool, "training_day", primitive.NilObjectID)
		require.NotNil(t, got)
		assert.Equal(t, trainingDay.ID, got.ID)
	})

	t.Run("first template fallback", func(t *testing.T) {
		got := SelectMealTemplate(pool, "keto", primitive.NilObjectID)
		require.NotNil(t, got)
		assert.Equal(t, restDay.ID, got.ID)
	})
}
