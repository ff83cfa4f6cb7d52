package engine

import (
	"testing"

	"fitarc/backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func desiredFromBaseline(base VirtualElement) DesiredElement {
	teID := base.TemplateElementID
	return DesiredElement{
		TemplateElementID: &teID,
		CatalogID:         base.CatalogID,
		Position:          base.Position,
		Sets:              base.Sets,
		Reps:              base.Reps,
		Quantity:          base.Quantity,
		Unit:              base.Unit,
		Notes:             base.Notes,
	}
}

// Committing a list identical to the baseline persists nothing.
func TestDiffDayMinimality(t *testing.T) {
	baseline := Materialize(workoutTemplate(element(1, 3, 8), element(2, 4, 10)),
		primitive.NewObjectID(), day("2024-02-05"))

	desired := []DesiredElement{
		desiredFromBaseline(baseline[0]),
		desiredFromBaseline(baseline[1]),
	}
	staged, err := DiffDay(baseline, desired)
	require.NoError(t, err)
	assert.Empty(t, staged)
}

func TestDiffDayReplace(t *testing.T) {
	baseline := Materialize(workoutTemplate(element(1, 3, 8)),
		primitive.NewObjectID(), day("2024-02-05"))

	changed := desiredFromBaseline(baseline[0])
	changed.Reps = intp(12)

	staged, err := DiffDay(baseline, []DesiredElement{changed})
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, domain.OverrideReplace, staged[0].Action)
	require.NotNil(t, staged[0].TemplateElementID)
	assert.Equal(t, baseline[0].TemplateElementID, *staged[0].TemplateElementID)
	require.NotNil(t, staged[0].Payload)
	assert.Equal(t, intp(12), staged[0].Payload.Reps)
}

// Omitting a baseline element from the desired list always stages its removal.
func TestDiffDayRemovalCompleteness(t *testing.T) {
	baseline := Materialize(workoutTemplate(element(1, 3, 8), element(2, 4, 10)),
		primitive.NewObjectID(), day("2024-02-05"))

	staged, err := DiffDay(baseline, []DesiredElement{desiredFromBaseline(baseline[0])})
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, domain.OverrideRemove, staged[0].Action)
	assert.Equal(t, baseline[1].TemplateElementID, *staged[0].TemplateElementID)

	// And the removed element is absent from the next resolution.
	resolved := Resolve(baseline, staged)
	require.Len(t, resolved, 1)
	assert.Equal(t, baseline[0].TemplateElementID, *resolved[0].TemplateElementID)
}

func TestDiffDayAddition(t *testing.T) {
	baseline := Materialize(workoutTemplate(element(1, 3, 8)),
		primitive.NewObjectID(), day("2024-02-05"))

	newcomer := DesiredElement{
		CatalogID: primitive.NewObjectID(),
		Position:  2,
		Sets:      intp(3),
		Reps:      intp(15),
	}
	staged, err := DiffDay(baseline, []DesiredElement{desiredFromBaseline(baseline[0]), newcomer})
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, domain.OverrideAdd, staged[0].Action)
	assert.Nil(t, staged[0].TemplateElementID)
	assert.Equal(t, newcomer.CatalogID, staged[0].Payload.CatalogID)
}

// Baseline [A(order1), B(order2)]; user submits [B(order1), C(order2)] with C
// new. Exact expected rows: replace keyed to B (order changed), remove A, add C.
func TestDiffDayBeforeAfterPair(t *testing.T) {
	a := element(1, 3, 8)
	b := element(2, 4, 10)
	baseline := Materialize(workoutTemplate(a, b), primitive.NewObjectID(), day("2024-02-05"))

	movedB := desiredFromBaseline(baseline[1])
	movedB.Position = 1
	newC := DesiredElement{
		CatalogID: primitive.NewObjectID(),
		Position:  2,
		Sets:      intp(5),
		Reps:      intp(5),
	}

	staged, err := DiffDay(baseline, []DesiredElement{movedB, newC})
	require.NoError(t, err)
	require.Len(t, staged, 3)

	byAction := map[domain.OverrideAction]domain.Override{}
	for _, ov := range staged {
		byAction[ov.Action] = ov
	}

	replace := byAction[domain.OverrideReplace]
	require.NotNil(t, replace.TemplateElementID)
	assert.Equal(t, b.ID, *replace.TemplateElementID)
	assert.Equal(t, intp(1), replace.Payload.Position)

	remove := byAction[domain.OverrideRemove]
	require.NotNil(t, remove.TemplateElementID)
	assert.Equal(t, a.ID, *remove.TemplateElementID)

	add := byAction[domain.OverrideAdd]
	assert.Nil(t, add.TemplateElementID)
	assert.Equal(t, newC.CatalogID, add.Payload.CatalogID)
}

func TestDiffDayMissingCatalogRef(t *testing.T) {
	baseline := Materialize(workoutTemplate(element(1, 3, 8)),
		primitive.NewObjectID(), day("2024-02-05"))

	_, err := DiffDay(baseline, []DesiredElement{{Position: 1}})
	assert.ErrorIs(t, err, ErrMissingCatalogRef)
}

// A desired element repeating a claimed source id becomes a bare add.
func TestDiffDayDuplicateSource(t *testing.T) {
	baseline := Materialize(workoutTemplate(element(1, 3, 8)),
		primitive.NewObjectID(), day("2024-02-05"))

	first := desiredFromBaseline(baseline[0])
	second := desiredFromBaseline(baseline[0])
	second.Position = 2

	staged, err := DiffDay(baseline, []DesiredElement{first, second})
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, domain.OverrideAdd, staged[0].Action)
	assert.Nil(t, staged[0].TemplateElementID)
}

// A source id the baseline no longer knows (stale client) degrades to an add.
func TestDiffDayUnknownSource(t *testing.T) {
	baseline := Materialize(workoutTemplate(element(1, 3, 8)),
		primitive.NewObjectID(), day("2024-02-05"))

	stale := primitive.NewObjectID()
	ghost := DesiredElement{
		TemplateElementID: &stale,
		CatalogID:         primitive.NewObjectID(),
		Position:          2,
	}
	staged, err := DiffDay(baseline, []DesiredElement{desiredFromBaseline(baseline[0]), ghost})
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, domain.OverrideAdd, staged[0].Action)
}

// Round trip: resolve a day, feed the resolved list back as the desired list,
// and the diff against the same baseline must stage an equivalent set; in
// particular, a clean baseline stages nothing new.
func TestDiffDayRoundTripNoOp(t *testing.T) {
	template := workoutTemplate(element(1, 3, 8), element(2, 4, 10))
	planID := primitive.NewObjectID()
	date := day("2024-02-05")

	baseline := Materialize(template, planID, date)
	resolved := Resolve(baseline, nil)

	desired := make([]DesiredElement, 0, len(resolved))
	for _, el := range resolved {
		desired = append(desired, DesiredElement{
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

	staged, err := DiffDay(baseline, desired)
	require.NoError(t, err)
	assert.Empty(t, staged, "committing the currently-resolved list is a no-op")
}
