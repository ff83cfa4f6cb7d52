package engine

import (
	"fitarc/backend/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SelectorPrefs carries the user profile fields that template matching
// evaluates against.
type SelectorPrefs struct {
	Goal       string
	Equipment  domain.EquipmentLevel
	Experience domain.ExperienceLevel
}

// Ordinal ranks for the fixed equipment and difficulty scales. Values absent
// from the maps are unranked and treated as always compatible.
var equipmentRank = map[domain.EquipmentLevel]int{
	domain.EquipmentBodyweight: 0,
	domain.EquipmentDumbbells:  1,
	domain.EquipmentFullGym:    2,
}

var experienceRank = map[domain.ExperienceLevel]int{
	domain.ExperienceBeginner:     0,
	domain.ExperienceIntermediate: 1,
	domain.ExperienceAdvanced:     2,
}

// equipmentCompatible reports whether a template's required equipment is
// available to the user. A template with no stated equipment always matches;
// an unranked user level only matches unstated requirements.
func equipmentCompatible(t *domain.Template, prefs SelectorPrefs) bool {
	need, ok := equipmentRank[t.Equipment]
	if !ok {
		return true
	}
	have, ok := equipmentRank[prefs.Equipment]
	if !ok {
		return false
	}
	return need <= have
}

// difficultyWithinOne reports whether the template difficulty is within one
// level of the user's experience. Unrecognized or missing difficulty always
// matches.
func difficultyWithinOne(t *domain.Template, prefs SelectorPrefs) bool {
	tl, ok := experienceRank[t.Difficulty]
	if !ok {
		return true
	}
	ul, ok := experienceRank[prefs.Experience]
	if !ok {
		return true
	}
	diff := tl - ul
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

func goalMatches(t *domain.Template, prefs SelectorPrefs) bool {
	return prefs.Goal != "" && t.HasGoal(prefs.Goal)
}

// matchTiers is the ordered list of progressively relaxed match predicates.
// Evaluated short-circuit: the first tier with at least one candidate wins.
// New tiers slot in without touching the selection flow.
var matchTiers = []func(*domain.Template, SelectorPrefs) bool{
	func(t *domain.Template, p SelectorPrefs) bool {
		return goalMatches(t, p) && equipmentCompatible(t, p) && difficultyWithinOne(t, p)
	},
	func(t *domain.Template, p SelectorPrefs) bool {
		return goalMatches(t, p) && equipmentCompatible(t, p)
	},
	goalMatches,
	func(t *domain.Template, p SelectorPrefs) bool {
		return equipmentCompatible(t, p) && difficultyWithinOne(t, p)
	},
	equipmentCompatible,
	difficultyWithinOne,
	func(*domain.Template, SelectorPrefs) bool { return true },
}

// SelectTemplate picks the template for a day-kind tag and slot.
//
// A pinned template id short-circuits selection while it still exists in the
// pool; a pin pointing at a removed template falls through to live matching.
// The tag restricts the pool as a preference, not a hard filter: an empty
// tag subset falls back to the whole pool. Within the first non-empty match
// tier, the pick is slotIndex mod candidate count, so the same slot always
// resolves to the same template while distinct slots sharing a tag rotate.
//
// Returns nil only when the pool itself is empty. Selection never errors.
func SelectTemplate(tag string, pool []domain.Template, prefs SelectorPrefs, slotIndex int, pinnedID primitive.ObjectID) *domain.Template {
	if len(pool) == 0 {
		return nil
	}

	if pinnedID != primitive.NilObjectID {
		for i := range pool {
			if pool[i].ID == pinnedID {
				return &pool[i]
			}
		}
		// Pinned template no longer visible; fall through to live selection.
	}

	subset := make([]*domain.Template, 0, len(pool))
	for i := range pool {
		if pool[i].HasTag(tag) {
			subset = append(subset, &pool[i])
		}
	}
	if len(subset) == 0 {
		for i := range pool {
			subset = append(subset, &pool[i])
		}
	}

	for _, tier := range matchTiers {
		var candidates []*domain.Template
		for _, t := range subset {
			if tier(t, prefs) {
				candidates = append(candidates, t)
			}
		}
		if len(candidates) > 0 {
			return candidates[slotIndex%len(candidates)]
		}
	}
	// Unreachable: the last tier accepts everything and subset is non-empty.
	return nil
}

// SelectMealTemplate picks the meal template for an eating mode. The fallback
// chain is pinned id, then exact eating-mode tag match, then the first
// template in the pool. Meal templates carry no equipment/difficulty scoping,
// so there are no tiers here.
func SelectMealTemplate(pool []domain.Template, eatingMode string, pinnedID primitive.ObjectID) *domain.Template {
	if len(pool) == 0 {
		return nil
	}
	if pinnedID != primitive.NilObjectID {
		for i := range pool {
			if pool[i].ID == pinnedID {
				return &pool[i]
			}
		}
	}
	for i := range pool {
		if pool[i].HasTag(eatingMode) {
			return &pool[i]
		}
	}
	return &pool[0]
}
