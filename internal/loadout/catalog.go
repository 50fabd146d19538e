package loadout

import (
	"strconv"

	"github.com/verte-zerg/skilldrill/internal/model"
)

var fakeAttackSkills = map[model.SkillRef]struct{}{
	{Weapon: "Greatsword", Skill: model.SkillQ}: {},
	{Weapon: "Sword", Skill: model.SkillE}:      {},
	{Weapon: "Axe", Skill: model.SkillE}:        {},
}

// FakeAttackEligible reports whether a weapon skill has a fake-attack variant.
func FakeAttackEligible(ref model.SkillRef) bool {
	_, ok := fakeAttackSkills[ref]
	return ok
}

// Components enumerates every drillable component, slot-ascending then in
// skill order. Each assigned slot yields one component per skill plus a
// fake-attack variant for eligible skills when fakeAttacks is set. Unset
// bindings default to the slot digit.
func Components(slots [model.SlotCount]model.Weapon, bindings [model.SlotCount]string, fakeAttacks bool, cancelKey string) []model.Component {
	var out []model.Component
	for i, weapon := range slots {
		if weapon == "" {
			continue
		}
		slot := i + 1
		slotKey := bindings[i]
		if slotKey == "" {
			slotKey = strconv.Itoa(slot)
		}
		for _, skill := range model.Skills {
			ref := model.SkillRef{Weapon: weapon, Skill: skill}
			out = append(out, model.Component{
				Key:         model.JoinKey(slotKey, string(skill)),
				Description: describe(ref, false),
				Slot:        slot,
				Weapon:      weapon,
				Skill:       skill,
			})
			if fakeAttacks && cancelKey != "" && FakeAttackEligible(ref) {
				out = append(out, model.Component{
					Key:         model.JoinKey(slotKey, string(skill), cancelKey),
					Description: describe(ref, true),
					Slot:        slot,
					Weapon:      weapon,
					Skill:       skill,
					IsFake:      true,
					CancelKey:   cancelKey,
				})
			}
		}
	}
	return out
}

func describe(ref model.SkillRef, fake bool) string {
	desc := string(ref.Weapon) + " " + string(ref.Skill)
	if fake {
		desc += " (Fake)"
	}
	return desc
}
