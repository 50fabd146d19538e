// Package loadout holds weapon-slot assignments and keybindings and derives
// the drillable component catalog from them.
package loadout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/verte-zerg/skilldrill/internal/keys"
	"github.com/verte-zerg/skilldrill/internal/model"
)

// Validation errors returned by the mutators. A failed mutation leaves the
// loadout unchanged.
var (
	ErrInvalidSlot         = errors.New("invalid slot")
	ErrInvalidWeapon       = errors.New("invalid weapon")
	ErrDuplicateKeybinding = errors.New("keybinding already in use")
	ErrCancelKeyCollision  = errors.New("keybinding collides with cancel key")
	ErrEmptyKeybinding     = errors.New("keybinding is empty")
	ErrInvalidKeybinding   = errors.New("keybinding contains a comma")
)

// DefaultCancelKey is the cancel key used for fake attacks when none is set.
const DefaultCancelKey = "x"

// DefaultSlots is the weapon assignment used when none is configured.
var DefaultSlots = [model.SlotCount]model.Weapon{
	"LongBow",
	"Reaper",
	"Spear",
	"Axe",
	"Slasher",
	"Pistols",
	"Sword",
	"Greatsword",
}

// Loadout is the weapon and keybinding configuration for the eight slots.
type Loadout struct {
	slots       [model.SlotCount]model.Weapon
	bindings    [model.SlotCount]string
	fakeAttacks bool
	cancelKey   string
}

// Default returns the default loadout.
func Default() *Loadout {
	return &Loadout{slots: DefaultSlots, cancelKey: DefaultCancelKey}
}

// FromConfig builds a loadout from a resolved config and validates the
// binding table as a whole.
func FromConfig(cfg model.Config) (*Loadout, error) {
	l := &Loadout{cancelKey: DefaultCancelKey}
	for i, w := range cfg.Slots {
		if err := l.SetWeapon(i+1, string(w)); err != nil {
			return nil, err
		}
	}
	if cfg.CancelKey != "" {
		l.cancelKey = keys.Normalize(cfg.CancelKey)
	}
	for i, b := range cfg.Keybindings {
		l.bindings[i] = keys.Normalize(b)
	}
	l.fakeAttacks = cfg.FakeAttacks
	if err := l.validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loadout) validate() error {
	if err := checkToken(l.cancelKey); err != nil {
		return fmt.Errorf("cancel key: %w", err)
	}
	seen := map[string]int{}
	for slot := 1; slot <= model.SlotCount; slot++ {
		if err := checkToken(l.KeyFor(slot)); err != nil {
			return fmt.Errorf("slot %d: %w", slot, err)
		}
		key := strings.ToLower(l.KeyFor(slot))
		if other, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q is bound to slots %d and %d", ErrDuplicateKeybinding, key, other, slot)
		}
		seen[key] = slot
	}
	if l.fakeAttacks {
		if slot, ok := l.Lane(l.cancelKey); ok {
			return fmt.Errorf("%w: %q is bound to slot %d", ErrCancelKeyCollision, l.cancelKey, slot)
		}
	}
	return nil
}

// checkToken rejects tokens that cannot be part of a component key, which
// joins tokens with commas.
func checkToken(token string) error {
	if token == "" {
		return ErrEmptyKeybinding
	}
	if strings.Contains(token, ",") {
		return fmt.Errorf("%w: %q", ErrInvalidKeybinding, token)
	}
	return nil
}

// Apply writes the loadout back into cfg.
func (l *Loadout) Apply(cfg *model.Config) {
	cfg.Slots = l.slots
	cfg.Keybindings = l.bindings
	cfg.FakeAttacks = l.fakeAttacks
	cfg.CancelKey = l.cancelKey
}

// Weapon returns the weapon in slot, or "" when unassigned.
func (l *Loadout) Weapon(slot int) model.Weapon {
	return l.slots[mustIndex(slot)]
}

// KeyFor returns the key token bound to slot, defaulting to the slot digit.
func (l *Loadout) KeyFor(slot int) string {
	if b := l.bindings[mustIndex(slot)]; b != "" {
		return b
	}
	return strconv.Itoa(slot)
}

// FakeAttacks reports whether fake-attack components are enabled.
func (l *Loadout) FakeAttacks() bool {
	return l.fakeAttacks
}

// CancelKey returns the fake-attack cancel key token.
func (l *Loadout) CancelKey() string {
	return l.cancelKey
}

// Slots returns the weapon assignment indexed by slot-1.
func (l *Loadout) Slots() [model.SlotCount]model.Weapon {
	return l.slots
}

// Keybindings returns the effective key token for every slot, indexed by slot-1.
func (l *Loadout) Keybindings() [model.SlotCount]string {
	var out [model.SlotCount]string
	for i := range out {
		out[i] = l.KeyFor(i + 1)
	}
	return out
}

// SetWeapon assigns a weapon to slot. An empty name or "none" clears the slot.
func (l *Loadout) SetWeapon(slot int, name string) error {
	idx, err := slotIndex(slot)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "none") {
		l.slots[idx] = ""
		return nil
	}
	weapon, ok := model.ParseWeapon(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidWeapon, name)
	}
	l.slots[idx] = weapon
	return nil
}

// SetKeybinding binds token to slot. The token must be unique across slots
// and must differ from the cancel key while fake attacks are enabled.
func (l *Loadout) SetKeybinding(slot int, token string) error {
	idx, err := slotIndex(slot)
	if err != nil {
		return err
	}
	token = keys.Normalize(token)
	if err := checkToken(token); err != nil {
		return err
	}
	for other := 1; other <= model.SlotCount; other++ {
		if other == slot {
			continue
		}
		if keys.Equal(l.KeyFor(other), token) {
			return fmt.Errorf("%w: %q is bound to slot %d", ErrDuplicateKeybinding, token, other)
		}
	}
	if l.fakeAttacks && keys.Equal(token, l.cancelKey) {
		return fmt.Errorf("%w: %q", ErrCancelKeyCollision, token)
	}
	l.bindings[idx] = token
	return nil
}

// SetCancelKey changes the fake-attack cancel key.
func (l *Loadout) SetCancelKey(token string) error {
	token = keys.Normalize(token)
	if err := checkToken(token); err != nil {
		return err
	}
	if l.fakeAttacks {
		if slot, ok := l.Lane(token); ok {
			return fmt.Errorf("%w: %q is bound to slot %d", ErrCancelKeyCollision, token, slot)
		}
	}
	l.cancelKey = token
	return nil
}

// SetFakeAttacks enables or disables fake attacks. Enabling fails when the
// cancel key is already bound to a slot.
func (l *Loadout) SetFakeAttacks(enabled bool) error {
	if enabled {
		if slot, ok := l.Lane(l.cancelKey); ok {
			return fmt.Errorf("%w: %q is bound to slot %d", ErrCancelKeyCollision, l.cancelKey, slot)
		}
	}
	l.fakeAttacks = enabled
	return nil
}

// Lane returns the slot whose key matches token.
func (l *Loadout) Lane(token string) (int, bool) {
	for slot := 1; slot <= model.SlotCount; slot++ {
		if keys.Equal(l.KeyFor(slot), token) {
			return slot, true
		}
	}
	return 0, false
}

// Components enumerates the drillable components of this loadout.
func (l *Loadout) Components() []model.Component {
	return Components(l.slots, l.Keybindings(), l.fakeAttacks, l.cancelKey)
}

func slotIndex(slot int) (int, error) {
	if slot < 1 || slot > model.SlotCount {
		return 0, fmt.Errorf("%w: %d (expected 1-%d)", ErrInvalidSlot, slot, model.SlotCount)
	}
	return slot - 1, nil
}

func mustIndex(slot int) int {
	idx, err := slotIndex(slot)
	if err != nil {
		panic(err)
	}
	return idx
}
