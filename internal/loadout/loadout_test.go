package loadout

import (
	"errors"
	"testing"

	"github.com/verte-zerg/skilldrill/internal/drill"
	"github.com/verte-zerg/skilldrill/internal/keys"
	"github.com/verte-zerg/skilldrill/internal/model"
)

func TestSetKeybindingRejectsDuplicate(t *testing.T) {
	l := Default()
	if err := l.SetKeybinding(5, "f"); err != nil {
		t.Fatalf("bind slot 5: %v", err)
	}
	err := l.SetKeybinding(3, "F")
	if !errors.Is(err, ErrDuplicateKeybinding) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if got := l.KeyFor(3); got != "3" {
		t.Fatalf("expected slot 3 unchanged, got %q", got)
	}
}

func TestSetKeybindingRejectsDefaultDigitOfOtherSlot(t *testing.T) {
	l := Default()
	if err := l.SetKeybinding(3, "5"); !errors.Is(err, ErrDuplicateKeybinding) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestSetKeybindingRejectsCancelKey(t *testing.T) {
	l := Default()
	if err := l.SetFakeAttacks(true); err != nil {
		t.Fatalf("enable fake attacks: %v", err)
	}
	if err := l.SetKeybinding(3, "x"); !errors.Is(err, ErrCancelKeyCollision) {
		t.Fatalf("expected cancel collision, got %v", err)
	}
	if err := l.SetFakeAttacks(false); err != nil {
		t.Fatalf("disable fake attacks: %v", err)
	}
	if err := l.SetKeybinding(3, "x"); err != nil {
		t.Fatalf("expected x allowed without fake attacks, got %v", err)
	}
	if err := l.SetFakeAttacks(true); !errors.Is(err, ErrCancelKeyCollision) {
		t.Fatalf("expected enabling to fail, got %v", err)
	}
	if l.FakeAttacks() {
		t.Fatalf("expected fake attacks to stay disabled")
	}
}

func TestSetKeybindingValidation(t *testing.T) {
	l := Default()
	if err := l.SetKeybinding(0, "a"); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("expected invalid slot, got %v", err)
	}
	if err := l.SetKeybinding(9, "a"); !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("expected invalid slot, got %v", err)
	}
	if err := l.SetKeybinding(2, "  "); !errors.Is(err, ErrEmptyKeybinding) {
		t.Fatalf("expected empty keybinding, got %v", err)
	}
}

func TestSetCancelKeyCollision(t *testing.T) {
	l := Default()
	if err := l.SetFakeAttacks(true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := l.SetCancelKey("4"); !errors.Is(err, ErrCancelKeyCollision) {
		t.Fatalf("expected collision, got %v", err)
	}
	if l.CancelKey() != DefaultCancelKey {
		t.Fatalf("expected cancel key unchanged, got %q", l.CancelKey())
	}
	if err := l.SetCancelKey("Space"); err != nil {
		t.Fatalf("set cancel key: %v", err)
	}
}

func TestSetWeapon(t *testing.T) {
	l := Default()
	if err := l.SetWeapon(2, "whip"); err != nil {
		t.Fatalf("set weapon: %v", err)
	}
	if got := l.Weapon(2); got != "Whip" {
		t.Fatalf("expected Whip, got %q", got)
	}
	if err := l.SetWeapon(2, "Banana"); !errors.Is(err, ErrInvalidWeapon) {
		t.Fatalf("expected invalid weapon, got %v", err)
	}
	if got := l.Weapon(2); got != "Whip" {
		t.Fatalf("expected weapon unchanged, got %q", got)
	}
	if err := l.SetWeapon(2, "none"); err != nil {
		t.Fatalf("clear slot: %v", err)
	}
	if got := l.Weapon(2); got != "" {
		t.Fatalf("expected empty slot, got %q", got)
	}
}

func TestFromConfigAllowsSwappedBindings(t *testing.T) {
	cfg := model.Config{Slots: DefaultSlots}
	cfg.Keybindings[0] = "2"
	cfg.Keybindings[1] = "1"
	l, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("from config: %v", err)
	}
	if l.KeyFor(1) != "2" || l.KeyFor(2) != "1" {
		t.Fatalf("unexpected bindings: %v", l.Keybindings())
	}
}

func TestFromConfigRejectsDuplicates(t *testing.T) {
	cfg := model.Config{Slots: DefaultSlots}
	cfg.Keybindings[0] = "3"
	if _, err := FromConfig(cfg); !errors.Is(err, ErrDuplicateKeybinding) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestLane(t *testing.T) {
	l := Default()
	if err := l.SetKeybinding(6, "Mouse4"); err != nil {
		t.Fatalf("bind: %v", err)
	}
	slot, ok := l.Lane("mouse4")
	if !ok || slot != 6 {
		t.Fatalf("expected slot 6, got %d %v", slot, ok)
	}
	if _, ok := l.Lane("z"); ok {
		t.Fatalf("expected no lane for z")
	}
}

func TestCommaBindingProducesCompletableComponents(t *testing.T) {
	l := Default()
	if err := l.SetKeybinding(1, ","); err != nil {
		t.Fatalf("bind comma: %v", err)
	}
	if got := l.KeyFor(1); got != keys.Comma {
		t.Fatalf("expected %q, got %q", keys.Comma, got)
	}
	comp := l.Components()[0]
	required := comp.RequiredKeys()
	if len(required) != 2 || required[0] != keys.Comma || required[1] != "Q" {
		t.Fatalf("unexpected required keys %q for %q", required, comp.Key)
	}

	m := drill.NewMachine(drill.ResetOnMismatch)
	m.Start(required)
	for _, in := range []string{",", "q"} {
		token, _ := keys.FromEvent(keys.Event{Key: in})
		m.Input(token)
	}
	if m.State() != drill.Complete || m.Errors() != 0 {
		t.Fatalf("expected clean completion, got state %v errors %d", m.State(), m.Errors())
	}
}

func TestTokensWithCommaRejected(t *testing.T) {
	l := Default()
	if err := l.SetKeybinding(2, "a,b"); !errors.Is(err, ErrInvalidKeybinding) {
		t.Fatalf("expected invalid keybinding, got %v", err)
	}
	if got := l.KeyFor(2); got != "2" {
		t.Fatalf("expected slot 2 unchanged, got %q", got)
	}
	if err := l.SetCancelKey("x,y"); !errors.Is(err, ErrInvalidKeybinding) {
		t.Fatalf("expected invalid cancel key, got %v", err)
	}
	if got := l.CancelKey(); got != DefaultCancelKey {
		t.Fatalf("expected cancel key unchanged, got %q", got)
	}

	cfg := model.Config{Slots: DefaultSlots}
	cfg.Keybindings[4] = "LeftCtrl,q"
	if _, err := FromConfig(cfg); !errors.Is(err, ErrInvalidKeybinding) {
		t.Fatalf("expected invalid keybinding from config, got %v", err)
	}
}
