package battle

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestCalcDamage(t *testing.T) {
	cases := []struct {
		attack, speed, want float64
	}{
		{10, 0, 10},
		{10, 1.99, 10},
		{10, 3, 13},
		{30, 6, 66},
	}
	for _, c := range cases {
		if got := CalcDamage(c.attack, c.speed); math.Abs(got-c.want) > eps {
			t.Errorf("CalcDamage(%v, %v) = %v, want %v", c.attack, c.speed, got, c.want)
		}
	}
}

func TestCalcDamageMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		attack := rapid.Float64Range(0, 100).Draw(t, "attack")
		lo := rapid.Float64Range(0, 20).Draw(t, "lo")
		hi := rapid.Float64Range(lo, 20).Draw(t, "hi")
		if CalcDamage(attack, lo) > CalcDamage(attack, hi) {
			t.Fatalf("damage dropped from %v to %v as speed rose from %v to %v",
				CalcDamage(attack, lo), CalcDamage(attack, hi), lo, hi)
		}
		if CalcDamage(attack, lo) < attack {
			t.Fatalf("damage %v below the attack stat %v", CalcDamage(attack, lo), attack)
		}
	})
}

// a sits below b; a faces up (toward b), b faces down (toward a).
func facingPair(aArch, bArch Archetype) (*Unit, *Unit) {
	a := newUnit(1, 1000, 1000, aArch, SideOne, DefaultStats[aArch])
	b := newUnit(2, 1000, 950, bArch, SideTwo, DefaultStats[bArch])
	return a, b
}

func TestSameSideNeverDamages(t *testing.T) {
	a := newUnit(1, 1000, 1000, Cavalry, SideOne, DefaultStats[Cavalry])
	b := newUnit(2, 1000, 950, Infantry, SideOne, DefaultStats[Infantry])
	a.Speed, b.Speed = 8, 5
	b.Rotation = math.Pi

	if hits := resolveCollision(a, b); len(hits) != 0 {
		t.Fatalf("friendly collision produced hits: %+v", hits)
	}
	if a.HP != a.Stats.MaxHP || b.HP != b.Stats.MaxHP {
		t.Fatalf("friendly collision changed hp: %v, %v", a.HP, b.HP)
	}
	if a.Speed >= 8 || b.Speed >= 5 {
		t.Fatalf("friendly bump did not slow units: %v, %v", a.Speed, b.Speed)
	}
	if d := math.Hypot(a.X-b.X, a.Y-b.Y); math.Abs(d-50.2) > eps {
		t.Fatalf("friendly units %v apart, want nudged to 50.2", d)
	}
}

func TestSameSideStackedUnits(t *testing.T) {
	a := newUnit(1, 1000, 1000, Infantry, SideOne, DefaultStats[Infantry])
	b := newUnit(2, 1000, 1000, Infantry, SideOne, DefaultStats[Infantry])
	resolveCollision(a, b)
	if math.IsNaN(a.X) || math.IsNaN(b.Y) {
		t.Fatal("stacked units produced NaN positions")
	}
}

func TestHeadOnCollision(t *testing.T) {
	a, b := facingPair(Infantry, Infantry)
	hits := resolveCollision(a, b)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want both units to strike", len(hits))
	}
	if a.HP != 90 || b.HP != 90 {
		t.Fatalf("hp after exchange = %v, %v; want 90 each", a.HP, b.HP)
	}
	if a.CanAttack() || b.CanAttack() {
		t.Fatal("attackers should be on cooldown")
	}
	if d := math.Hypot(a.X-b.X, a.Y-b.Y); math.Abs(d-78) > 1e-6 {
		t.Fatalf("units %v apart after push, want touching at 78", d)
	}
	if math.Abs(a.Y-1014) > 1e-6 || math.Abs(b.Y-936) > 1e-6 {
		t.Fatalf("equal weights should split the push: a.y=%v b.y=%v", a.Y, b.Y)
	}
}

func TestStrikeNeedsFacing(t *testing.T) {
	a, b := facingPair(Infantry, Infantry)
	b.Rotation = 0 // b turns its back on a

	hits := resolveCollision(a, b)
	if len(hits) != 1 || hits[0].Attacker != a || hits[0].Defender != b {
		t.Fatalf("hits = %+v, want only a striking b", hits)
	}
	if a.HP != a.Stats.MaxHP {
		t.Fatalf("a took damage from a unit facing away: %v", a.HP)
	}
	if !a.HasHostile || !b.HasHostile {
		t.Fatal("both units should notice the contact")
	}
	if math.Abs(normAngle(b.HostileDirection)-math.Pi) > eps {
		t.Fatalf("b should look back toward a, hostile direction %v", b.HostileDirection)
	}
}

func TestStrikeRespectsCooldown(t *testing.T) {
	a, b := facingPair(Infantry, Infantry)
	a.Attack()
	hits := resolveCollision(a, b)
	if len(hits) != 1 || hits[0].Attacker != b {
		t.Fatalf("hits = %+v, want only b striking", hits)
	}
}

func TestChargeDamageAndKnockback(t *testing.T) {
	a, b := facingPair(Cavalry, Infantry)
	a.Speed = 8
	hits := resolveCollision(a, b)

	var charge *Hit
	for i := range hits {
		if hits[i].Attacker == a {
			charge = &hits[i]
		}
	}
	if charge == nil {
		t.Fatal("charging cavalry did not strike")
	}
	if want := CalcDamage(10, 8); math.Abs(charge.Damage-want) > eps {
		t.Fatalf("charge damage = %v, want %v", charge.Damage, want)
	}
	if !b.Shifting() {
		t.Fatal("charged unit should be knocked back")
	}
	if b.shiftY >= 0 {
		t.Fatalf("knockback shiftY = %v, want away from a (negative)", b.shiftY)
	}
}

func TestHeavierUnitMovesLess(t *testing.T) {
	a, b := facingPair(Cavalry, Infantry)
	a.Rotation, b.Rotation = math.Pi, 0 // back to back, nobody strikes
	ay, by := a.Y, b.Y

	if hits := resolveCollision(a, b); len(hits) != 0 {
		t.Fatalf("units facing away struck: %+v", hits)
	}
	movedA, movedB := math.Abs(a.Y-ay), math.Abs(b.Y-by)
	if movedA >= movedB {
		t.Fatalf("cavalry moved %v, infantry %v; heavier unit should move less", movedA, movedB)
	}
	if math.Abs(movedA-28.0/11) > 1e-6 || math.Abs(movedB-280.0/11) > 1e-6 {
		t.Fatalf("push split %v/%v, want weight-proportional 28/11 and 280/11", movedA, movedB)
	}
}
