package battle

import (
	"errors"
	"fmt"
	"math"
)

// Archetype selects the stat table a unit is created with.
type Archetype string

const (
	Commander Archetype = "commander"
	Infantry  Archetype = "infantry"
	Cavalry   Archetype = "cavalry"
)

// Side is one of the two players of a match. 0 = SideOne (bottom), 1 = SideTwo (top).
type Side int

const (
	SideOne Side = 0
	SideTwo Side = 1
)

// ShiftTicks is how long a knockback lasts (1 second at 60 Hz).
const ShiftTicks = 60

const (
	moveDeadzone   = 0.3
	shiftDecay     = 10.0
	turnPenaltyAt  = 0.4
	limitSpeedAt   = 0.5
	limitSpeedRate = 0.8
)

var (
	ErrUnknownArchetype = errors.New("unknown archetype")
	ErrUnknownSide      = errors.New("unknown side")
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideOne {
		return SideTwo
	}
	return SideOne
}

func (s Side) valid() bool { return s == SideOne || s == SideTwo }

type UnitStats struct {
	TurningSpeed   float64 `json:"turning_speed" yaml:"turning_speed"`
	MaxSpeed       float64 `json:"max_speed" yaml:"max_speed"`
	Accel          float64 `json:"accel" yaml:"accel"`
	Decel          float64 `json:"decel" yaml:"decel"`
	Size           float64 `json:"size" yaml:"size"` // diameter, used for collisions only
	Weight         float64 `json:"weight" yaml:"weight"`
	MaxHP          float64 `json:"max_hp" yaml:"max_hp"`
	Attack         float64 `json:"attack" yaml:"attack"`
	AttackCooldown int     `json:"attack_cooldown" yaml:"attack_cooldown"` // ticks
}

// DefaultStats is the canonical archetype table.
var DefaultStats = map[Archetype]UnitStats{
	Commander: {TurningSpeed: 0.03, MaxSpeed: 5, Accel: 0.03, Decel: 0.05, Size: 78, Weight: 12, MaxHP: 600, Attack: 10, AttackCooldown: 5 * 60},
	Infantry:  {TurningSpeed: 0.03, MaxSpeed: 5, Accel: 0.03, Decel: 0.05, Size: 78, Weight: 1, MaxHP: 100, Attack: 10, AttackCooldown: 5 * 60},
	Cavalry:   {TurningSpeed: 0.02, MaxSpeed: 8, Accel: 0.1, Decel: 0.08, Size: 78, Weight: 10, MaxHP: 500, Attack: 10, AttackCooldown: 5 * 60},
}

// ParseArchetype maps a wire/config name to an Archetype.
func ParseArchetype(name string) (Archetype, error) {
	a := Archetype(name)
	if _, ok := DefaultStats[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownArchetype, name)
	}
	return a, nil
}

// Validate reports stat rows that would break the unit invariants.
func (s UnitStats) Validate() error {
	switch {
	case s.MaxSpeed <= 0, s.Accel <= 0, s.Decel <= 0:
		return errors.New("speed stats must be positive")
	case s.Size <= 0, s.Weight <= 0, s.MaxHP <= 0:
		return errors.New("size, weight and hp must be positive")
	case s.TurningSpeed <= 0, s.Attack < 0, s.AttackCooldown < 0:
		return errors.New("turning speed must be positive, attack and cooldown non-negative")
	}
	return nil
}

type UnitID uint32

// Unit is one battlefield entity. Only the owning Match mutates it.
type Unit struct {
	ID        UnitID
	Side      Side
	Archetype Archetype
	Stats     UnitStats

	X        float64
	Y        float64
	Rotation float64 // radians, 0 faces up
	Speed    float64
	HP       float64

	cooldown int

	shifting     bool
	shiftX       float64
	shiftY       float64
	shiftCounter int

	// AI is false for units steered directly by their player.
	AI               bool
	HasTarget        bool
	NeedAlign        bool
	TargetX          float64
	TargetY          float64
	TargetDirection  float64
	HasHostile       bool
	HostileDirection float64
}

func newUnit(id UnitID, x, y float64, arch Archetype, side Side, stats UnitStats) *Unit {
	u := &Unit{
		ID:           id,
		Side:         side,
		Archetype:    arch,
		Stats:        stats,
		X:            x,
		Y:            y,
		HP:           stats.MaxHP,
		shiftCounter: ShiftTicks,
		AI:           arch != Commander,
	}
	if side == SideTwo {
		u.Rotation = math.Pi
	}
	return u
}

func (u *Unit) TurnLeft() {
	u.Rotation -= u.Stats.TurningSpeed
	u.turnPenalty()
}

func (u *Unit) TurnRight() {
	u.Rotation += u.Stats.TurningSpeed
	u.turnPenalty()
}

func (u *Unit) turnPenalty() {
	if u.Speed > u.Stats.MaxSpeed*turnPenaltyAt {
		u.Speed *= 0.99
	}
}

func (u *Unit) IncSpeed() {
	u.Speed += u.Stats.Accel
	if u.Speed > u.Stats.MaxSpeed {
		u.Speed = u.Stats.MaxSpeed
	}
}

func (u *Unit) DecSpeed() {
	u.Speed -= u.Stats.Decel
	if u.Speed < 0 {
		u.Speed = 0
	}
}

// LimitSpeed slows a fast unit down, used when friendly units bump.
func (u *Unit) LimitSpeed() {
	if u.Speed > u.Stats.MaxSpeed*limitSpeedAt {
		u.Speed *= limitSpeedRate
	}
}

// Move advances the unit along its facing. Speeds under the deadzone do not move it.
func (u *Unit) Move() {
	if u.Speed < moveDeadzone {
		return
	}
	step := u.Speed - moveDeadzone
	u.X += math.Sin(u.Rotation) * step
	u.Y -= math.Cos(u.Rotation) * step
}

// Act integrates one tick: steering, movement, knockback and cooldown.
func (u *Unit) Act() {
	if u.AI {
		steer(u)
	}
	u.Move()
	if u.shifting {
		u.shift()
	}
	if u.cooldown > 0 {
		u.cooldown--
	}
}

func (u *Unit) CanAttack() bool { return u.cooldown == 0 }

func (u *Unit) Attack() { u.cooldown = u.Stats.AttackCooldown }

// Cooldown returns the ticks left before the unit may attack again.
func (u *Unit) Cooldown() int { return u.cooldown }

// Shifting reports whether a knockback is still being applied.
func (u *Unit) Shifting() bool { return u.shifting }

// ApplyDamage takes a hit coming from direction: hp loss, slowdown, knockback
// and a hostile cue pointing back at the attacker.
func (u *Unit) ApplyDamage(direction, impulse, damage float64) {
	u.HP -= damage
	u.Speed = math.Min(u.Speed, math.Max(u.Speed*0.5, u.Stats.MaxSpeed*0.2))
	u.shiftX = math.Sin(direction) * impulse / u.Stats.Weight
	u.shiftY = -math.Cos(direction) * impulse / u.Stats.Weight
	u.shifting = true
	u.shiftCounter = ShiftTicks

	u.HasHostile = true
	u.HostileDirection = direction + math.Pi
}

// NoticeHostile records an enemy contact unless one is already known.
func (u *Unit) NoticeHostile(direction float64) {
	if !u.HasHostile {
		u.HasHostile = true
		u.HostileDirection = direction
	}
}

func (u *Unit) shift() {
	u.X += u.shiftX
	u.shiftX = decayShift(u.shiftX)
	u.Y += u.shiftY
	u.shiftY = decayShift(u.shiftY)

	u.shiftCounter--
	if u.shiftCounter == 0 {
		u.shifting = false
		u.shiftCounter = ShiftTicks
	}
}

func decayShift(v float64) float64 {
	if v <= shiftDecay && v >= -shiftDecay {
		return 0
	}
	if v > 0 {
		return v - shiftDecay
	}
	return v + shiftDecay
}

// SafeDistance is the closed-form braking distance from max speed.
func (u *Unit) SafeDistance() float64 {
	return u.Stats.MaxSpeed * u.Stats.MaxSpeed / 2 / u.Stats.Decel
}

func (u *Unit) distanceTo(x, y float64) float64 {
	return math.Hypot(x-u.X, y-u.Y)
}
