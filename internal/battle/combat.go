package battle

import "math"

// Hit records one landed attack inside a collision.
type Hit struct {
	Attacker *Unit
	Defender *Unit
	Damage   float64
}

// CalcDamage scales an attack stat by the attacker's speed. Slow units deal the
// base stat, fast ones get a convex bonus.
func CalcDamage(attack, speed float64) float64 {
	if speed < 2 {
		return attack
	}
	return attack * (speed*speed/30 + 1)
}

// resolveCollision applies the outcome of a and b overlapping and returns the hits that landed.
func resolveCollision(a, b *Unit) []Hit {
	if a.Side == b.Side {
		separateFriendly(a, b)
		return nil
	}

	direction := bearing(a.X, a.Y, b.X, b.Y)
	a.NoticeHostile(direction)
	b.NoticeHostile(direction + math.Pi)

	var hits []Hit
	if h, ok := strike(a, b, direction); ok {
		hits = append(hits, h)
	}
	if h, ok := strike(b, a, direction+math.Pi); ok {
		hits = append(hits, h)
	}

	pushApart(a, b, direction)
	return hits
}

// strike lets attacker hit defender if it is off cooldown and roughly facing it.
// direction is the bearing from attacker to defender.
func strike(attacker, defender *Unit, direction float64) (Hit, bool) {
	if !attacker.CanAttack() {
		return Hit{}, false
	}
	alignment := math.Cos(direction - attacker.Rotation)
	if alignment <= 0 {
		return Hit{}, false
	}
	impulse := alignment * attacker.Stats.Weight * attacker.Speed
	damage := CalcDamage(attacker.Stats.Attack, attacker.Speed)
	defender.ApplyDamage(direction, impulse, damage)
	attacker.Attack()
	return Hit{Attacker: attacker, Defender: defender, Damage: damage}, true
}

// separateFriendly nudges two same-side units apart and slows them down.
func separateFriendly(a, b *Unit) {
	a.LimitSpeed()
	b.LimitSpeed()
	dist := math.Hypot(a.X-b.X, a.Y-b.Y)
	if dist == 0 {
		return
	}
	dx := (a.X - b.X) / dist / 10
	dy := (a.Y - b.Y) / dist / 10
	a.X += dx
	a.Y += dy
	b.X -= dx
	b.Y -= dy
}

// pushApart moves an opposing pair to touching distance along direction,
// the heavier unit moving less.
func pushApart(a, b *Unit, direction float64) {
	reach := (a.Stats.Size + b.Stats.Size) / 2
	xDiff := (b.X - a.X) - math.Sin(direction)*reach
	yDiff := (b.Y - a.Y) + math.Cos(direction)*reach
	prop := a.Stats.Weight / (a.Stats.Weight + b.Stats.Weight)
	a.X += xDiff * (1 - prop)
	a.Y += yDiff * (1 - prop)
	b.X -= xDiff * prop
	b.Y -= yDiff * prop
}
