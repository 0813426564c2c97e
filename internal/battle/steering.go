package battle

import "math"

const (
	directionTolerance = 0.05
	distanceTolerance  = 4.0
	// Inside 5000*accel a unit only moves forward once it is within 4 degrees of its bearing.
	precisionWindow = 5000.0
)

// steer turns and throttles a commanded unit for one tick.
func steer(u *Unit) {
	switch {
	case u.HasTarget:
		diff := alignDirection(u, bearing(u.X, u.Y, u.TargetX, u.TargetY))
		adjustSpeed(u, diff)
	case u.NeedAlign:
		if alignDirection(u, u.TargetDirection) < directionTolerance {
			u.NeedAlign = false
		}
	case u.HasHostile:
		alignDirection(u, u.HostileDirection)
	}
}

// bearing is the facing (0 = up, clockwise) that points from (x, y) to (tx, ty).
func bearing(x, y, tx, ty float64) float64 {
	return math.Atan2(ty-y, tx-x) + math.Pi/2
}

// alignDirection issues at most one turn toward target along the shorter
// arc and returns the angular error before the turn, measured across the
// 0/2π seam so it never exceeds π.
func alignDirection(u *Unit, target float64) float64 {
	target = normAngle(target)
	current := normAngle(u.Rotation)
	diff := math.Abs(target - current)
	off := math.Min(diff, 2*math.Pi-diff)
	if off < directionTolerance {
		return off
	}
	if current < target {
		if target < current+math.Pi {
			u.TurnRight()
		} else {
			u.TurnLeft()
		}
	} else {
		if target > current-math.Pi {
			u.TurnLeft()
		} else {
			u.TurnRight()
		}
	}
	return off
}

func adjustSpeed(u *Unit, diff float64) {
	d := u.distanceTo(u.TargetX, u.TargetY)
	switch {
	case d < distanceTolerance:
		u.Speed = 0
		u.HasTarget = false
	case diff > math.Pi/2:
		u.DecSpeed()
	case diff > math.Pi/45 && d < precisionWindow*u.Stats.Accel:
		u.DecSpeed()
	case d < u.SafeDistance():
		if u.Speed*u.Speed/2/d < u.Stats.Decel {
			u.IncSpeed()
		} else {
			u.DecSpeed()
		}
	default:
		u.IncSpeed()
	}
}

// normAngle maps a into [0, 2π).
func normAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	if a >= 2*math.Pi {
		a = 0
	}
	return a
}
