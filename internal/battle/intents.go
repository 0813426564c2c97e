package battle

type intentKind uint8

const (
	intentTarget intentKind = iota
	intentSpeed
	intentTurn
)

// TargetIntent orders a unit to (X, Y) and to face Direction once there.
type TargetIntent struct {
	ID        UnitID  `json:"id" msgpack:"id"`
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	Direction float64 `json:"direction" msgpack:"direction"`
}

type intent struct {
	kind   intentKind
	target TargetIntent
	id     UnitID
	delta  int

	// owned intents are dropped unless the unit belongs to owner.
	owned bool
	owner Side
}

func (in intent) unitID() UnitID {
	if in.kind == intentTarget {
		return in.target.ID
	}
	return in.id
}

// apply mutates u; only called from the first phase of a tick.
func (in intent) apply(u *Unit) {
	switch in.kind {
	case intentTarget:
		u.TargetX = in.target.X
		u.TargetY = in.target.Y
		u.TargetDirection = in.target.Direction
		u.HasTarget = true
		u.NeedAlign = true
	case intentSpeed:
		if in.delta > 0 {
			u.IncSpeed()
		} else if in.delta < 0 {
			u.DecSpeed()
		}
	case intentTurn:
		if in.delta > 0 {
			u.TurnRight()
		} else if in.delta < 0 {
			u.TurnLeft()
		}
	}
}

// SetUnitIntent queues a move order for the next tick.
func (m *Match) SetUnitIntent(id UnitID, targetX, targetY, targetDirection float64) {
	m.enqueue(intent{kind: intentTarget, target: TargetIntent{ID: id, X: targetX, Y: targetY, Direction: targetDirection}})
}

// SetUnitIntents queues several independent move orders, e.g. a formation laid out by the client.
func (m *Match) SetUnitIntents(orders []TargetIntent) {
	m.intentMu.Lock()
	defer m.intentMu.Unlock()
	for _, o := range orders {
		m.pending = append(m.pending, intent{kind: intentTarget, target: o})
	}
}

// AdjustUnitSpeed queues one accelerate (delta > 0) or brake (delta < 0) input.
func (m *Match) AdjustUnitSpeed(id UnitID, delta int) {
	m.enqueue(intent{kind: intentSpeed, id: id, delta: delta})
}

// TurnUnit queues one right (delta > 0) or left (delta < 0) turn input.
func (m *Match) TurnUnit(id UnitID, delta int) {
	m.enqueue(intent{kind: intentTurn, id: id, delta: delta})
}

// Orders issues intents on behalf of one side; orders for the other side's units are ignored.
type Orders struct {
	m    *Match
	side Side
}

func (m *Match) Orders(side Side) Orders { return Orders{m: m, side: side} }

func (o Orders) SetUnitIntents(orders []TargetIntent) {
	o.m.intentMu.Lock()
	defer o.m.intentMu.Unlock()
	for _, t := range orders {
		o.m.pending = append(o.m.pending, intent{kind: intentTarget, target: t, owned: true, owner: o.side})
	}
}

func (o Orders) AdjustUnitSpeed(id UnitID, delta int) {
	o.m.enqueue(intent{kind: intentSpeed, id: id, delta: delta, owned: true, owner: o.side})
}

func (o Orders) TurnUnit(id UnitID, delta int) {
	o.m.enqueue(intent{kind: intentTurn, id: id, delta: delta, owned: true, owner: o.side})
}

func (m *Match) enqueue(in intent) {
	m.intentMu.Lock()
	m.pending = append(m.pending, in)
	m.intentMu.Unlock()
}

func (m *Match) drainIntents() []intent {
	m.intentMu.Lock()
	defer m.intentMu.Unlock()
	out := m.pending
	m.pending = nil
	return out
}
