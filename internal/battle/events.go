package battle

//go:generate go tool mockgen -destination=./mocks/broadcaster_mock.go -package=mocks . Broadcaster

type EventType string

const (
	EventUnitSpawned   EventType = "unit_spawned"
	EventUnitDestroyed EventType = "unit_destroyed"
	EventUnitDamaged   EventType = "unit_damaged"
	EventMatchEnded    EventType = "match_ended"
)

// Event is a discrete change reported alongside the tick's positions.
// For match_ended, Side is the winning side.
type Event struct {
	Type      EventType `json:"type" msgpack:"type"`
	UnitID    UnitID    `json:"id,omitempty" msgpack:"id,omitempty"`
	Archetype Archetype `json:"archetype,omitempty" msgpack:"archetype,omitempty"`
	Side      Side      `json:"side" msgpack:"side"`
}

type Pose struct {
	X        float64 `json:"x" msgpack:"x"`
	Y        float64 `json:"y" msgpack:"y"`
	Rotation float64 `json:"rotation" msgpack:"rotation"`
}

// Frame is everything a match publishes for one tick.
type Frame struct {
	Type      string          `json:"type" msgpack:"type"`
	MatchID   string          `json:"match" msgpack:"match"`
	Tick      uint64          `json:"tick" msgpack:"tick"`
	Positions map[UnitID]Pose `json:"positions" msgpack:"positions"`
	Events    []Event         `json:"events,omitempty" msgpack:"events,omitempty"`
}

// Broadcaster fans a frame out to the clients of a match.
// Implementations must not block the tick.
type Broadcaster interface {
	Broadcast(f Frame)
}

// Ended returns the winner if the frame carries a match_ended event.
func (f Frame) Ended() (Side, bool) {
	for _, e := range f.Events {
		if e.Type == EventMatchEnded {
			return e.Side, true
		}
	}
	return 0, false
}
