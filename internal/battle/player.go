package battle

import "github.com/gorilla/websocket"

type Player struct {
	ID     string
	UserID string
	Side   Side
	Codec  Codec
	Conn   *websocket.Conn
	Send   chan []byte
}

// SignedIn is false for guests, whose results are not recorded.
func (p *Player) SignedIn() bool {
	return p.UserID != "" && p.UserID != "guest"
}

type welcomeMessage struct {
	Type    string `json:"type" msgpack:"type"`
	ID      string `json:"id" msgpack:"id"`
	MatchID string `json:"match" msgpack:"match"`
	Side    Side   `json:"side" msgpack:"side"`
}

// command is an inbound client message.
type command struct {
	Type      string         `json:"type" msgpack:"type"` // target, targets, speed, turn, end
	ID        UnitID         `json:"id" msgpack:"id"`
	X         float64        `json:"x" msgpack:"x"`
	Y         float64        `json:"y" msgpack:"y"`
	Direction float64        `json:"direction" msgpack:"direction"`
	Delta     int            `json:"delta" msgpack:"delta"`
	Orders    []TargetIntent `json:"orders" msgpack:"orders"`
}

// dispatch turns a client command into queued intents for the player's side.
func (c command) dispatch(m *Match, side Side) {
	orders := m.Orders(side)
	switch c.Type {
	case "target":
		orders.SetUnitIntents([]TargetIntent{{ID: c.ID, X: c.X, Y: c.Y, Direction: c.Direction}})
	case "targets":
		orders.SetUnitIntents(c.Orders)
	case "speed":
		orders.AdjustUnitSpeed(c.ID, c.Delta)
	case "turn":
		orders.TurnUnit(c.ID, c.Delta)
	case "end":
		m.End()
	}
}
