package battle

import (
	"log"
	"sync"
)

// Hub is the group of clients attached to one match. It is the match's Broadcaster.
type Hub struct {
	MatchID    string
	Register   chan *Player
	Unregister chan *Player

	mu       sync.Mutex
	players  map[*Player]bool
	nextSide Side

	done      chan struct{}
	closeOnce sync.Once
}

func NewHub(matchID string) *Hub {
	return &Hub{
		MatchID:    matchID,
		Register:   make(chan *Player),
		Unregister: make(chan *Player),
		players:    make(map[*Player]bool),
		done:       make(chan struct{}),
	}
}

// Run handles joins and leaves until Close.
func (h *Hub) Run() {
	for {
		select {
		case p := <-h.Register:
			h.join(p)
		case p := <-h.Unregister:
			h.leave(p)
		case <-h.done:
			h.mu.Lock()
			for p := range h.players {
				delete(h.players, p)
				close(p.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Close disconnects every client and stops Run.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Join assigns p a side and hands it to Run; false if the hub is already closed.
// Sides alternate in join order.
func (h *Hub) Join(p *Player) bool {
	h.mu.Lock()
	p.Side = h.nextSide
	h.nextSide = h.nextSide.Opponent()
	h.mu.Unlock()

	select {
	case h.Register <- p:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Leave(p *Player) {
	select {
	case h.Unregister <- p:
	case <-h.done:
	}
}

func (h *Hub) join(p *Player) {
	h.mu.Lock()
	h.players[p] = true
	h.mu.Unlock()

	log.Printf("[HUB %s] player %s joined as side %d", h.MatchID, p.ID, p.Side)
	h.sendTo(p, welcomeMessage{Type: "welcome", ID: p.ID, MatchID: h.MatchID, Side: p.Side})
}

func (h *Hub) leave(p *Player) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.players[p]; ok {
		delete(h.players, p)
		close(p.Send)
		log.Printf("[HUB %s] player %s left", h.MatchID, p.ID)
	}
}

// Broadcast encodes the frame once per codec and never blocks: a client whose
// buffer is full is dropped.
func (h *Hub) Broadcast(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	encoded := make(map[string][]byte, 2)
	for p := range h.players {
		data, ok := encoded[p.Codec.Name()]
		if !ok {
			var err error
			data, err = p.Codec.Marshal(f)
			if err != nil {
				log.Printf("[HUB %s] encode %s frame: %v", h.MatchID, p.Codec.Name(), err)
				continue
			}
			encoded[p.Codec.Name()] = data
		}
		select {
		case p.Send <- data:
		default:
			close(p.Send)
			delete(h.players, p)
			log.Printf("[HUB %s] dropped slow player %s", h.MatchID, p.ID)
		}
	}
}

func (h *Hub) sendTo(p *Player, v any) {
	data, err := p.Codec.Marshal(v)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.players[p] {
		return
	}
	select {
	case p.Send <- data:
	default:
	}
}

// Players returns a snapshot of the connected clients.
func (h *Hub) Players() []*Player {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Player, 0, len(h.players))
	for p := range h.players {
		out = append(out, p)
	}
	return out
}
