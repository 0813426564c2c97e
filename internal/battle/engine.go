package battle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

var ErrCellTooSmall = errors.New("unit size exceeds the grid cell size")

// maxTickRate keeps the ticker period at a millisecond or more.
const maxTickRate = 1000

// Settings describes one match's arena and unit tables.
type Settings struct {
	Width    float64
	Height   float64
	CellSize float64
	Padding  float64
	TickRate int
	Stats    map[Archetype]UnitStats
}

// DefaultSettings matches the reference configuration: 3000x6000 arena, 100 unit cells, 60 Hz.
func DefaultSettings() Settings {
	stats := make(map[Archetype]UnitStats, len(DefaultStats))
	for k, v := range DefaultStats {
		stats[k] = v
	}
	return Settings{
		Width:    3000,
		Height:   6000,
		CellSize: 100,
		Padding:  40,
		TickRate: 60,
		Stats:    stats,
	}
}

// Validate reports settings a match cannot start with.
func (s Settings) Validate() error {
	if _, err := NewGrid(s.Width, s.Height, s.CellSize); err != nil {
		return err
	}
	if s.TickRate <= 0 || s.TickRate > maxTickRate {
		return fmt.Errorf("tick rate must be in 1..%d, got %d", maxTickRate, s.TickRate)
	}
	if s.Padding < 0 || 2*s.Padding >= s.Width || 2*s.Padding >= s.Height {
		return fmt.Errorf("padding %g does not fit a %gx%g arena", s.Padding, s.Width, s.Height)
	}
	for arch := range DefaultStats {
		st, ok := s.Stats[arch]
		if !ok {
			return fmt.Errorf("%w: no stats for %q", ErrUnknownArchetype, arch)
		}
		if err := st.Validate(); err != nil {
			return fmt.Errorf("stats for %q: %w", arch, err)
		}
		if st.Size > s.CellSize {
			return fmt.Errorf("%w: %q is %g, cell is %g", ErrCellTooSmall, arch, st.Size, s.CellSize)
		}
	}
	return nil
}

// Match is one isolated simulation: its own units, grid and tick loop.
type Match struct {
	ID       string
	settings Settings
	out      Broadcaster

	mu      sync.Mutex
	units   map[UnitID]*Unit
	rosters [2][]*Unit
	grid    *Grid
	nextID  UnitID
	tick    uint64
	events  []Event
	over    bool
	winner  Side

	intentMu sync.Mutex
	pending  []intent

	stop     chan struct{}
	stopOnce sync.Once

	// OnGameOver runs once on the tick goroutine when a commander falls; it must not block.
	OnGameOver func(winner Side)
}

// NewMatch validates the settings; a match with a bad arena or stat table never starts.
func NewMatch(id string, settings Settings, out Broadcaster) (*Match, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	grid, err := NewGrid(settings.Width, settings.Height, settings.CellSize)
	if err != nil {
		return nil, err
	}
	return &Match{
		ID:       id,
		settings: settings,
		out:      out,
		units:    make(map[UnitID]*Unit),
		grid:     grid,
		stop:     make(chan struct{}),
	}, nil
}

// AddUnit creates a unit, registers it on its roster and the grid and queues
// a spawn event. Only the id escapes; the unit itself changes only inside Step.
func (m *Match) AddUnit(x, y float64, arch Archetype, side Side) (UnitID, error) {
	if !side.valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSide, side)
	}
	stats, ok := m.settings.Stats[arch]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownArchetype, arch)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.units == nil {
		return 0, fmt.Errorf("match %s already released", m.ID)
	}

	m.nextID++
	u := newUnit(m.nextID, x, y, arch, side, stats)
	m.rosters[side] = append(m.rosters[side], u)
	m.units[u.ID] = u
	m.grid.Add(u)
	m.events = append(m.events, Event{Type: EventUnitSpawned, UnitID: u.ID, Archetype: arch, Side: side})
	return u.ID, nil
}

// Run ticks the match at its tick rate until ctx is done, End is called or a commander falls.
func (m *Match) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(m.settings.TickRate))
	defer ticker.Stop()
	defer m.release()

	log.Printf("[MATCH %s] started at %d Hz", m.ID, m.settings.TickRate)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[MATCH %s] cancelled", m.ID)
			return
		case <-m.stop:
			log.Printf("[MATCH %s] ended by request", m.ID)
			return
		case <-ticker.C:
			m.Step()
			if m.Over() {
				return
			}
		}
	}
}

// End stops the tick loop. Safe to call more than once.
func (m *Match) End() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Done is closed once End has been called.
func (m *Match) Done() <-chan struct{} { return m.stop }

// Step runs one tick. The phase order is part of the contract: combat sees
// post-steering positions and the cull runs before the broadcast.
func (m *Match) Step() Frame {
	m.mu.Lock()
	if m.over || m.units == nil {
		m.mu.Unlock()
		return Frame{}
	}

	m.applyIntents()

	for _, roster := range m.rosters {
		for _, u := range roster {
			u.Act()
		}
	}

	m.enforceBounds()

	m.grid.Detect(m.collide)

	m.cull()

	m.enforceBounds()

	m.tick++
	frame := m.frame()
	over, winner := m.over, m.winner
	m.mu.Unlock()

	if m.out != nil {
		m.out.Broadcast(frame)
	}
	if over {
		log.Printf("[MATCH %s] commander down, side %d wins at tick %d", m.ID, winner, frame.Tick)
		if m.OnGameOver != nil {
			m.OnGameOver(winner)
		}
	}
	return frame
}

func (m *Match) applyIntents() {
	for _, in := range m.drainIntents() {
		u, ok := m.units[in.unitID()]
		if !ok {
			continue // destroyed since the order was sent
		}
		if in.owned && u.Side != in.owner {
			continue
		}
		in.apply(u)
	}
}

func (m *Match) enforceBounds() {
	left, top := m.settings.Padding, m.settings.Padding
	right, bottom := m.settings.Width-m.settings.Padding, m.settings.Height-m.settings.Padding
	for _, roster := range m.rosters {
		for _, u := range roster {
			u.X = clamp(u.X, left, right)
			u.Y = clamp(u.Y, top, bottom)
		}
	}
}

func (m *Match) collide(a, b *Unit) {
	for _, h := range resolveCollision(a, b) {
		m.events = append(m.events, Event{Type: EventUnitDamaged, UnitID: h.Defender.ID, Side: h.Defender.Side})
	}
}

func (m *Match) cull() {
	for side := range m.rosters {
		alive := m.rosters[side][:0]
		for _, u := range m.rosters[side] {
			if u.HP >= 0 {
				alive = append(alive, u)
				continue
			}
			m.destroy(u)
		}
		for i := len(alive); i < len(m.rosters[side]); i++ {
			m.rosters[side][i] = nil
		}
		m.rosters[side] = alive
	}
}

// destroy drops u from the unit table and grid; the caller handles the roster.
func (m *Match) destroy(u *Unit) {
	delete(m.units, u.ID)
	m.grid.Remove(u)
	m.events = append(m.events, Event{Type: EventUnitDestroyed, UnitID: u.ID, Side: u.Side})
	if u.Archetype == Commander {
		m.finish(u.Side.Opponent())
	}
}

// finish ends the match once; a second commander falling in the same tick changes nothing.
func (m *Match) finish(winner Side) {
	if m.over {
		return
	}
	m.over = true
	m.winner = winner
	m.events = append(m.events, Event{Type: EventMatchEnded, Side: winner})
}

func (m *Match) frame() Frame {
	positions := make(map[UnitID]Pose, len(m.units))
	for _, roster := range m.rosters {
		for _, u := range roster {
			positions[u.ID] = Pose{X: u.X, Y: u.Y, Rotation: u.Rotation}
		}
	}
	f := Frame{Type: "state", MatchID: m.ID, Tick: m.tick, Positions: positions, Events: m.events}
	m.events = nil
	return f
}

func (m *Match) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units = nil
	m.rosters = [2][]*Unit{}
	m.grid = nil
	m.events = nil
	m.End()
}

// Over reports whether a commander has fallen.
func (m *Match) Over() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.over
}

// Winner returns the winning side once the match is over.
func (m *Match) Winner() (Side, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.winner, m.over
}

// Unit returns a copy of a live unit.
func (m *Match) Unit(id UnitID) (Unit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.units[id]
	if !ok {
		return Unit{}, false
	}
	return *u, true
}

type Status struct {
	ID     string `json:"id"`
	Tick   uint64 `json:"tick"`
	Units  [2]int `json:"units"`
	Over   bool   `json:"over"`
	Winner *Side  `json:"winner,omitempty"`
}

func (m *Match) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{
		ID:    m.ID,
		Tick:  m.tick,
		Units: [2]int{len(m.rosters[SideOne]), len(m.rosters[SideTwo])},
		Over:  m.over,
	}
	if m.over {
		w := m.winner
		st.Winner = &w
	}
	return st
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
