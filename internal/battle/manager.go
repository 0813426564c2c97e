package battle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
)

var ErrMatchNotFound = errors.New("match not found")

// Result is what a finished match reports to the outside world.
type Result struct {
	MatchID string
	Winner  Side
	Winners []*Player
	Losers  []*Player
}

type session struct {
	match *Match
	hub   *Hub
}

// Manager owns the running matches of this process.
type Manager struct {
	ctx      context.Context
	settings Settings

	mu      sync.RWMutex
	matches map[string]*session
	wg      sync.WaitGroup

	// OnResult runs in its own goroutine after a commander falls.
	OnResult func(Result)
}

// NewManager validates settings up front; every match runs until ctx is done at the latest.
func NewManager(ctx context.Context, settings Settings) (*Manager, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		ctx:      ctx,
		settings: settings,
		matches:  make(map[string]*session),
	}, nil
}

// Create sets up a match with the standard armies and starts its tick loop.
// The loop stops when the manager's context is done, the match is ended or a commander falls.
func (mg *Manager) Create() (*Match, error) {
	id := "m_" + uuid.NewString()
	hub := NewHub(id)
	m, err := NewMatch(id, mg.settings, hub)
	if err != nil {
		return nil, err
	}
	if err := DeployStandard(m); err != nil {
		return nil, fmt.Errorf("setup %s: %w", id, err)
	}
	m.OnGameOver = func(winner Side) {
		res := Result{MatchID: id, Winner: winner}
		for _, p := range hub.Players() {
			if p.Side == winner {
				res.Winners = append(res.Winners, p)
			} else {
				res.Losers = append(res.Losers, p)
			}
		}
		if mg.OnResult != nil {
			go mg.OnResult(res)
		}
	}

	mg.mu.Lock()
	mg.matches[id] = &session{match: m, hub: hub}
	mg.mu.Unlock()

	mg.wg.Add(2)
	go func() {
		defer mg.wg.Done()
		hub.Run()
	}()
	go func() {
		defer mg.wg.Done()
		m.Run(mg.ctx)
		hub.Close()
		mg.remove(id)
	}()
	log.Printf("[MATCH %s] created", id)
	return m, nil
}

// Get returns a running match and its client hub.
func (mg *Manager) Get(id string) (*Match, *Hub, error) {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	s, ok := mg.matches[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	return s.match, s.hub, nil
}

func (mg *Manager) Len() int {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	return len(mg.matches)
}

func (mg *Manager) remove(id string) {
	mg.mu.Lock()
	delete(mg.matches, id)
	mg.mu.Unlock()
}

// Shutdown ends every match and waits for their loops and hubs to stop.
func (mg *Manager) Shutdown() {
	mg.mu.RLock()
	for _, s := range mg.matches {
		s.match.End()
	}
	mg.mu.RUnlock()
	mg.wg.Wait()
}
