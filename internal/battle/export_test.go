package battle

// SetUnitHP overwrites a live unit's hit points between ticks.
func (m *Match) SetUnitHP(id UnitID, hp float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.units[id]; ok {
		u.HP = hp
	}
}
