package battle

import "fmt"

// DeployStandard places the opening armies around the arena centre: each side
// gets a commander, a line of 17 infantry and two wings of 5 cavalry.
// On the 3000x6000 reference arena this is the layout the game has always opened with.
func DeployStandard(m *Match) error {
	cx, cy := m.settings.Width/2, m.settings.Height/2

	// dy is measured toward the side's own edge: SideOne deploys below centre, SideTwo above.
	for _, side := range []Side{SideOne, SideTwo} {
		sign := 1.0
		if side == SideTwo {
			sign = -1
		}
		place := func(dx, dy float64, arch Archetype) error {
			if _, err := m.AddUnit(cx+dx, cy+sign*dy, arch, side); err != nil {
				return fmt.Errorf("deploy %s for side %d: %w", arch, side, err)
			}
			return nil
		}

		if err := place(0, 400, Commander); err != nil {
			return err
		}
		for dx := -700.0; dx <= 900; dx += 100 {
			if err := place(dx, 200, Infantry); err != nil {
				return err
			}
		}
		for dx := -700.0; dx <= -300; dx += 100 {
			if err := place(dx, 400, Cavalry); err != nil {
				return err
			}
		}
		for dx := 500.0; dx <= 900; dx += 100 {
			if err := place(dx, 400, Cavalry); err != nil {
				return err
			}
		}
	}
	return nil
}
