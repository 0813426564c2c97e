package battle

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

type pair struct{ a, b UnitID }

func key(a, b *Unit) pair {
	if a.ID > b.ID {
		a, b = b, a
	}
	return pair{a.ID, b.ID}
}

func TestNewGrid(t *testing.T) {
	g, err := NewGrid(3000, 6000, 100)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	if g.Cols != 30 || g.Rows != 60 {
		t.Fatalf("grid is %dx%d, want 30x60", g.Cols, g.Rows)
	}

	for _, c := range [][3]float64{{3050, 6000, 100}, {3000, 6000, 0}, {0, 6000, 100}, {3000, 6000, 70}} {
		if _, err := NewGrid(c[0], c[1], c[2]); !errors.Is(err, ErrGridMisaligned) {
			t.Errorf("NewGrid(%v) error = %v, want ErrGridMisaligned", c, err)
		}
	}
}

// Every overlapping pair is reported exactly once, same as an all-pairs scan.
func TestDetectMatchesBruteForce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g, err := NewGrid(3000, 6000, 100)
		if err != nil {
			t.Fatal(err)
		}
		// Crowd a small corner of the arena so overlaps are common.
		w := rapid.Float64Range(200, 3000).Draw(t, "w")
		h := rapid.Float64Range(200, 6000).Draw(t, "h")
		n := rapid.IntRange(0, 200).Draw(t, "n")

		units := make([]*Unit, n)
		for i := range units {
			arch := rapid.SampledFrom([]Archetype{Commander, Infantry, Cavalry}).Draw(t, "arch")
			x := rapid.Float64Range(40, w-40).Draw(t, "x")
			y := rapid.Float64Range(40, h-40).Draw(t, "y")
			units[i] = newUnit(UnitID(i+1), x, y, arch, Side(i%2), DefaultStats[arch])
			g.Add(units[i])
		}

		want := make(map[pair]bool)
		for i := range units {
			for j := i + 1; j < len(units); j++ {
				if overlaps(units[i], units[j]) {
					want[key(units[i], units[j])] = true
				}
			}
		}

		got := make(map[pair]int)
		g.Detect(func(a, b *Unit) {
			if a == b {
				t.Fatalf("unit %d paired with itself", a.ID)
			}
			got[key(a, b)]++
		})

		for p, count := range got {
			if count != 1 {
				t.Fatalf("pair %v reported %d times", p, count)
			}
			if !want[p] {
				t.Fatalf("pair %v reported but does not overlap", p)
			}
		}
		if len(got) != len(want) {
			t.Fatalf("grid found %d pairs, brute force %d", len(got), len(want))
		}
	})
}

func TestDetectAcrossCellBorders(t *testing.T) {
	st := DefaultStats[Infantry]
	cases := []struct {
		name           string
		ax, ay, bx, by float64
	}{
		{"same cell", 50, 50, 60, 60},
		{"right", 95, 50, 105, 50},
		{"down", 50, 95, 50, 105},
		{"down-left", 105, 95, 95, 105},
		{"down-right", 95, 95, 105, 105},
		{"up-left", 105, 105, 95, 95},
		{"far edge", 300, 300, 290, 290},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g, _ := NewGrid(300, 300, 100)
			a := newUnit(1, c.ax, c.ay, Infantry, SideOne, st)
			b := newUnit(2, c.bx, c.by, Infantry, SideTwo, st)
			g.Add(a)
			g.Add(b)

			calls := 0
			g.Detect(func(x, y *Unit) { calls++ })
			if calls != 1 {
				t.Fatalf("detected %d collisions, want 1", calls)
			}
		})
	}
}

func TestDetectSkipsDistantUnits(t *testing.T) {
	g, _ := NewGrid(3000, 6000, 100)
	st := DefaultStats[Infantry]
	g.Add(newUnit(1, 100, 100, Infantry, SideOne, st))
	g.Add(newUnit(2, 178, 100, Infantry, SideOne, st)) // exactly touching is not an overlap
	g.Add(newUnit(3, 1000, 1000, Infantry, SideOne, st))

	g.Detect(func(a, b *Unit) {
		t.Fatalf("unexpected collision between %d and %d", a.ID, b.ID)
	})
}

func TestGridRemove(t *testing.T) {
	g, _ := NewGrid(3000, 6000, 100)
	st := DefaultStats[Infantry]
	a := newUnit(1, 100, 100, Infantry, SideOne, st)
	b := newUnit(2, 110, 100, Infantry, SideTwo, st)
	c := newUnit(3, 120, 100, Infantry, SideTwo, st)
	g.Add(a)
	g.Add(b)
	g.Add(c)
	g.Remove(b)
	g.Remove(b)

	if g.Len() != 2 {
		t.Fatalf("len = %d, want 2", g.Len())
	}
	g.Detect(func(x, y *Unit) {
		if x == b || y == b {
			t.Fatal("removed unit still collides")
		}
	})
}
