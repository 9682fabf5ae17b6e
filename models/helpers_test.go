package models

import (
	"context"
	"math/rand"
	"testing"
	"time"
)

var testNow = time.Unix(1700000000, 0)

func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

// testBaseMap returns an empty classified room template with the given exits
func testBaseMap(id string, form ExitForm) *BaseMap {
	cells := DefaultCells()
	for i := range cells {
		cells[i] = Classify(cells[i], form)
	}
	return &BaseMap{ID: id, Cells: cells, ExitForm: form}
}

// newTestPlayer returns a player in an already processed NESW room with no traps
func newTestPlayer(t *testing.T) *Player {
	t.Helper()
	base := testBaseMap("start", "NESW")
	p := NewPlayer(123456, base, testNow, testRNG())
	room := p.Current()
	cells := make([]Cell, len(room.Cells))
	for i, c := range room.Cells {
		if c.Type == CellTrap {
			c.Type = CellFloor
		}
		cells[i] = c
	}
	room.Cells = cells
	return p.withRoom(room)
}

// withCell overwrites one cell of the current room
func withCell(p *Player, c Cell) *Player {
	return p.withRoom(p.Current().WithCell(c))
}

func cellAt(t *testing.T, p *Player, pos Position) Cell {
	t.Helper()
	c, ok := p.Current().CellAt(pos)
	if !ok {
		t.Fatalf("no cell at %+v", pos)
	}
	return c
}

type fakeSource struct {
	base  *BaseMap
	err   error
	calls int
	forms []ExitForm
}

func (f *fakeSource) RandomBaseMap(_ context.Context, form ExitForm) (*BaseMap, error) {
	f.calls++
	f.forms = append(f.forms, form)
	if f.err != nil {
		return nil, f.err
	}
	return f.base, nil
}
