package models

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/zyedidia/generic/mapset"
)

// TrapChance is the probability that an eligible floor cell becomes a trap
// on the first visit
const TrapChance = 0.2

// anchorCells are the interior cells next to each exit. They stay clear so an
// entering player is never boxed in by a chest.
var anchorCells = []Position{{Row: 1, Col: 4}, {Row: 7, Col: 4}, {Row: 4, Col: 1}, {Row: 4, Col: 7}}

// BaseMap is a room template held by the template store
type BaseMap struct {
	ID       string   `json:"id"`
	Cells    []Cell   `json:"cells"`
	ExitForm ExitForm `json:"exit_form"`
	Chest    bool     `json:"chest"`
}

// Validate checks the template grid shape and wall resources
func (b *BaseMap) Validate() error {
	if b == nil {
		return errors.New("nil base map")
	}
	if len(b.Cells) != CellCount {
		return fmt.Errorf("base map %s has %d cells, want %d", b.ID, len(b.Cells), CellCount)
	}
	for i, c := range b.Cells {
		if c.Row != i/GridSize || c.Col != i%GridSize {
			return fmt.Errorf("base map %s cell %d is at (%d,%d)", b.ID, i, c.Row, c.Col)
		}
		if !c.Type.Valid() {
			return fmt.Errorf("base map %s cell %d has type %q", b.ID, i, c.Type)
		}
		if (c.Type == CellWall) != (c.Resources != nil) {
			return fmt.Errorf("base map %s cell %d: resources must be set exactly on walls", b.ID, i)
		}
		if c.Type == CellWall {
			if err := checkVein(c.Resources); err != nil {
				return fmt.Errorf("base map %s cell %d: %w", b.ID, i, err)
			}
		}
	}
	if f := FormOf(b.Cells); b.ExitForm != "" && f != b.ExitForm {
		return fmt.Errorf("base map %s declares exits %s but grid has %s", b.ID, b.ExitForm, f)
	}
	return nil
}

// checkVein requires a stone key and at most one other resource, at a full vein
func checkVein(r Resources) error {
	if _, ok := r[Stone]; !ok {
		return errors.New("wall has no stone counter")
	}
	veins := 0
	for name, v := range r {
		if !name.Valid() {
			return fmt.Errorf("wall has unknown resource %q", name)
		}
		if v < 0 {
			return fmt.Errorf("wall has %d %s", v, name)
		}
		if name == Stone || v == 0 {
			continue
		}
		if v != VeinSize {
			return fmt.Errorf("wall vein of %s holds %d, want %d", name, v, VeinSize)
		}
		veins++
	}
	if veins > 1 {
		return fmt.Errorf("wall has %d veins, want at most one", veins)
	}
	return nil
}

// ExitLink holds the personal id of the neighbor behind each exit.
// An empty string means the exit is not linked yet.
type ExitLink struct {
	Up    string `json:"up"`
	Right string `json:"right"`
	Down  string `json:"down"`
	Left  string `json:"left"`
}

// Get returns the neighbor in direction d
func (l ExitLink) Get(d Direction) string {
	switch d {
	case North:
		return l.Up
	case East:
		return l.Right
	case South:
		return l.Down
	case West:
		return l.Left
	}
	return ""
}

// With returns a copy linking direction d to id
func (l ExitLink) With(d Direction, id string) ExitLink {
	switch d {
	case North:
		l.Up = id
	case East:
		l.Right = id
	case South:
		l.Down = id
	case West:
		l.Left = id
	}
	return l
}

// Room is one discovered instance of a template. Rooms are values: the With*
// methods return copies and never write to a shared cell slice.
type Room struct {
	PersonalID string   `json:"personal_id"`
	TemplateID string   `json:"template_id"`
	Cells      []Cell   `json:"cells"`
	ExitLink   ExitLink `json:"exit_link"`
	FirstTime  bool     `json:"first_time"`
	HasChest   bool     `json:"has_chest"`
}

// PersonalID derives the instance id of a room from its template and a timestamp
func PersonalID(templateID string, now time.Time) string {
	return fmt.Sprintf("player_%d_%s", now.UnixNano(), templateID)
}

// NewRoom instantiates a template as a fresh, unlinked, unvisited room
func NewRoom(b *BaseMap, now time.Time) Room {
	cells := make([]Cell, len(b.Cells))
	for i, c := range b.Cells {
		c.Resources = c.Resources.Clone()
		c.IsSelected = false
		cells[i] = c
	}
	return Room{
		PersonalID: PersonalID(b.ID, now),
		TemplateID: b.ID,
		Cells:      cells,
		FirstTime:  true,
		HasChest:   b.Chest,
	}
}

// CellAt returns the cell at p
func (r Room) CellAt(p Position) (Cell, bool) {
	if !p.InBounds() || p.Index() >= len(r.Cells) {
		return Cell{}, false
	}
	return r.Cells[p.Index()], true
}

// ExitForm derives the open exits from the grid
func (r Room) ExitForm() ExitForm {
	return FormOf(r.Cells)
}

// WithCell returns a copy with the cell at c's coordinates replaced
func (r Room) WithCell(c Cell) Room {
	p := c.Position()
	if !p.InBounds() || p.Index() >= len(r.Cells) {
		return r
	}
	cells := append([]Cell(nil), r.Cells...)
	cells[p.Index()] = c
	r.Cells = cells
	return r
}

// WithExitLink returns a copy linking direction d to the room id
func (r Room) WithExitLink(d Direction, id string) Room {
	r.ExitLink = r.ExitLink.With(d, id)
	return r
}

// WithSelection returns a copy with only the cell at p selected
func (r Room) WithSelection(p Position) Room {
	cells := make([]Cell, len(r.Cells))
	for i, c := range r.Cells {
		c.IsSelected = c.Row == p.Row && c.Col == p.Col
		cells[i] = c
	}
	r.Cells = cells
	return r
}

// WithoutSelection returns a copy with no cell selected
func (r Room) WithoutSelection() Room {
	cells := make([]Cell, len(r.Cells))
	for i, c := range r.Cells {
		c.IsSelected = false
		cells[i] = c
	}
	r.Cells = cells
	return r
}

// ProcessedForFirstTime seeds the room on its first visit: one chest on an
// eligible floor cell when the template allows it, then traps scattered over
// the remaining floor. Already processed rooms are returned unchanged.
func (r Room) ProcessedForFirstTime(rng *rand.Rand) Room {
	if !r.FirstTime {
		return r
	}

	restricted := mapset.New[Position]()
	for _, p := range anchorCells {
		restricted.Put(p)
	}
	for _, d := range Directions {
		restricted.Put(d.ExitPosition())
	}

	cells := append([]Cell(nil), r.Cells...)

	var eligible []int
	for i, c := range cells {
		if c.Type == CellFloor && !restricted.Has(c.Position()) {
			eligible = append(eligible, i)
		}
	}
	if r.HasChest && len(eligible) > 0 {
		idx := eligible[rng.Intn(len(eligible))]
		cells[idx].Type = CellChest
	}

	for i, c := range cells {
		if _, isExit := ExitAt(c.Position()); isExit || c.Type != CellFloor {
			continue
		}
		if rng.Float64() < TrapChance {
			cells[i].Type = CellTrap
		}
	}

	r.Cells = cells
	r.FirstTime = false
	return r
}
