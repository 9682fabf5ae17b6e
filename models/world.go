package models

import (
	"fmt"
	"strings"
)

// GridSize is the width and height of every room grid
const GridSize = 9

// CellCount is the number of cells in a room
const CellCount = GridSize * GridSize

// CellType identifies what occupies a grid cell
type CellType string

// Cell types
const (
	CellFloor       CellType = "floor"
	CellWall        CellType = "wall"
	CellExit        CellType = "exit"
	CellUnbreakable CellType = "unbreakable"
	CellChest       CellType = "chest"
	CellTrap        CellType = "trap"
)

// Valid reports whether t is a known cell type
func (t CellType) Valid() bool {
	switch t {
	case CellFloor, CellWall, CellExit, CellUnbreakable, CellChest, CellTrap:
		return true
	}
	return false
}

// Position is a cell coordinate inside a room
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether the position lies on the grid
func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < GridSize && p.Col >= 0 && p.Col < GridSize
}

// Index returns the row-major index of the position
func (p Position) Index() int {
	return p.Row*GridSize + p.Col
}

// Step returns the neighboring position in direction d
func (p Position) Step(d Direction) Position {
	dr, dc := d.Delta()
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

// OnBorder reports whether the position is on the outer ring of the grid
func (p Position) OnBorder() bool {
	return p.Row == 0 || p.Row == GridSize-1 || p.Col == 0 || p.Col == GridSize-1
}

// Cell is one square of a room grid.
// Resources is set if and only if Type is CellWall.
type Cell struct {
	Row        int       `json:"row"`
	Col        int       `json:"col"`
	Type       CellType  `json:"type"`
	IsSelected bool      `json:"is_selected,omitempty"`
	Resources  Resources `json:"resources,omitempty"`
}

// Position returns the cell coordinates
func (c Cell) Position() Position {
	return Position{Row: c.Row, Col: c.Col}
}

// ResourceInfo formats the non-zero resources of a cell, e.g. "stone: 1, iron: 9"
func (c Cell) ResourceInfo() string {
	if c.Resources == nil {
		return ""
	}
	parts := make([]string, 0, len(ResourceNames))
	for _, name := range ResourceNames {
		if v := c.Resources[name]; v > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", name, v))
		}
	}
	return strings.Join(parts, ", ")
}

// Direction is one of the four exit directions of a room
type Direction string

// Directions, using the compass letters of an ExitForm
const (
	North Direction = "N"
	East  Direction = "E"
	South Direction = "S"
	West  Direction = "W"
)

// Directions lists the four directions in canonical order
var Directions = []Direction{North, East, South, West}

// ParseDirection accepts compass letters, compass names or up/right/down/left
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "north", "up":
		return North, nil
	case "e", "east", "right":
		return East, nil
	case "s", "south", "down":
		return South, nil
	case "w", "west", "left":
		return West, nil
	}
	return "", fmt.Errorf("invalid direction %q", s)
}

// Valid reports whether d is one of the four directions
func (d Direction) Valid() bool {
	switch d {
	case North, East, South, West:
		return true
	}
	return false
}

// Opposite returns the direction facing back (N<->S, E<->W)
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return d
}

// Delta returns the row and column offset of one step in d
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return -1, 0
	case South:
		return 1, 0
	case East:
		return 0, 1
	case West:
		return 0, -1
	}
	return 0, 0
}

// ExitPosition returns the fixed border coordinate of the exit in direction d
func (d Direction) ExitPosition() Position {
	switch d {
	case North:
		return Position{Row: 0, Col: 4}
	case East:
		return Position{Row: 4, Col: 8}
	case South:
		return Position{Row: 8, Col: 4}
	default:
		return Position{Row: 4, Col: 0}
	}
}

// ExitAt returns the direction whose exit sits at p
func ExitAt(p Position) (Direction, bool) {
	for _, d := range Directions {
		if d.ExitPosition() == p {
			return d, true
		}
	}
	return "", false
}

// ClassifyExit marks the cell as an exit when it sits on an exit named in form
func ClassifyExit(cell Cell, form ExitForm) Cell {
	d, ok := ExitAt(cell.Position())
	if ok && form.Has(d) {
		cell.Type = CellExit
		cell.Resources = nil
	}
	return cell
}

// ClassifyBorder marks border cells unbreakable. Exits are left untouched,
// so ClassifyExit must run first.
func ClassifyBorder(cell Cell) Cell {
	if cell.Type == CellExit {
		return cell
	}
	if cell.Position().OnBorder() {
		cell.Type = CellUnbreakable
		cell.Resources = nil
	}
	return cell
}

// Classify applies exit classification followed by border classification
func Classify(cell Cell, form ExitForm) Cell {
	return ClassifyBorder(ClassifyExit(cell, form))
}

// CanEnter reports whether the player may stand on the cell.
// Chests block movement; they are opened from an adjacent cell.
func CanEnter(cell Cell) bool {
	switch cell.Type {
	case CellFloor, CellExit, CellTrap:
		return true
	}
	return false
}

// DefaultCells returns a 9x9 grid of plain floor cells
func DefaultCells() []Cell {
	cells := make([]Cell, CellCount)
	for i := range cells {
		cells[i] = Cell{Row: i / GridSize, Col: i % GridSize, Type: CellFloor}
	}
	return cells
}
