// Package devtools renders rooms and templates as text for debugging and the
// mapgen tool.
package devtools

import (
	"fmt"
	"strings"

	"github.com/gookit/color"

	"deepmine/models"
)

// Icons used for each cell type
const (
	IconPlayer      = "@"
	IconFloor       = "."
	IconWall        = "#"
	IconUnbreakable = "X"
	IconExit        = "+"
	IconChest       = "$"
	IconTrap        = "^"
	IconSelected    = "*"
)

var (
	ColorWall        = color.Style{color.FgYellow}
	ColorUnbreakable = color.Style{color.FgGray, color.OpBold}
	ColorExit        = color.Style{color.FgMagenta, color.OpBold}
	ColorChest       = color.Style{color.FgGreen, color.OpBold}
	ColorTrap        = color.Style{color.FgRed}
	ColorFloor       = color.Style{color.FgGray}
	ColorPlayer      = color.Style{color.FgGreen, color.BgBlack, color.OpBold}
	ColorSelected    = color.Style{color.FgCyan, color.OpBold}
)

// Dumper draws cell grids, with ANSI colors when Color is set
type Dumper struct {
	Color bool
}

// Cells draws a grid, with the player at player when it is non-nil
func (d Dumper) Cells(cells []models.Cell, player *models.Position) string {
	var b strings.Builder
	for i, c := range cells {
		if player != nil && c.Position() == *player {
			b.WriteString(d.paint(ColorPlayer, IconPlayer))
		} else {
			b.WriteString(d.cell(c))
		}
		if i%models.GridSize == models.GridSize-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// BaseMap draws a template under a one-line header
func (d Dumper) BaseMap(bm *models.BaseMap) string {
	header := fmt.Sprintf("template %s exits=%s chest=%t\n", bm.ID, bm.ExitForm, bm.Chest)
	return header + d.Cells(bm.Cells, nil)
}

// Player draws the current room of a player
func (d Dumper) Player(p *models.Player) string {
	room := p.Current()
	header := fmt.Sprintf("room %s exits=%s facing=%s health=%d\n", room.PersonalID, room.ExitForm(), p.Facing, p.Health)
	return header + d.Cells(room.Cells, &p.Position)
}

func (d Dumper) cell(c models.Cell) string {
	if c.IsSelected {
		return d.paint(ColorSelected, IconSelected)
	}
	switch c.Type {
	case models.CellWall:
		return d.paint(ColorWall, IconWall)
	case models.CellUnbreakable:
		return d.paint(ColorUnbreakable, IconUnbreakable)
	case models.CellExit:
		return d.paint(ColorExit, IconExit)
	case models.CellChest:
		return d.paint(ColorChest, IconChest)
	case models.CellTrap:
		return d.paint(ColorTrap, IconTrap)
	default:
		return d.paint(ColorFloor, IconFloor)
	}
}

func (d Dumper) paint(style color.Style, icon string) string {
	if !d.Color {
		return icon
	}
	return style.Sprint(icon)
}
