package messages

import (
	"math/rand"
	"testing"
	"time"

	"deepmine/models"
)

func TestNewStateProjectsCurrentRoom(t *testing.T) {
	cells := models.DefaultCells()
	for i := range cells {
		cells[i] = models.Classify(cells[i], "NS")
	}
	cells[20] = models.Cell{Row: 2, Col: 2, Type: models.CellWall, Resources: models.Vein(models.Tin)}
	base := &models.BaseMap{ID: "tpl", Cells: cells, ExitForm: "NS"}

	p := models.NewPlayer(111111, base, time.Unix(1, 0), rand.New(rand.NewSource(3)))
	p = p.SelectCell(models.Position{Row: 2, Col: 2})

	state := NewState(p)
	if state.RecoveryCode != 111111 || state.RoomID != p.CurrentRoom {
		t.Errorf("state identifies %d/%s", state.RecoveryCode, state.RoomID)
	}
	if state.ExitForm != "NS" {
		t.Errorf("ExitForm = %s, want NS", state.ExitForm)
	}
	if len(state.Cells) != models.CellCount {
		t.Errorf("len(Cells) = %d", len(state.Cells))
	}
	if state.Selected != "tin: 9" {
		t.Errorf("Selected = %q", state.Selected)
	}
	if state.RoomsDiscovered != 1 {
		t.Errorf("RoomsDiscovered = %d, want 1", state.RoomsDiscovered)
	}

	state.Cells[0].Type = models.CellFloor
	if c, _ := p.Current().CellAt(models.Position{}); c.Type != models.CellUnbreakable {
		t.Error("state shares cells with the player")
	}
}
