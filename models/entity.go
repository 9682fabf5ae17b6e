package models

import (
	"fmt"
	"math/rand"
	"time"
)

// Player defaults
const (
	StartHealth          = 100
	StartMovementPerTurn = 3
)

// StartPosition is where a new player stands in the first room
var StartPosition = Position{Row: 4, Col: 4}

// Player is the root aggregate of a game session. A *Player is never
// modified after construction: every action returns a new *Player, or the
// receiver itself when the action does not apply.
type Player struct {
	Inventory       Inventory `json:"inventory"`
	Rooms           []Room    `json:"rooms"`
	Position        Position  `json:"position"`
	Facing          Direction `json:"facing"`
	CurrentRoom     string    `json:"current_room"`
	MovementPerTurn int       `json:"movement_per_turn"`
	Health          int       `json:"health"`
	RecoveryCode    int       `json:"recovery_code"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewPlayer builds a player standing in a freshly seeded room made from start
func NewPlayer(recoveryCode int, start *BaseMap, now time.Time, rng *rand.Rand) *Player {
	room := NewRoom(start, now).ProcessedForFirstTime(rng)
	return &Player{
		Inventory:       NewInventory(),
		Rooms:           []Room{room},
		Position:        StartPosition,
		Facing:          East,
		CurrentRoom:     room.PersonalID,
		MovementPerTurn: StartMovementPerTurn,
		Health:          StartHealth,
		RecoveryCode:    recoveryCode,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// clone returns a shallow copy; callers replace the fields they change
func (p *Player) clone() *Player {
	next := *p
	return &next
}

func (p *Player) roomIndex(id string) int {
	for i := range p.Rooms {
		if p.Rooms[i].PersonalID == id {
			return i
		}
	}
	return -1
}

// currentIndex panics when the current room is missing: that state can only
// come from a programming error
func (p *Player) currentIndex() int {
	idx := p.roomIndex(p.CurrentRoom)
	if idx < 0 {
		panic(fmt.Sprintf("player %d: current room %q not in room set", p.RecoveryCode, p.CurrentRoom))
	}
	return idx
}

// Current returns the room the player stands in
func (p *Player) Current() Room {
	return p.Rooms[p.currentIndex()]
}

// RoomByID finds a discovered room
func (p *Player) RoomByID(id string) (Room, bool) {
	idx := p.roomIndex(id)
	if idx < 0 {
		return Room{}, false
	}
	return p.Rooms[idx], true
}

// CurrentRoomCells returns a copy of the current room grid for rendering
func (p *Player) CurrentRoomCells() []Cell {
	return append([]Cell(nil), p.Current().Cells...)
}

// InventorySnapshot returns an independent copy of the inventory
func (p *Player) InventorySnapshot() Inventory {
	return p.Inventory.Clone()
}

// FacingPosition is the cell the player acts on
func (p *Player) FacingPosition() Position {
	return p.Position.Step(p.Facing)
}

// withRoom returns a copy holding room in place of the room with the same id
func (p *Player) withRoom(room Room) *Player {
	idx := p.roomIndex(room.PersonalID)
	if idx < 0 {
		return p
	}
	rooms := append([]Room(nil), p.Rooms...)
	rooms[idx] = room
	next := p.clone()
	next.Rooms = rooms
	return next
}

// withInventory returns a copy holding inv
func (p *Player) withInventory(inv Inventory) *Player {
	next := p.clone()
	next.Inventory = inv
	return next
}

// Move turns the player toward d and steps when the destination can be
// entered. Stepping off the grid through a linked exit moves the player into
// the neighbor room, which is seeded on its first visit.
func (p *Player) Move(d Direction, rng *rand.Rand) *Player {
	if !d.Valid() {
		return p
	}
	next := p
	if p.Facing != d {
		next = p.clone()
		next.Facing = d
	}

	room := p.Current()
	target := p.Position.Step(d)
	if target.InBounds() {
		cell, _ := room.CellAt(target)
		if !CanEnter(cell) {
			return next
		}
		if next == p {
			next = p.clone()
		}
		next.Position = target
		return next.withRoom(room.WithoutSelection())
	}

	exit, onExit := ExitAt(p.Position)
	here, _ := room.CellAt(p.Position)
	if !onExit || exit != d || here.Type != CellExit {
		return next
	}
	neighborIdx := p.roomIndex(room.ExitLink.Get(d))
	if neighborIdx < 0 {
		return next
	}
	neighbor := p.Rooms[neighborIdx].ProcessedForFirstTime(rng)
	if next == p {
		next = p.clone()
	}
	next.CurrentRoom = neighbor.PersonalID
	next.Position = d.Opposite().ExitPosition()
	return next.withRoom(neighbor)
}

// Act performs the "use" action on the facing cell: mine a wall, place the
// equipped block on a floor, or open a chest
func (p *Player) Act(rng *rand.Rand) (*Player, *Reward) {
	cell, ok := p.Current().CellAt(p.FacingPosition())
	if !ok {
		return p, nil
	}
	switch cell.Type {
	case CellWall:
		return p.Mine(cell.Position()), nil
	case CellFloor:
		return p.PlaceBlock(cell.Position()), nil
	case CellChest:
		return p.OpenChest(cell.Position(), rng)
	}
	return p, nil
}

// Mine breaks a wall with the equipped pickaxe, collects its resources and
// spends one charge
func (p *Player) Mine(target Position) *Player {
	room := p.Current()
	cell, ok := room.CellAt(target)
	if !ok || cell.Type != CellWall {
		return p
	}
	if p.Inventory.Equipped.Kind != EquipPickaxe || p.Inventory.Tools.Pickaxe.Charge <= 0 {
		return p
	}

	inv := p.Inventory
	inv.Resources = p.Inventory.Resources.WithAdded(cell.Resources)
	inv.Tools.Pickaxe.Charge--

	cell.Type = CellFloor
	cell.Resources = nil

	return p.withInventory(inv).withRoom(room.WithCell(cell))
}

// PlaceBlock turns a floor cell into a wall holding a full vein of the
// equipped block's resource. Using the last block re-equips the pickaxe.
func (p *Player) PlaceBlock(target Position) *Player {
	room := p.Current()
	cell, ok := room.CellAt(target)
	if !ok || cell.Type != CellFloor || target == p.Position {
		return p
	}
	equipped := p.Inventory.Equipped
	if equipped.Kind != EquipBlock || p.Inventory.Blocks[equipped.Block] <= 0 {
		return p
	}

	inv := p.Inventory
	inv.Blocks = p.Inventory.Blocks.WithDelta(equipped.Block, -1)
	if inv.Blocks[equipped.Block] == 0 {
		inv.Equipped = EquippedPickaxe()
	}

	cell.Type = CellWall
	cell.Resources = Vein(equipped.Block.Resource())

	return p.withInventory(inv).withRoom(room.WithCell(cell))
}

// OpenChest rolls the chest table, grants the reward and leaves floor behind
func (p *Player) OpenChest(target Position, rng *rand.Rand) (*Player, *Reward) {
	room := p.Current()
	cell, ok := room.CellAt(target)
	if !ok || cell.Type != CellChest {
		return p, nil
	}
	reward, ok := RollReward(rng)
	if !ok {
		return p, nil
	}

	cell.Type = CellFloor
	cell.Resources = nil

	return p.withInventory(reward.applyTo(p.Inventory)).withRoom(room.WithCell(cell)), &reward
}

// CraftBlock presses nine units of r into a block
func (p *Player) CraftBlock(r ResourceName) *Player {
	inv, ok := p.Inventory.CraftBlock(r)
	if !ok {
		return p
	}
	return p.withInventory(inv)
}

// CraftConsumable crafts one recipe
func (p *Player) CraftConsumable(r Recipe) *Player {
	inv, ok := p.Inventory.CraftConsumable(r)
	if !ok {
		return p
	}
	return p.withInventory(inv)
}

// Equip switches the equipped item
func (p *Player) Equip(kind EquipKind, block BlockName) *Player {
	inv, ok := p.Inventory.Equip(kind, block)
	if !ok {
		return p
	}
	return p.withInventory(inv)
}

// UseConsumable applies one unit of a carried consumable
func (p *Player) UseConsumable(c Consumable) *Player {
	consumables, ok := removeConsumable(p.Inventory.Consumables, c)
	if !ok {
		return p
	}

	next := p.clone()
	inv := p.Inventory
	inv.Consumables = consumables

	switch c.ImpactStat {
	case StatHealth:
		next.Health += c.ImpactValue
	case StatCharge:
		inv.Tools.Pickaxe.Charge += c.ImpactValue
	case StatPower:
		inv.Tools.Pickaxe.Power += c.ImpactValue
	case StatBonus:
		inv.Tools.Pickaxe.Bonus += c.ImpactValue
	default:
		return p
	}

	next.Inventory = inv
	return next
}

// SelectCell marks a single cell of the current room as selected
func (p *Player) SelectCell(pos Position) *Player {
	room := p.Current()
	cell, ok := room.CellAt(pos)
	if !ok || cell.IsSelected {
		return p
	}
	return p.withRoom(room.WithSelection(pos))
}

// ClearSelection deselects every cell of the current room
func (p *Player) ClearSelection() *Player {
	room := p.Current()
	for _, c := range room.Cells {
		if c.IsSelected {
			return p.withRoom(room.WithoutSelection())
		}
	}
	return p
}

// Touch returns a copy stamped with the save time
func (p *Player) Touch(now time.Time) *Player {
	next := p.clone()
	next.UpdatedAt = now
	return next
}
