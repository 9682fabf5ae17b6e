package models

// Tool is the player's pickaxe.
// Bonus is an upgrade level; zero means no bonus.
type Tool struct {
	Charge int `json:"charge"`
	Power  int `json:"power"`
	Bonus  int `json:"bonus"`
}

// Tools holds the single copy of every tool the player owns
type Tools struct {
	Pickaxe Tool `json:"pickaxe"`
}

// EquipKind tags what the player currently holds
type EquipKind string

// Equip kinds
const (
	EquipNone    EquipKind = "none"
	EquipPickaxe EquipKind = "pickaxe"
	EquipBlock   EquipKind = "block"
)

// Equipped is the item governing the "use" action. A pickaxe is referenced,
// never copied: its stats always come from Tools.Pickaxe.
type Equipped struct {
	Kind  EquipKind `json:"kind"`
	Block BlockName `json:"block,omitempty"`
}

// EquippedPickaxe holds the pickaxe
func EquippedPickaxe() Equipped { return Equipped{Kind: EquipPickaxe} }

// EquippedBlock holds a block stack
func EquippedBlock(name BlockName) Equipped { return Equipped{Kind: EquipBlock, Block: name} }

// Inventory is the player's carried state. Methods never modify the
// receiver; they return an updated copy and whether anything changed.
type Inventory struct {
	Resources   Resources    `json:"resources"`
	Blocks      Blocks       `json:"blocks"`
	Consumables []Consumable `json:"consumables"`
	Tools       Tools        `json:"tools"`
	Equipped    Equipped     `json:"equipped"`
}

// NewInventory returns the starting inventory: empty counters and a fresh,
// equipped pickaxe
func NewInventory() Inventory {
	return Inventory{
		Resources:   NewResources(),
		Blocks:      NewBlocks(),
		Consumables: []Consumable{},
		Tools:       Tools{Pickaxe: Tool{Charge: 100, Power: 1}},
		Equipped:    EquippedPickaxe(),
	}
}

// Clone deep-copies the inventory
func (inv Inventory) Clone() Inventory {
	out := inv
	out.Resources = inv.Resources.Clone()
	out.Blocks = inv.Blocks.Clone()
	out.Consumables = append([]Consumable(nil), inv.Consumables...)
	return out
}

// CanCraftBlock reports whether there is enough of r for one block
func (inv Inventory) CanCraftBlock(r ResourceName) bool {
	_, ok := BlockFor(r)
	return ok && inv.Resources[r] >= BlockCost
}

// CraftBlock presses nine units of r into one block
func (inv Inventory) CraftBlock(r ResourceName) (Inventory, bool) {
	if !inv.CanCraftBlock(r) {
		return inv, false
	}
	block, _ := BlockFor(r)
	out := inv
	out.Resources = inv.Resources.WithDelta(r, -BlockCost)
	out.Blocks = inv.Blocks.WithDelta(block, 1)
	return out, true
}

// AvailableBlocks lists blocks with a positive count
func (inv Inventory) AvailableBlocks() []BlockName {
	var out []BlockName
	for _, name := range BlockNames {
		if inv.Blocks[name] > 0 {
			out = append(out, name)
		}
	}
	return out
}

// Equip switches the equipped item. Equipping a block needs at least one of it.
func (inv Inventory) Equip(kind EquipKind, block BlockName) (Inventory, bool) {
	var next Equipped
	switch kind {
	case EquipPickaxe:
		next = EquippedPickaxe()
	case EquipBlock:
		if !block.Valid() || inv.Blocks[block] <= 0 {
			return inv, false
		}
		next = EquippedBlock(block)
	case EquipNone:
		next = Equipped{Kind: EquipNone}
	default:
		return inv, false
	}
	if next == inv.Equipped {
		return inv, false
	}
	out := inv
	out.Equipped = next
	return out, true
}

// CanCraftRecipe reports whether every cost of r is in stock
func (inv Inventory) CanCraftRecipe(r Recipe) bool {
	for name, amount := range r.Cost {
		if amount > inv.Resources[name] {
			return false
		}
	}
	return true
}

// CraftConsumable spends the recipe cost and stacks the product with an
// identical consumable when one exists
func (inv Inventory) CraftConsumable(r Recipe) (Inventory, bool) {
	if r.Quantity <= 0 || !inv.CanCraftRecipe(r) {
		return inv, false
	}
	out := inv
	resources := inv.Resources.Clone()
	for name, amount := range r.Cost {
		if amount <= 0 {
			continue
		}
		resources[name] -= amount
		if resources[name] < 0 {
			resources[name] = 0
		}
	}
	out.Resources = resources
	out.Consumables = addConsumable(inv.Consumables, r.Product(), true)
	return out, true
}

// addConsumable returns a new list with c appended, or merged into a matching
// stack when merge is set
func addConsumable(list []Consumable, c Consumable, merge bool) []Consumable {
	out := append([]Consumable(nil), list...)
	if merge {
		for i := range out {
			if out[i].Matches(c) {
				out[i].Quantity += c.Quantity
				return out
			}
		}
	}
	return append(out, c)
}

// removeConsumable takes one unit from the first stack matching c
func removeConsumable(list []Consumable, c Consumable) ([]Consumable, bool) {
	for i := range list {
		if !list[i].Matches(c) || list[i].Quantity <= 0 {
			continue
		}
		out := append([]Consumable(nil), list...)
		out[i].Quantity--
		if out[i].Quantity == 0 {
			out = append(out[:i], out[i+1:]...)
		}
		return out, true
	}
	return list, false
}
