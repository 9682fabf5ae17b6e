package messages

import (
	"time"

	"deepmine/models"
)

// MessageType defines the type of message being sent
type MessageType string

// Client to server
const (
	MessageTypeNewPlayer       MessageType = "new_player"
	MessageTypeLoadPlayer      MessageType = "load_player"
	MessageTypeMove            MessageType = "move"
	MessageTypeAct             MessageType = "act"
	MessageTypeSelect          MessageType = "select"
	MessageTypeCraftBlock      MessageType = "craft_block"
	MessageTypeCraftConsumable MessageType = "craft_consumable"
	MessageTypeEquip           MessageType = "equip"
	MessageTypeUseConsumable   MessageType = "use_consumable"
	MessageTypeSave            MessageType = "save"
)

// Server to client
const (
	MessageTypeState       MessageType = "state"
	MessageTypeChestReward MessageType = "chest_reward"
	MessageTypeSaved       MessageType = "saved"
	MessageTypeError       MessageType = "error"
)

// BaseMessage is the base structure for all messages
type BaseMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// NewPlayerMessage starts a new game. ExitForm picks the first room's exits;
// empty means the server default.
type NewPlayerMessage struct {
	ExitForm string `json:"exit_form,omitempty" jsonschema:"pattern=^[NESWnesw]{0,4}$,description=Exits of the starting room"`
}

// LoadPlayerMessage restores a saved game
type LoadPlayerMessage struct {
	RecoveryCode int `json:"recovery_code" jsonschema:"minimum=100000,maximum=999999,required"`
}

// MoveMessage turns the player and steps one cell
type MoveMessage struct {
	Direction string `json:"direction" jsonschema:"enum=N,enum=E,enum=S,enum=W,enum=up,enum=right,enum=down,enum=left,required"`
}

// SelectMessage selects a cell of the current room for inspection
type SelectMessage struct {
	Row int `json:"row" jsonschema:"minimum=0,maximum=8,required"`
	Col int `json:"col" jsonschema:"minimum=0,maximum=8,required"`
}

// CraftBlockMessage presses nine units of a resource into a block
type CraftBlockMessage struct {
	Resource string `json:"resource" jsonschema:"enum=stone,enum=iron,enum=silver,enum=gold,enum=tin,enum=zinc,enum=crystal,required"`
}

// CraftConsumableMessage crafts a recipe
type CraftConsumableMessage struct {
	Stat string `json:"stat" jsonschema:"enum=health,enum=charge,enum=power,enum=bonus,required"`
	Tier int    `json:"tier" jsonschema:"minimum=1,maximum=2,required"`
}

// EquipMessage switches the equipped item
type EquipMessage struct {
	Kind  string `json:"kind" jsonschema:"enum=none,enum=pickaxe,enum=block,required"`
	Block string `json:"block,omitempty" jsonschema:"description=Block name when kind is block"`
}

// UseConsumableMessage applies one unit of a carried consumable
type UseConsumableMessage struct {
	ImpactStat  string `json:"impact_stat" jsonschema:"enum=health,enum=charge,enum=power,enum=bonus,required"`
	ImpactValue int    `json:"impact_value" jsonschema:"required"`
}

// StateMessage is the read-only projection of the player sent after every action
type StateMessage struct {
	RecoveryCode    int              `json:"recovery_code"`
	RoomID          string           `json:"room_id"`
	ExitForm        models.ExitForm  `json:"exit_form"`
	ExitLink        models.ExitLink  `json:"exit_link"`
	Cells           []models.Cell    `json:"cells"`
	Position        models.Position  `json:"position"`
	Facing          models.Direction `json:"facing"`
	Health          int              `json:"health"`
	MovementPerTurn int              `json:"movement_per_turn"`
	Inventory       models.Inventory `json:"inventory"`
	RoomsDiscovered int              `json:"rooms_discovered"`
	Selected        string           `json:"selected,omitempty"`
}

// ChestRewardMessage reports what an opened chest granted
type ChestRewardMessage struct {
	Reward models.Reward `json:"reward"`
}

// SavedMessage confirms a save
type SavedMessage struct {
	RecoveryCode int       `json:"recovery_code"`
	SavedAt      time.Time `json:"saved_at"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewState projects a player into a StateMessage
func NewState(p *models.Player) StateMessage {
	room := p.Current()
	state := StateMessage{
		RecoveryCode:    p.RecoveryCode,
		RoomID:          room.PersonalID,
		ExitForm:        room.ExitForm(),
		ExitLink:        room.ExitLink,
		Cells:           p.CurrentRoomCells(),
		Position:        p.Position,
		Facing:          p.Facing,
		Health:          p.Health,
		MovementPerTurn: p.MovementPerTurn,
		Inventory:       p.InventorySnapshot(),
		RoomsDiscovered: len(p.Rooms),
	}
	for _, c := range state.Cells {
		if c.IsSelected {
			state.Selected = c.ResourceInfo()
			break
		}
	}
	return state
}
