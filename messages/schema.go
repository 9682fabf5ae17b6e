package messages

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// clientPayloads maps every client message type to its payload; nil means
// the message carries no payload
var clientPayloads = []struct {
	Type    MessageType
	Payload interface{}
}{
	{MessageTypeNewPlayer, NewPlayerMessage{}},
	{MessageTypeLoadPlayer, LoadPlayerMessage{}},
	{MessageTypeMove, MoveMessage{}},
	{MessageTypeAct, nil},
	{MessageTypeSelect, SelectMessage{}},
	{MessageTypeCraftBlock, CraftBlockMessage{}},
	{MessageTypeCraftConsumable, CraftConsumableMessage{}},
	{MessageTypeEquip, EquipMessage{}},
	{MessageTypeUseConsumable, UseConsumableMessage{}},
	{MessageTypeSave, nil},
}

// ClientMessageTypes lists the message types a client may send
func ClientMessageTypes() []MessageType {
	out := make([]MessageType, len(clientPayloads))
	for i, p := range clientPayloads {
		out[i] = p.Type
	}
	return out
}

// Schema describes the payload of every client message
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	variants := make([]*jsonschema.Schema, 0, len(clientPayloads))
	for _, p := range clientPayloads {
		var s *jsonschema.Schema
		if p.Payload == nil {
			s = &jsonschema.Schema{Type: "null"}
		} else {
			s = reflector.ReflectFromType(reflect.TypeOf(p.Payload))
			s.Version = ""
		}
		s.Title = string(p.Type)
		variants = append(variants, s)
	}

	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "deepmine client messages",
		Description: "Payload of each websocket message, selected by the envelope type field.",
		OneOf:       variants,
	}
}
