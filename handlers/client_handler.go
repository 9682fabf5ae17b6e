package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"deepmine/messages"
	"deepmine/models"
	"deepmine/network"
	"deepmine/persistence"
	"deepmine/services"
)

// Error codes sent to clients
const (
	ErrCodeUnknownMessage  = "UNKNOWN_MESSAGE_TYPE"
	ErrCodeBadPayload      = "BAD_PAYLOAD"
	ErrCodeNoPlayer        = "NO_PLAYER"
	ErrCodePlayerNotFound  = "PLAYER_NOT_FOUND"
	ErrCodeStartFailed     = "START_FAILED"
	ErrCodeLoadFailed      = "LOAD_FAILED"
	ErrCodeSaveFailed      = "SAVE_FAILED"
	ErrCodeDiscoveryFailed = "DISCOVERY_FAILED"
)

// ClientHandler manages a single client connection
type ClientHandler struct {
	id              string
	conn            *network.Connection
	session         *services.Session
	clientManager   *ClientManager
	defaultExitForm models.ExitForm

	ctx       context.Context
	cancel    context.CancelFunc
	discovery sync.WaitGroup
}

// HandleClientConnection serves one websocket client until it disconnects
func HandleClientConnection(wsConn *websocket.Conn, session *services.Session, clientManager *ClientManager, defaultExitForm models.ExitForm) {
	conn := network.NewConnection(wsConn)
	ctx, cancel := context.WithCancel(context.Background())
	handler := &ClientHandler{
		id:              uuid.NewString(),
		conn:            conn,
		session:         session,
		clientManager:   clientManager,
		defaultExitForm: defaultExitForm,
		ctx:             ctx,
		cancel:          cancel,
	}

	log.Printf("Client %s connected from %s", handler.id, conn.RemoteAddr())
	clientManager.AddClient(handler.id, handler)

	go conn.WritePump()

	conn.ReadPump(handler)

	handler.cancel()
	handler.discovery.Wait()
	clientManager.RemoveClient(handler.id)
	if p, err := session.Player(); err == nil {
		log.Printf("Client %s disconnected (player %d)", handler.id, p.RecoveryCode)
	} else {
		log.Printf("Client %s disconnected", handler.id)
	}
}

// HandleMessage handles incoming messages from the client
func (h *ClientHandler) HandleMessage(conn *network.Connection, message []byte) {
	var baseMsg messages.BaseMessage
	if err := json.Unmarshal(message, &baseMsg); err != nil {
		log.Printf("Error unmarshaling message: %v", err)
		h.sendError(ErrCodeBadPayload, "message is not valid JSON")
		return
	}

	switch baseMsg.Type {
	case messages.MessageTypeNewPlayer:
		h.handleNewPlayer(baseMsg.Payload)
	case messages.MessageTypeLoadPlayer:
		h.handleLoadPlayer(baseMsg.Payload)
	case messages.MessageTypeMove:
		h.handleMove(baseMsg.Payload)
	case messages.MessageTypeAct:
		h.handleAct()
	case messages.MessageTypeSelect:
		h.handleSelect(baseMsg.Payload)
	case messages.MessageTypeCraftBlock:
		h.handleCraftBlock(baseMsg.Payload)
	case messages.MessageTypeCraftConsumable:
		h.handleCraftConsumable(baseMsg.Payload)
	case messages.MessageTypeEquip:
		h.handleEquip(baseMsg.Payload)
	case messages.MessageTypeUseConsumable:
		h.handleUseConsumable(baseMsg.Payload)
	case messages.MessageTypeSave:
		h.handleSave()
	default:
		log.Printf("Unknown message type: %s", baseMsg.Type)
		h.sendError(ErrCodeUnknownMessage, "Unknown message type received")
	}
}

// decodePayload converts the generic payload into a typed message
func decodePayload(payload interface{}, v interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// handleNewPlayer starts a new game
func (h *ClientHandler) handleNewPlayer(payload interface{}) {
	var msg messages.NewPlayerMessage
	if payload != nil {
		if err := decodePayload(payload, &msg); err != nil {
			h.sendError(ErrCodeBadPayload, err.Error())
			return
		}
	}

	form := h.defaultExitForm
	if msg.ExitForm != "" {
		parsed, err := models.ParseExitForm(msg.ExitForm)
		if err != nil {
			h.sendError(ErrCodeBadPayload, err.Error())
			return
		}
		form = parsed
	}

	player, err := h.session.Start(h.ctx, form)
	if err != nil {
		log.Printf("Error creating player: %v", err)
		h.sendError(ErrCodeStartFailed, "Failed to start a new game")
		return
	}
	log.Printf("Client %s started player %d", h.id, player.RecoveryCode)
	h.sendState(player)
}

// handleLoadPlayer restores a saved game
func (h *ClientHandler) handleLoadPlayer(payload interface{}) {
	var msg messages.LoadPlayerMessage
	if err := decodePayload(payload, &msg); err != nil {
		h.sendError(ErrCodeBadPayload, err.Error())
		return
	}

	player, err := h.session.Load(h.ctx, msg.RecoveryCode)
	if errors.Is(err, persistence.ErrNotFound) {
		h.sendError(ErrCodePlayerNotFound, fmt.Sprintf("No saved game for code %d", msg.RecoveryCode))
		return
	}
	if err != nil {
		log.Printf("Error loading player %d: %v", msg.RecoveryCode, err)
		h.sendError(ErrCodeLoadFailed, "Failed to load the saved game")
		return
	}
	h.sendState(player)
	h.discover(player)
}

// handleMove turns and steps the player, then tries to discover the room
// behind the exit it may now stand on
func (h *ClientHandler) handleMove(payload interface{}) {
	var msg messages.MoveMessage
	if err := decodePayload(payload, &msg); err != nil {
		h.sendError(ErrCodeBadPayload, err.Error())
		return
	}
	d, err := models.ParseDirection(msg.Direction)
	if err != nil {
		h.sendError(ErrCodeBadPayload, err.Error())
		return
	}

	player, err := h.session.Move(d)
	if h.reply(player, err) {
		h.discover(player)
	}
}

// handleAct uses the equipped item on the facing cell
func (h *ClientHandler) handleAct() {
	player, reward, err := h.session.Act()
	if err == nil && reward != nil {
		h.send(messages.MessageTypeChestReward, messages.ChestRewardMessage{Reward: *reward})
	}
	h.reply(player, err)
}

func (h *ClientHandler) handleSelect(payload interface{}) {
	var msg messages.SelectMessage
	if err := decodePayload(payload, &msg); err != nil {
		h.sendError(ErrCodeBadPayload, err.Error())
		return
	}
	h.reply(h.session.Select(models.Position{Row: msg.Row, Col: msg.Col}))
}

func (h *ClientHandler) handleCraftBlock(payload interface{}) {
	var msg messages.CraftBlockMessage
	if err := decodePayload(payload, &msg); err != nil {
		h.sendError(ErrCodeBadPayload, err.Error())
		return
	}
	h.reply(h.session.CraftBlock(models.ResourceName(msg.Resource)))
}

func (h *ClientHandler) handleCraftConsumable(payload interface{}) {
	var msg messages.CraftConsumableMessage
	if err := decodePayload(payload, &msg); err != nil {
		h.sendError(ErrCodeBadPayload, err.Error())
		return
	}
	h.reply(h.session.CraftConsumable(models.ImpactStat(msg.Stat), msg.Tier))
}

func (h *ClientHandler) handleEquip(payload interface{}) {
	var msg messages.EquipMessage
	if err := decodePayload(payload, &msg); err != nil {
		h.sendError(ErrCodeBadPayload, err.Error())
		return
	}
	h.reply(h.session.Equip(models.EquipKind(msg.Kind), models.BlockName(msg.Block)))
}

func (h *ClientHandler) handleUseConsumable(payload interface{}) {
	var msg messages.UseConsumableMessage
	if err := decodePayload(payload, &msg); err != nil {
		h.sendError(ErrCodeBadPayload, err.Error())
		return
	}
	h.reply(h.session.UseConsumable(models.Consumable{
		ImpactStat:  models.ImpactStat(msg.ImpactStat),
		ImpactValue: msg.ImpactValue,
	}))
}

// handleSave persists the current player
func (h *ClientHandler) handleSave() {
	saved, err := h.session.Save(h.ctx)
	if errors.Is(err, services.ErrNoSession) {
		h.sendError(ErrCodeNoPlayer, err.Error())
		return
	}
	if err != nil {
		log.Printf("Error saving player: %v", err)
		h.sendError(ErrCodeSaveFailed, "Failed to save the game")
		return
	}
	h.send(messages.MessageTypeSaved, messages.SavedMessage{
		RecoveryCode: saved.RecoveryCode,
		SavedAt:      saved.UpdatedAt,
	})
}

// discover runs room discovery in the background when the player stands on an
// unlinked exit, and pushes the new state once a room was linked
func (h *ClientHandler) discover(player *models.Player) {
	if _, ok := player.ExitClaim(); !ok {
		return
	}

	h.discovery.Add(1)
	go func() {
		defer h.discovery.Done()

		next, changed, err := h.session.Discover(h.ctx)
		if err != nil {
			if h.ctx.Err() == nil {
				log.Printf("Error discovering room: %v", err)
				h.sendError(ErrCodeDiscoveryFailed, "Could not reach the room behind this exit, try again")
			}
			return
		}
		if changed {
			h.sendState(next)
		}
	}()
}

// reply sends the state after an action, or the error it failed with, and
// reports whether the action succeeded
func (h *ClientHandler) reply(player *models.Player, err error) bool {
	if errors.Is(err, services.ErrNoSession) {
		h.sendError(ErrCodeNoPlayer, "Start or load a game first")
		return false
	}
	if err != nil {
		log.Printf("Error handling action: %v", err)
		h.sendError(ErrCodeBadPayload, err.Error())
		return false
	}
	h.sendState(player)
	return true
}

// sendState sends the player projection to the client
func (h *ClientHandler) sendState(player *models.Player) {
	h.send(messages.MessageTypeState, messages.NewState(player))
}

func (h *ClientHandler) sendError(code, message string) {
	h.send(messages.MessageTypeError, messages.ErrorMessage{Code: code, Message: message})
}

func (h *ClientHandler) send(t messages.MessageType, payload interface{}) {
	msg := messages.BaseMessage{Type: t, Payload: payload}
	if err := h.conn.SendMessage(msg); err != nil && !errors.Is(err, network.ErrConnectionClosed) {
		log.Printf("Error sending %s to client %s: %v", t, h.id, err)
	}
}
