package handlers

import (
	"log"
	"sync"
)

// ClientManager manages connected clients
type ClientManager struct {
	clients map[string]*ClientHandler // connection id to handler
	mutex   sync.RWMutex
}

// NewClientManager creates a new client manager
func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[string]*ClientHandler),
	}
}

// AddClient adds a client to the manager
func (cm *ClientManager) AddClient(id string, handler *ClientHandler) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[id] = handler
}

// RemoveClient removes a client from the manager
func (cm *ClientManager) RemoveClient(id string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	delete(cm.clients, id)
}

// Count returns the number of connected clients
func (cm *ClientManager) Count() int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()
	return len(cm.clients)
}

// BroadcastToAll sends a message to all connected clients
func (cm *ClientManager) BroadcastToAll(msg interface{}) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for id, client := range cm.clients {
		if err := client.conn.SendMessage(msg); err != nil {
			log.Printf("Error broadcasting to client %s: %v", id, err)
		}
	}
}

// ExecuteOnAllClients executes a function for each connected client
func (cm *ClientManager) ExecuteOnAllClients(action func(*ClientHandler)) {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	for _, client := range cm.clients {
		action(client)
	}
}

// CloseAll closes every client connection
func (cm *ClientManager) CloseAll() {
	cm.ExecuteOnAllClients(func(client *ClientHandler) {
		client.cancel()
		client.conn.Close()
	})
}
