package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"

	"deepmine/models"

	"github.com/google/uuid"
)

// JSONStore handles data persistence using a local JSON file
type JSONStore struct {
	filePath   string
	mutex      sync.RWMutex
	writeMutex sync.Mutex // serializes file writes
	data       *JSONData
}

// JSONData represents the structure of the JSON database
type JSONData struct {
	Players  map[int]*models.Player     `json:"players"`
	BaseMaps map[string]*models.BaseMap `json:"base_maps"`
}

// NewJSONStore creates a new JSON storage manager
func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		data: &JSONData{
			Players:  make(map[int]*models.Player),
			BaseMaps: make(map[string]*models.BaseMap),
		},
	}

	if _, err := os.Stat(filePath); err == nil {
		if err := store.loadFromFile(); err != nil {
			return nil, fmt.Errorf("failed to load JSON store: %w", err)
		}
	} else {
		if err := store.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to create JSON store file: %w", err)
		}
	}

	return store, nil
}

// loadFromFile loads data from the JSON file
func (js *JSONStore) loadFromFile() error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	file, err := os.ReadFile(js.filePath)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(file, js.data); err != nil {
		return err
	}
	if js.data.Players == nil {
		js.data.Players = make(map[int]*models.Player)
	}
	if js.data.BaseMaps == nil {
		js.data.BaseMaps = make(map[string]*models.BaseMap)
	}
	return nil
}

// saveToFile writes a snapshot of the data to a temp file and renames it over
// the JSON file. writeMutex is held across marshal and write, so the last
// write always carries the newest snapshot.
func (js *JSONStore) saveToFile() error {
	js.writeMutex.Lock()
	defer js.writeMutex.Unlock()

	js.mutex.RLock()
	data, err := json.MarshalIndent(js.data, "", "  ")
	js.mutex.RUnlock()
	if err != nil {
		return err
	}

	tmpPath := js.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, js.filePath)
}

// CreatePlayer stores a player under a recovery code that must be unused
func (js *JSONStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	js.mutex.Lock()
	if _, exists := js.data.Players[player.RecoveryCode]; exists {
		js.mutex.Unlock()
		return fmt.Errorf("player %d: %w", player.RecoveryCode, ErrPlayerExists)
	}
	js.data.Players[player.RecoveryCode] = player
	js.mutex.Unlock()

	return js.saveToFile()
}

// SavePlayer saves a player to the store
func (js *JSONStore) SavePlayer(ctx context.Context, player *models.Player) error {
	js.mutex.Lock()
	js.data.Players[player.RecoveryCode] = player
	js.mutex.Unlock()

	return js.saveToFile()
}

// LoadPlayer loads a player by recovery code
func (js *JSONStore) LoadPlayer(ctx context.Context, recoveryCode int) (*models.Player, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	player, exists := js.data.Players[recoveryCode]
	if !exists {
		return nil, fmt.Errorf("player %d: %w", recoveryCode, ErrNotFound)
	}

	return player, nil
}

// SaveBaseMap stores a template, assigning an id when it has none
func (js *JSONStore) SaveBaseMap(ctx context.Context, baseMap *models.BaseMap) error {
	if err := prepareBaseMap(baseMap, uuid.NewString); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	js.mutex.Lock()
	js.data.BaseMaps[baseMap.ID] = baseMap
	js.mutex.Unlock()

	return js.saveToFile()
}

// RandomBaseMap picks a random stored template with the given exit form
func (js *JSONStore) RandomBaseMap(ctx context.Context, form models.ExitForm) (*models.BaseMap, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	var ids []string
	for id, b := range js.data.BaseMaps {
		if b.ExitForm == form {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("exit form %s: %w", form, ErrNoBaseMap)
	}
	sort.Strings(ids)

	return js.data.BaseMaps[ids[rand.Intn(len(ids))]], nil
}

// Close closes the store (no-op for JSON store)
func (js *JSONStore) Close() error {
	return nil
}
