package persistence

import (
	"context"
	"errors"

	"deepmine/models"
)

// Sentinel errors shared by every Storage implementation
var (
	ErrNotFound     = errors.New("not found")
	ErrPlayerExists = errors.New("recovery code already in use")
	ErrInvalid      = errors.New("invalid record")
	// ErrNoBaseMap is the discovery "nothing found" signal
	ErrNoBaseMap = models.ErrNoTemplate
)

// Storage defines the interface for data persistence
type Storage interface {
	// CreatePlayer stores a new player; ErrPlayerExists when the code is taken
	CreatePlayer(ctx context.Context, player *models.Player) error
	SavePlayer(ctx context.Context, player *models.Player) error
	LoadPlayer(ctx context.Context, recoveryCode int) (*models.Player, error)
	SaveBaseMap(ctx context.Context, baseMap *models.BaseMap) error
	// RandomBaseMap returns a random template whose exit form is exactly form
	RandomBaseMap(ctx context.Context, form models.ExitForm) (*models.BaseMap, error)
	Close() error
}

// prepareBaseMap fills in derived fields and validates a template before it is stored
func prepareBaseMap(b *models.BaseMap, newID func() string) error {
	if b == nil {
		return errors.New("nil base map")
	}
	if b.ID == "" {
		b.ID = newID()
	}
	if b.ExitForm == "" {
		b.ExitForm = models.FormOf(b.Cells)
	}
	if !b.ExitForm.Valid() {
		return errors.New("base map " + b.ID + " has no open exit")
	}
	return b.Validate()
}
