package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"deepmine/models"
	"deepmine/persistence"
	"deepmine/telemetry"
)

// Recovery codes are six digit numbers
const (
	minRecoveryCode = 100000
	maxRecoveryCode = 999999
	// MaxCodeAttempts bounds the recovery code collision loop
	MaxCodeAttempts = 20
)

// PlayerService manages player-related operations
type PlayerService struct {
	db        persistence.Storage
	templates models.TemplateSource
	rng       *rand.Rand
	rngMutex  sync.Mutex
	now       func() time.Time
}

// NewPlayerService creates a new player service. templates provides the
// starting room of new players.
func NewPlayerService(db persistence.Storage, templates models.TemplateSource, rng *rand.Rand) *PlayerService {
	return &PlayerService{
		db:        db,
		templates: templates,
		rng:       rng,
		now:       time.Now,
	}
}

// newRecoveryCode draws a random six digit code
func (ps *PlayerService) newRecoveryCode() int {
	ps.rngMutex.Lock()
	defer ps.rngMutex.Unlock()
	return minRecoveryCode + ps.rng.Intn(maxRecoveryCode-minRecoveryCode+1)
}

// CreatePlayer builds a new player in a room with the given exits and stores
// it under a fresh recovery code, retrying on collisions
func (ps *PlayerService) CreatePlayer(ctx context.Context, form models.ExitForm) (*models.Player, error) {
	ctx, span := telemetry.Tracer("players").Start(ctx, "PlayerService.CreatePlayer")
	defer span.End()
	span.SetAttributes(attribute.String("exit_form", string(form)))

	start, err := ps.templates.RandomBaseMap(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("failed to get starting room: %w", err)
	}

	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		code := ps.newRecoveryCode()

		ps.rngMutex.Lock()
		player := models.NewPlayer(code, start, ps.now(), ps.rng)
		ps.rngMutex.Unlock()

		err := ps.db.CreatePlayer(ctx, player)
		if err == nil {
			span.SetAttributes(attribute.Int("code_attempts", attempt))
			return player, nil
		}
		if !errors.Is(err, persistence.ErrPlayerExists) {
			return nil, fmt.Errorf("failed to save new player to database: %w", err)
		}
	}

	return nil, fmt.Errorf("no free recovery code after %d attempts", MaxCodeAttempts)
}

// LoadPlayer restores a player by recovery code
func (ps *PlayerService) LoadPlayer(ctx context.Context, recoveryCode int) (*models.Player, error) {
	ctx, span := telemetry.Tracer("players").Start(ctx, "PlayerService.LoadPlayer")
	defer span.End()

	player, err := ps.db.LoadPlayer(ctx, recoveryCode)
	if err != nil {
		return nil, err
	}
	if _, ok := player.RoomByID(player.CurrentRoom); !ok {
		return nil, fmt.Errorf("player %d: current room %q missing from save", recoveryCode, player.CurrentRoom)
	}
	span.SetAttributes(attribute.Int("rooms", len(player.Rooms)))
	return player, nil
}

// SavePlayer stamps and stores the player, returning the stamped copy
func (ps *PlayerService) SavePlayer(ctx context.Context, player *models.Player) (*models.Player, error) {
	ctx, span := telemetry.Tracer("players").Start(ctx, "PlayerService.SavePlayer")
	defer span.End()

	saved := player.Touch(ps.now())
	if err := ps.db.SavePlayer(ctx, saved); err != nil {
		return nil, fmt.Errorf("failed to save player %d: %w", player.RecoveryCode, err)
	}
	return saved, nil
}
