package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"deepmine/models"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore handles database operations using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL storage manager
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema initializes the database schema
func (ps *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		recovery_code INTEGER PRIMARY KEY,
		snapshot JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS base_maps (
		id TEXT PRIMARY KEY,
		exit_form TEXT NOT NULL,
		chest BOOLEAN NOT NULL DEFAULT FALSE,
		cells JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS base_maps_exit_form_idx ON base_maps (exit_form);
	`

	_, err := ps.db.Exec(schema)
	return err
}

// CreatePlayer inserts a player whose recovery code must be unused
func (ps *PostgresStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	snapshot, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	query := `
	INSERT INTO players (recovery_code, snapshot)
	VALUES ($1, $2)
	ON CONFLICT (recovery_code) DO NOTHING
	`

	res, err := ps.db.ExecContext(ctx, query, player.RecoveryCode, string(snapshot))
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("player %d: %w", player.RecoveryCode, ErrPlayerExists)
	}

	return nil
}

// SavePlayer saves a player to the database
func (ps *PostgresStore) SavePlayer(ctx context.Context, player *models.Player) error {
	snapshot, err := json.Marshal(player)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	query := `
	INSERT INTO players (recovery_code, snapshot)
	VALUES ($1, $2)
	ON CONFLICT (recovery_code)
	DO UPDATE SET
		snapshot = $2,
		updated_at = NOW()
	`

	if _, err := ps.db.ExecContext(ctx, query, player.RecoveryCode, string(snapshot)); err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}

	return nil
}

// LoadPlayer loads a player from the database by recovery code
func (ps *PostgresStore) LoadPlayer(ctx context.Context, recoveryCode int) (*models.Player, error) {
	query := `SELECT snapshot FROM players WHERE recovery_code = $1`

	var snapshot string
	err := ps.db.QueryRowContext(ctx, query, recoveryCode).Scan(&snapshot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("player %d: %w", recoveryCode, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	var player models.Player
	if err := json.Unmarshal([]byte(snapshot), &player); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}

	return &player, nil
}

// SaveBaseMap stores a template, assigning an id when it has none
func (ps *PostgresStore) SaveBaseMap(ctx context.Context, baseMap *models.BaseMap) error {
	if err := prepareBaseMap(baseMap, uuid.NewString); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	cellsJSON, err := json.Marshal(baseMap.Cells)
	if err != nil {
		return fmt.Errorf("failed to marshal base map cells: %w", err)
	}

	query := `
	INSERT INTO base_maps (id, exit_form, chest, cells)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id)
	DO UPDATE SET
		exit_form = $2, chest = $3, cells = $4
	`

	_, err = ps.db.ExecContext(ctx, query,
		baseMap.ID, string(baseMap.ExitForm), baseMap.Chest, string(cellsJSON))
	if err != nil {
		return fmt.Errorf("failed to save base map: %w", err)
	}

	return nil
}

// RandomBaseMap picks a random template with the given exit form
func (ps *PostgresStore) RandomBaseMap(ctx context.Context, form models.ExitForm) (*models.BaseMap, error) {
	query := `SELECT id, exit_form, chest, cells FROM base_maps WHERE exit_form = $1 ORDER BY random() LIMIT 1`

	var baseMap models.BaseMap
	var exitForm, cellsJSON string

	err := ps.db.QueryRowContext(ctx, query, string(form)).Scan(
		&baseMap.ID, &exitForm, &baseMap.Chest, &cellsJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("exit form %s: %w", form, ErrNoBaseMap)
		}
		return nil, fmt.Errorf("failed to load base map: %w", err)
	}

	baseMap.ExitForm = models.ExitForm(exitForm)
	if err := json.Unmarshal([]byte(cellsJSON), &baseMap.Cells); err != nil {
		return nil, fmt.Errorf("failed to unmarshal base map cells: %w", err)
	}

	return &baseMap, nil
}

// Close closes the database connection
func (ps *PostgresStore) Close() error {
	log.Println("Closing database connection...")
	return ps.db.Close()
}
