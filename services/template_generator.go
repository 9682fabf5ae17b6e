package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/zyedidia/generic/mapset"
	"go.opentelemetry.io/otel/attribute"

	"deepmine/models"
	"deepmine/persistence"
	"deepmine/telemetry"
)

// Generation defaults
const (
	DefaultPoolSize   = 4
	DefaultWallChance = 0.35
	DefaultChestRate  = 0.5
)

// veinWeight is one entry of the weighted ore table used for generated walls
type veinWeight struct {
	Resource models.ResourceName
	Weight   int
}

var veinWeights = []veinWeight{
	{models.Stone, 50},
	{models.Iron, 12},
	{models.Silver, 7},
	{models.Gold, 5},
	{models.Tin, 8},
	{models.Zinc, 7},
	{models.Crystal, 4},
	{models.Copper, 7},
}

// fixedCells stay floor in every generated template: the start cell and the
// anchors next to each exit
var fixedCells = []models.Position{{Row: 4, Col: 4}, {Row: 1, Col: 4}, {Row: 7, Col: 4}, {Row: 4, Col: 1}, {Row: 4, Col: 7}}

// TemplateGenerator builds room templates procedurally and keeps a small pool
// of them per exit form
type TemplateGenerator struct {
	poolSize   int
	wallChance float64
	chestRate  float64
	pools      map[models.ExitForm][]*models.BaseMap
	poolMutex  sync.RWMutex
	rng        *rand.Rand
	rngMutex   sync.Mutex
	fixed      mapset.Set[models.Position]
}

// NewTemplateGenerator creates a generator drawing from rng
func NewTemplateGenerator(poolSize int, rng *rand.Rand) *TemplateGenerator {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	fixed := mapset.New[models.Position]()
	for _, p := range fixedCells {
		fixed.Put(p)
	}
	return &TemplateGenerator{
		poolSize:   poolSize,
		wallChance: DefaultWallChance,
		chestRate:  DefaultChestRate,
		pools:      make(map[models.ExitForm][]*models.BaseMap),
		rng:        rng,
		fixed:      fixed,
	}
}

// Generate builds one template with the given exits
func (g *TemplateGenerator) Generate(form models.ExitForm) (*models.BaseMap, error) {
	if !form.Valid() {
		return nil, fmt.Errorf("cannot generate exit form %q", form)
	}

	g.rngMutex.Lock()
	defer g.rngMutex.Unlock()

	cells := models.DefaultCells()
	for i, c := range cells {
		c = models.Classify(c, form)
		if c.Type == models.CellFloor && !g.fixed.Has(c.Position()) && g.rng.Float64() < g.wallChance {
			c.Type = models.CellWall
			c.Resources = models.Vein(g.rollVein())
		}
		cells[i] = c
	}

	return &models.BaseMap{
		ID:       uuid.NewString(),
		Cells:    cells,
		ExitForm: form,
		Chest:    g.rng.Float64() < g.chestRate,
	}, nil
}

// rollVein draws an ore from the weighted table. Callers hold rngMutex.
func (g *TemplateGenerator) rollVein() models.ResourceName {
	total := 0
	for _, w := range veinWeights {
		total += w.Weight
	}
	roll := g.rng.Intn(total)
	for _, w := range veinWeights {
		if roll < w.Weight {
			return w.Resource
		}
		roll -= w.Weight
	}
	return models.Stone
}

// Pool returns the templates generated for form, creating them on first use
func (g *TemplateGenerator) Pool(form models.ExitForm) ([]*models.BaseMap, error) {
	g.poolMutex.RLock()
	pool, exists := g.pools[form]
	g.poolMutex.RUnlock()

	if exists {
		return pool, nil
	}
	return g.createPool(form)
}

// createPool generates the pool for form
func (g *TemplateGenerator) createPool(form models.ExitForm) ([]*models.BaseMap, error) {
	g.poolMutex.Lock()
	defer g.poolMutex.Unlock()

	// Check again if the pool was created by another goroutine
	if pool, exists := g.pools[form]; exists {
		return pool, nil
	}

	pool := make([]*models.BaseMap, 0, g.poolSize)
	for i := 0; i < g.poolSize; i++ {
		b, err := g.Generate(form)
		if err != nil {
			return nil, err
		}
		pool = append(pool, b)
	}

	g.pools[form] = pool
	return pool, nil
}

// RandomBaseMap implements models.TemplateSource from the generated pools
func (g *TemplateGenerator) RandomBaseMap(ctx context.Context, form models.ExitForm) (*models.BaseMap, error) {
	_, span := telemetry.Tracer("templates").Start(ctx, "TemplateGenerator.RandomBaseMap")
	defer span.End()
	span.SetAttributes(attribute.String("exit_form", string(form)))

	if !form.Valid() {
		return nil, fmt.Errorf("exit form %q: %w", form, models.ErrNoTemplate)
	}
	pool, err := g.Pool(form)
	if err != nil {
		return nil, err
	}

	g.rngMutex.Lock()
	idx := g.rng.Intn(len(pool))
	g.rngMutex.Unlock()

	return pool[idx], nil
}

// SeedStore stores perForm generated templates for every exit form the store
// has no template for, and reports how many were written
func (g *TemplateGenerator) SeedStore(ctx context.Context, store persistence.Storage, perForm int) (int, error) {
	ctx, span := telemetry.Tracer("templates").Start(ctx, "TemplateGenerator.SeedStore")
	defer span.End()

	written := 0
	for _, form := range models.AllExitForms {
		_, err := store.RandomBaseMap(ctx, form)
		if err == nil {
			continue
		}
		if !errors.Is(err, persistence.ErrNoBaseMap) {
			return written, fmt.Errorf("failed to check templates for %s: %w", form, err)
		}
		for i := 0; i < perForm; i++ {
			b, err := g.Generate(form)
			if err != nil {
				return written, err
			}
			if err := store.SaveBaseMap(ctx, b); err != nil {
				return written, fmt.Errorf("failed to store template %s: %w", b.ID, err)
			}
			written++
		}
	}

	span.SetAttributes(attribute.Int("templates.written", written))
	return written, nil
}

// FallbackSource asks Primary first and Secondary when Primary has no template
type FallbackSource struct {
	Primary   models.TemplateSource
	Secondary models.TemplateSource
}

// RandomBaseMap implements models.TemplateSource
func (f FallbackSource) RandomBaseMap(ctx context.Context, form models.ExitForm) (*models.BaseMap, error) {
	b, err := f.Primary.RandomBaseMap(ctx, form)
	if errors.Is(err, models.ErrNoTemplate) && f.Secondary != nil {
		return f.Secondary.RandomBaseMap(ctx, form)
	}
	return b, err
}
