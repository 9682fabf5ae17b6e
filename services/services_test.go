package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"deepmine/models"
	"deepmine/persistence"
)

func newStore(t *testing.T) *persistence.JSONStore {
	t.Helper()
	store, err := persistence.NewJSONStore(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	return store
}

func newGenerator(seed int64) *TemplateGenerator {
	return NewTemplateGenerator(2, rand.New(rand.NewSource(seed)))
}

// collidingStore reports the first collisions CreatePlayer calls as taken codes
type collidingStore struct {
	persistence.Storage
	collisions int
	calls      int
}

func (c *collidingStore) CreatePlayer(ctx context.Context, p *models.Player) error {
	c.calls++
	if c.calls <= c.collisions {
		return fmt.Errorf("code %d: %w", p.RecoveryCode, persistence.ErrPlayerExists)
	}
	return c.Storage.CreatePlayer(ctx, p)
}

// gatedSource blocks every fetch until release is closed
type gatedSource struct {
	inner   models.TemplateSource
	started chan struct{}
	release chan struct{}
	mutex   sync.Mutex
	calls   int
}

func newGatedSource(inner models.TemplateSource) *gatedSource {
	return &gatedSource{inner: inner, started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (g *gatedSource) RandomBaseMap(ctx context.Context, form models.ExitForm) (*models.BaseMap, error) {
	g.mutex.Lock()
	g.calls++
	g.mutex.Unlock()
	g.started <- struct{}{}
	<-g.release
	return g.inner.RandomBaseMap(ctx, form)
}

type errSource struct{ err error }

func (e errSource) RandomBaseMap(context.Context, models.ExitForm) (*models.BaseMap, error) {
	return nil, e.err
}

func TestGeneratedTemplatesAreValid(t *testing.T) {
	gen := newGenerator(1)
	for _, form := range models.AllExitForms {
		b, err := gen.Generate(form)
		if err != nil {
			t.Fatalf("Generate(%s): %v", form, err)
		}
		if err := b.Validate(); err != nil {
			t.Errorf("Generate(%s) produced an invalid template: %v", form, err)
		}
		if got := models.FormOf(b.Cells); got != form {
			t.Errorf("Generate(%s) has exits %s", form, got)
		}
		for _, p := range fixedCells {
			if c := b.Cells[p.Index()]; c.Type != models.CellFloor {
				t.Errorf("Generate(%s) put %s on fixed cell %+v", form, c.Type, p)
			}
		}
	}

	if _, err := gen.Generate("Q"); err == nil {
		t.Error("Generate accepted an invalid form")
	}
}

func TestTemplateGeneratorPoolIsStable(t *testing.T) {
	gen := newGenerator(2)
	first, err := gen.Pool("NS")
	if err != nil {
		t.Fatal(err)
	}
	second, _ := gen.Pool("NS")
	if len(first) != 2 || &first[0] != &second[0] {
		t.Errorf("pool regenerated: %d templates", len(first))
	}

	b, err := gen.RandomBaseMap(context.Background(), "NS")
	if err != nil {
		t.Fatalf("RandomBaseMap: %v", err)
	}
	if b != first[0] && b != first[1] {
		t.Error("RandomBaseMap returned a template outside the pool")
	}
	if _, err := gen.RandomBaseMap(context.Background(), ""); !errors.Is(err, models.ErrNoTemplate) {
		t.Errorf("empty form: err = %v, want ErrNoTemplate", err)
	}
}

func TestSeedStoreFillsMissingForms(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	gen := newGenerator(3)

	written, err := gen.SeedStore(ctx, store, 2)
	if err != nil {
		t.Fatalf("SeedStore: %v", err)
	}
	if want := 2 * len(models.AllExitForms); written != want {
		t.Errorf("written = %d, want %d", written, want)
	}
	for _, form := range models.AllExitForms {
		if _, err := store.RandomBaseMap(ctx, form); err != nil {
			t.Errorf("no template for %s after seeding: %v", form, err)
		}
	}

	again, err := gen.SeedStore(ctx, store, 2)
	if err != nil || again != 0 {
		t.Errorf("second SeedStore = %d, %v; want 0, nil", again, err)
	}
}

func TestFallbackSource(t *testing.T) {
	ctx := context.Background()
	gen := newGenerator(4)

	src := FallbackSource{Primary: newStore(t), Secondary: gen}
	if _, err := src.RandomBaseMap(ctx, "E"); err != nil {
		t.Errorf("fallback did not reach the generator: %v", err)
	}

	boom := errors.New("boom")
	src = FallbackSource{Primary: errSource{boom}, Secondary: gen}
	if _, err := src.RandomBaseMap(ctx, "E"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want the primary failure", err)
	}
}

func TestCreatePlayer(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	ps := NewPlayerService(store, newGenerator(5), rand.New(rand.NewSource(5)))

	p, err := ps.CreatePlayer(ctx, "NESW")
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	if p.RecoveryCode < minRecoveryCode || p.RecoveryCode > maxRecoveryCode {
		t.Errorf("recovery code %d is not six digits", p.RecoveryCode)
	}
	if p.Current().ExitForm() != "NESW" {
		t.Errorf("starting room exits = %s", p.Current().ExitForm())
	}

	loaded, err := ps.LoadPlayer(ctx, p.RecoveryCode)
	if err != nil {
		t.Fatalf("LoadPlayer: %v", err)
	}
	if loaded.CurrentRoom != p.CurrentRoom {
		t.Errorf("loaded room %q, want %q", loaded.CurrentRoom, p.CurrentRoom)
	}

	if _, err := ps.LoadPlayer(ctx, 1); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("unknown code: err = %v, want ErrNotFound", err)
	}
}

func TestCreatePlayerRetriesCollisions(t *testing.T) {
	ctx := context.Background()
	store := &collidingStore{Storage: newStore(t), collisions: 3}
	ps := NewPlayerService(store, newGenerator(6), rand.New(rand.NewSource(6)))

	if _, err := ps.CreatePlayer(ctx, "N"); err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	if store.calls != 4 {
		t.Errorf("CreatePlayer attempts = %d, want 4", store.calls)
	}

	exhausted := &collidingStore{Storage: newStore(t), collisions: MaxCodeAttempts}
	ps = NewPlayerService(exhausted, newGenerator(6), rand.New(rand.NewSource(6)))
	if _, err := ps.CreatePlayer(ctx, "N"); err == nil {
		t.Error("CreatePlayer succeeded with every code taken")
	}
}

func TestSavePlayerStampsTime(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	ps := NewPlayerService(store, newGenerator(7), rand.New(rand.NewSource(7)))
	saveTime := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	p, err := ps.CreatePlayer(ctx, "S")
	if err != nil {
		t.Fatal(err)
	}
	ps.now = func() time.Time { return saveTime }

	saved, err := ps.SavePlayer(ctx, p.Move(models.North, rand.New(rand.NewSource(1))))
	if err != nil {
		t.Fatalf("SavePlayer: %v", err)
	}
	if !saved.UpdatedAt.Equal(saveTime) {
		t.Errorf("UpdatedAt = %v, want %v", saved.UpdatedAt, saveTime)
	}
	loaded, _ := store.LoadPlayer(ctx, p.RecoveryCode)
	if loaded.Facing != models.North {
		t.Errorf("stored facing %s, want N", loaded.Facing)
	}
}

func newSession(t *testing.T, templates models.TemplateSource) *Session {
	t.Helper()
	ps := NewPlayerService(newStore(t), newGenerator(8), rand.New(rand.NewSource(8)))
	return NewSession(ps, templates, rand.New(rand.NewSource(9)))
}

// walkToNorthExit clears the column above the start cell and walks onto the
// north exit
func walkToNorthExit(t *testing.T, s *Session) *models.Player {
	t.Helper()
	s.mutex.Lock()
	room := s.player.Current()
	for row := 1; row < 4; row++ {
		room = room.WithCell(models.Cell{Row: row, Col: 4, Type: models.CellFloor})
	}
	p := *s.player
	p.Rooms = append([]models.Room{room}, s.player.Rooms[1:]...)
	s.player = &p
	s.mutex.Unlock()

	for i := 0; i < 4; i++ {
		if _, err := s.Move(models.North); err != nil {
			t.Fatalf("Move: %v", err)
		}
	}
	cur, err := s.Player()
	if err != nil {
		t.Fatal(err)
	}
	if cur.Position != models.North.ExitPosition() {
		t.Fatalf("at %+v, want north exit", cur.Position)
	}
	return cur
}

func TestSessionRequiresPlayer(t *testing.T) {
	s := newSession(t, newGenerator(10))
	if _, err := s.Move(models.North); !errors.Is(err, ErrNoSession) {
		t.Errorf("Move: err = %v, want ErrNoSession", err)
	}
	if _, _, err := s.Discover(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Discover: err = %v, want ErrNoSession", err)
	}
	if _, err := s.Save(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Save: err = %v, want ErrNoSession", err)
	}
}

func TestSessionDiscoverLinksOnce(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, newGenerator(11))
	if _, err := s.Start(ctx, "NESW"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	walkToNorthExit(t, s)

	p, changed, err := s.Discover(ctx)
	if err != nil || !changed {
		t.Fatalf("Discover = %v, %v", changed, err)
	}
	if len(p.Rooms) != 2 || p.Current().ExitLink.Up == "" {
		t.Fatalf("rooms = %d, up link %q", len(p.Rooms), p.Current().ExitLink.Up)
	}

	again, changed, err := s.Discover(ctx)
	if err != nil || changed || again != p {
		t.Errorf("second Discover = %v, %v; want unchanged", changed, err)
	}
}

func TestSessionDiscoverClaimsExit(t *testing.T) {
	ctx := context.Background()
	gated := newGatedSource(newGenerator(12))
	s := newSession(t, gated)
	if _, err := s.Start(ctx, "NESW"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	walkToNorthExit(t, s)

	type result struct {
		p       *models.Player
		changed bool
		err     error
	}
	done := make(chan result, 1)
	go func() {
		p, changed, err := s.Discover(ctx)
		done <- result{p, changed, err}
	}()
	<-gated.started

	// the exit is claimed: a second attempt must not fetch
	_, changed, err := s.Discover(ctx)
	if err != nil || changed {
		t.Errorf("concurrent Discover = %v, %v", changed, err)
	}

	// actions keep working while the fetch is in flight
	moved, err := s.Move(models.South)
	if err != nil || moved.Position != (models.Position{Row: 1, Col: 4}) {
		t.Errorf("Move during discovery: %+v, %v", moved.Position, err)
	}

	close(gated.release)
	r := <-done
	if r.err != nil || !r.changed {
		t.Fatalf("first Discover = %v, %v", r.changed, r.err)
	}
	if gated.calls != 1 {
		t.Errorf("template fetches = %d, want 1", gated.calls)
	}
	if r.p.Position != (models.Position{Row: 1, Col: 4}) {
		t.Error("discovery result overwrote the move made during the fetch")
	}
	if len(r.p.Rooms) != 2 {
		t.Errorf("rooms = %d, want 2", len(r.p.Rooms))
	}
}

func TestSessionDiscoverNoTemplateIsSilent(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, errSource{fmt.Errorf("wrapped: %w", models.ErrNoTemplate)})
	if _, err := s.Start(ctx, "NESW"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	before := walkToNorthExit(t, s)

	p, changed, err := s.Discover(ctx)
	if err != nil || changed || p != before {
		t.Errorf("Discover = %v, %v; want silent no-op", changed, err)
	}
}

func TestSessionDiscoverSurfacesFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("backend down")
	s := newSession(t, errSource{boom})
	if _, err := s.Start(ctx, "NESW"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	before := walkToNorthExit(t, s)

	p, changed, err := s.Discover(ctx)
	if !errors.Is(err, boom) || changed || p != before {
		t.Errorf("Discover = %v, %v; want the backend error and no change", changed, err)
	}

	// the claim is released after a failure
	s.mutex.Lock()
	pending := s.pending.Size()
	s.mutex.Unlock()
	if pending != 0 {
		t.Errorf("%d claims left pending", pending)
	}
}

func TestSessionCraftAndSave(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, newGenerator(13))
	p, err := s.Start(ctx, "EW")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if got, _ := s.CraftConsumable(models.StatHealth, 9); got != p {
		t.Error("unknown recipe changed the player")
	}
	if got, _ := s.Equip(models.EquipBlock, "goldBlock"); got != p {
		t.Error("equipped a block the player does not own")
	}

	saved, err := s.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := s.Load(ctx, saved.RecoveryCode)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.RecoveryCode != p.RecoveryCode || loaded.CurrentRoom != p.CurrentRoom {
		t.Errorf("loaded %d/%s", loaded.RecoveryCode, loaded.CurrentRoom)
	}
}
