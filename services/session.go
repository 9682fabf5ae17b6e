package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/zyedidia/generic/mapset"
	"go.opentelemetry.io/otel/attribute"

	"deepmine/models"
	"deepmine/telemetry"
)

// ErrNoSession is returned by actions issued before a player is started or loaded
var ErrNoSession = errors.New("no active player")

// Session holds the current player of one client. Every action swaps in the
// new immutable *models.Player under the mutex.
type Session struct {
	players   *PlayerService
	templates models.TemplateSource
	rng       *rand.Rand
	now       func() time.Time

	mutex      sync.Mutex
	player     *models.Player
	generation int
	pending    mapset.Set[string]
}

// NewSession creates an empty session. templates is the discovery source.
func NewSession(players *PlayerService, templates models.TemplateSource, rng *rand.Rand) *Session {
	return &Session{
		players:   players,
		templates: templates,
		rng:       rng,
		now:       time.Now,
		pending:   mapset.New[string](),
	}
}

// reset installs a new player and drops claims belonging to the previous one.
// Callers hold the mutex.
func (s *Session) reset(p *models.Player) {
	s.player = p
	s.generation++
	s.pending = mapset.New[string]()
}

// Start creates a new player whose first room has the given exits
func (s *Session) Start(ctx context.Context, form models.ExitForm) (*models.Player, error) {
	p, err := s.players.CreatePlayer(ctx, form)
	if err != nil {
		return nil, err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.reset(p)
	return p, nil
}

// Load restores a saved player by recovery code
func (s *Session) Load(ctx context.Context, recoveryCode int) (*models.Player, error) {
	p, err := s.players.LoadPlayer(ctx, recoveryCode)
	if err != nil {
		return nil, err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.reset(p)
	return p, nil
}

// Player returns the current player
func (s *Session) Player() (*models.Player, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.player == nil {
		return nil, ErrNoSession
	}
	return s.player, nil
}

// apply runs one transition against the current player and stores the result
func (s *Session) apply(fn func(p *models.Player, rng *rand.Rand) *models.Player) (*models.Player, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.player == nil {
		return nil, ErrNoSession
	}
	s.player = fn(s.player, s.rng)
	return s.player, nil
}

// Move turns and steps the player
func (s *Session) Move(d models.Direction) (*models.Player, error) {
	return s.apply(func(p *models.Player, rng *rand.Rand) *models.Player {
		return p.Move(d, rng)
	})
}

// Act performs the use action on the facing cell. The reward is non-nil when
// a chest was opened.
func (s *Session) Act() (*models.Player, *models.Reward, error) {
	var reward *models.Reward
	p, err := s.apply(func(p *models.Player, rng *rand.Rand) *models.Player {
		next, r := p.Act(rng)
		reward = r
		return next
	})
	return p, reward, err
}

// Select marks a cell of the current room
func (s *Session) Select(pos models.Position) (*models.Player, error) {
	return s.apply(func(p *models.Player, _ *rand.Rand) *models.Player {
		return p.SelectCell(pos)
	})
}

// CraftBlock presses a resource into a block
func (s *Session) CraftBlock(r models.ResourceName) (*models.Player, error) {
	return s.apply(func(p *models.Player, _ *rand.Rand) *models.Player {
		return p.CraftBlock(r)
	})
}

// CraftConsumable crafts the recipe for stat and tier. An unknown recipe
// leaves the player unchanged.
func (s *Session) CraftConsumable(stat models.ImpactStat, tier int) (*models.Player, error) {
	recipe, ok := models.FindRecipe(stat, tier)
	return s.apply(func(p *models.Player, _ *rand.Rand) *models.Player {
		if !ok {
			return p
		}
		return p.CraftConsumable(recipe)
	})
}

// Equip switches the equipped item
func (s *Session) Equip(kind models.EquipKind, block models.BlockName) (*models.Player, error) {
	return s.apply(func(p *models.Player, _ *rand.Rand) *models.Player {
		return p.Equip(kind, block)
	})
}

// UseConsumable applies one unit of a consumable
func (s *Session) UseConsumable(c models.Consumable) (*models.Player, error) {
	return s.apply(func(p *models.Player, _ *rand.Rand) *models.Player {
		return p.UseConsumable(c)
	})
}

// Save persists the current player
func (s *Session) Save(ctx context.Context) (*models.Player, error) {
	s.mutex.Lock()
	p, gen := s.player, s.generation
	s.mutex.Unlock()
	if p == nil {
		return nil, ErrNoSession
	}

	saved, err := s.players.SavePlayer(ctx, p)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	// only the timestamp changed; keep any transition made during the save
	if s.generation == gen && s.player == p {
		s.player = saved
	}
	return saved, nil
}

// Discover links a new room behind the exit the player stands on. The exit is
// claimed under the mutex, the template is fetched without it, and the result
// is applied only if the claim still holds. A second call for an exit that is
// already being discovered returns immediately. changed reports whether a room
// was added.
func (s *Session) Discover(ctx context.Context) (p *models.Player, changed bool, err error) {
	ctx, span := telemetry.Tracer("discovery").Start(ctx, "Session.Discover")
	defer span.End()

	s.mutex.Lock()
	if s.player == nil {
		s.mutex.Unlock()
		return nil, false, ErrNoSession
	}
	claim, ok := s.player.ExitClaim()
	if !ok || s.pending.Has(claim.Key()) {
		p = s.player
		s.mutex.Unlock()
		return p, false, nil
	}
	s.pending.Put(claim.Key())
	gen := s.generation
	form := claim.RequiredForm(s.rng)
	s.mutex.Unlock()

	span.SetAttributes(
		attribute.String("room_id", claim.RoomID),
		attribute.String("direction", string(claim.Direction)),
		attribute.String("exit_form", string(form)),
	)

	baseMap, fetchErr := s.templates.RandomBaseMap(ctx, form)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.generation != gen {
		// the session switched players during the fetch
		return s.player, false, nil
	}
	s.pending.Remove(claim.Key())

	if errors.Is(fetchErr, models.ErrNoTemplate) {
		span.SetAttributes(attribute.Bool("template_found", false))
		return s.player, false, nil
	}
	if fetchErr != nil {
		return s.player, false, fmt.Errorf("failed to fetch template for %s: %w", form, fetchErr)
	}

	next := s.player.ApplyDiscovery(claim, baseMap, s.now())
	changed = next != s.player
	s.player = next
	span.SetAttributes(attribute.Bool("linked", changed), attribute.Int("rooms", len(next.Rooms)))
	return next, changed, nil
}
