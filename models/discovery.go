package models

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// ErrNoTemplate is returned by a TemplateSource that has no base map for the
// requested exit form. Discovery treats it as "nothing found", not a failure.
var ErrNoTemplate = errors.New("no compatible base map")

// TemplateSource hands out room templates by exit form
type TemplateSource interface {
	RandomBaseMap(ctx context.Context, form ExitForm) (*BaseMap, error)
}

// ExitClaim names one unlinked exit of one room
type ExitClaim struct {
	RoomID    string    `json:"room_id"`
	Direction Direction `json:"direction"`
}

// Key identifies the claim in a set of pending claims
func (c ExitClaim) Key() string {
	return c.RoomID + "/" + string(c.Direction)
}

// Required is the exit the neighbor room must open to be entered from here
func (c ExitClaim) Required() Direction {
	return c.Direction.Opposite()
}

// RequiredForm picks the exit form to request for the neighbor room
func (c ExitClaim) RequiredForm(rng *rand.Rand) ExitForm {
	return RandomFormContaining(c.Required(), rng)
}

// ExitClaim reports the exit the player stands on when that exit is open and
// still unlinked
func (p *Player) ExitClaim() (ExitClaim, bool) {
	d, ok := ExitAt(p.Position)
	if !ok {
		return ExitClaim{}, false
	}
	room := p.Current()
	cell, _ := room.CellAt(p.Position)
	if cell.Type != CellExit || room.ExitLink.Get(d) != "" {
		return ExitClaim{}, false
	}
	return ExitClaim{RoomID: room.PersonalID, Direction: d}, true
}

// ApplyDiscovery links a new room built from b behind the claimed exit. Both
// sides of the link are written in the same transition. The receiver is
// returned when the claim went stale or the template cannot be entered from
// the claimed side.
func (p *Player) ApplyDiscovery(c ExitClaim, b *BaseMap, now time.Time) *Player {
	if b == nil || b.Validate() != nil || !FormOf(b.Cells).Has(c.Required()) {
		return p
	}
	idx := p.roomIndex(c.RoomID)
	if idx < 0 || p.Rooms[idx].ExitLink.Get(c.Direction) != "" {
		return p
	}

	room := NewRoom(b, now)
	for p.roomIndex(room.PersonalID) >= 0 {
		now = now.Add(time.Nanosecond)
		room.PersonalID = PersonalID(b.ID, now)
	}
	room = room.WithExitLink(c.Required(), c.RoomID)

	rooms := make([]Room, len(p.Rooms), len(p.Rooms)+1)
	copy(rooms, p.Rooms)
	rooms[idx] = p.Rooms[idx].WithExitLink(c.Direction, room.PersonalID)
	rooms = append(rooms, room)

	next := p.clone()
	next.Rooms = rooms
	return next
}

// DiscoverRoom runs the whole discovery protocol synchronously. A missing
// template leaves the player unchanged without error; source failures are
// returned.
func (p *Player) DiscoverRoom(ctx context.Context, src TemplateSource, rng *rand.Rand, now time.Time) (*Player, error) {
	claim, ok := p.ExitClaim()
	if !ok {
		return p, nil
	}
	b, err := src.RandomBaseMap(ctx, claim.RequiredForm(rng))
	if errors.Is(err, ErrNoTemplate) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	return p.ApplyDiscovery(claim, b, now), nil
}
