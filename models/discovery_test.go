package models

import (
	"context"
	"errors"
	"testing"
)

func playerOnNorthExit(t *testing.T) *Player {
	t.Helper()
	p := walkTo(newTestPlayer(t), North, 4)
	if p.Position != North.ExitPosition() {
		t.Fatalf("at %+v, want north exit", p.Position)
	}
	return p
}

func TestDiscoverRoomLinksBothSides(t *testing.T) {
	p := playerOnNorthExit(t)
	src := &fakeSource{base: testBaseMap("southern", "S")}

	next, err := p.DiscoverRoom(context.Background(), src, testRNG(), testNow)
	if err != nil {
		t.Fatalf("DiscoverRoom: %v", err)
	}
	if len(next.Rooms) != 2 {
		t.Fatalf("rooms = %d, want 2", len(next.Rooms))
	}
	if len(src.forms) != 1 || !src.forms[0].Has(South) {
		t.Errorf("requested forms %v, want one containing S", src.forms)
	}

	origin := next.Current()
	added := next.Rooms[1]
	if origin.ExitLink.Up != added.PersonalID {
		t.Errorf("origin up link = %q, want %q", origin.ExitLink.Up, added.PersonalID)
	}
	if added.ExitLink.Down != origin.PersonalID {
		t.Errorf("new room down link = %q, want %q", added.ExitLink.Down, origin.PersonalID)
	}
	if added.TemplateID != "southern" || !added.FirstTime {
		t.Errorf("new room = %s first=%v", added.TemplateID, added.FirstTime)
	}
	if next.CurrentRoom != p.CurrentRoom || next.Position != p.Position {
		t.Error("discovery moved the player")
	}
	if len(p.Rooms) != 1 || p.Current().ExitLink.Up != "" {
		t.Error("discovery modified the original player")
	}
}

func TestDiscoverRoomIsIdempotent(t *testing.T) {
	p := playerOnNorthExit(t)
	src := &fakeSource{base: testBaseMap("southern", "NS")}

	once, _ := p.DiscoverRoom(context.Background(), src, testRNG(), testNow)
	twice, err := once.DiscoverRoom(context.Background(), src, testRNG(), testNow)
	if err != nil {
		t.Fatal(err)
	}
	if twice != once {
		t.Error("second discovery on a linked exit changed the player")
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1", src.calls)
	}
}

func TestApplyDiscoveryStaleClaim(t *testing.T) {
	p := playerOnNorthExit(t)
	claim, ok := p.ExitClaim()
	if !ok {
		t.Fatal("no claim")
	}

	first := p.ApplyDiscovery(claim, testBaseMap("a", "S"), testNow)
	if got := first.ApplyDiscovery(claim, testBaseMap("b", "S"), testNow); got != first {
		t.Error("a claim on an already linked exit must be dropped")
	}

	if got := p.ApplyDiscovery(claim, testBaseMap("c", "N"), testNow); got != p {
		t.Error("a template without the required exit must be rejected")
	}
	if got := p.ApplyDiscovery(ExitClaim{RoomID: "gone", Direction: North}, testBaseMap("d", "S"), testNow); got != p {
		t.Error("a claim on an unknown room must be dropped")
	}
}

func TestApplyDiscoveryKeepsIDsUnique(t *testing.T) {
	p := playerOnNorthExit(t)
	claim, _ := p.ExitClaim()
	// same template and timestamp as the starting room
	base := testBaseMap("start", "NESW")
	next := p.ApplyDiscovery(claim, base, testNow)

	if len(next.Rooms) != 2 {
		t.Fatalf("rooms = %d, want 2", len(next.Rooms))
	}
	if next.Rooms[0].PersonalID == next.Rooms[1].PersonalID {
		t.Errorf("duplicate personal id %q", next.Rooms[0].PersonalID)
	}
}

func TestDiscoverRoomSourceOutcomes(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		src     *fakeSource
		wantErr error
	}{
		{"no template", &fakeSource{err: ErrNoTemplate}, nil},
		{"wrapped no template", &fakeSource{err: errors.Join(ErrNoTemplate, errors.New("empty table"))}, nil},
		{"source failure", &fakeSource{err: boom}, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := playerOnNorthExit(t)
			next, err := p.DiscoverRoom(context.Background(), tt.src, testRNG(), testNow)
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if next != p {
				t.Error("failed discovery changed the player")
			}
		})
	}
}

func TestExitClaimRequiresOpenExit(t *testing.T) {
	p := newTestPlayer(t)
	if _, ok := p.ExitClaim(); ok {
		t.Error("claim away from any exit")
	}

	closed := walkTo(NewPlayer(1, testBaseMap("e_only", "E"), testNow, testRNG()), North, 4)
	if closed.Position != (Position{Row: 1, Col: 4}) {
		t.Fatalf("walked to %+v through a closed exit", closed.Position)
	}
	if _, ok := closed.ExitClaim(); ok {
		t.Error("claim below a closed exit")
	}
}
