package match

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/vango-dev/codegame/pkg/model"
)

func fixedArena(units ...model.Unit) *Arena {
	a := NewArena(ArenaConfig{Players: 2, Ticks: 100, MapSize: 20})
	a.now = func() time.Time { return time.UnixMilli(1000) }
	for _, u := range units {
		a.units = append(a.units, &arenaUnit{Unit: u})
	}
	return a
}

func unitAt(id, owner int32, x, y float64) model.Unit {
	return model.Unit{ID: id, PlayerID: owner, Position: model.Vec2{X: x, Y: y}, Health: UnitHealth}
}

func near(a, b model.Vec2) bool {
	return a.Dist(b) < 1e-9
}

func TestNewArenaPlacement(t *testing.T) {
	cfg := ArenaConfig{Players: 2, Ticks: 10, MapSize: 30, UnitsPerPlayer: 4, Seed: 7, Names: []string{"alice"}}
	a := NewArena(cfg)
	b := NewArena(cfg)
	a.now = b.now

	if !reflect.DeepEqual(a.Spectate().Units, b.Spectate().Units) {
		t.Error("same seed should place units identically")
	}

	view := a.Spectate()
	if len(view.Units) != 8 {
		t.Fatalf("units = %d, want 8", len(view.Units))
	}
	for _, u := range view.Units {
		if u.Position.X < 0 || u.Position.X > 30 || u.Position.Y < 0 || u.Position.Y > 30 {
			t.Errorf("unit %d placed off map at %+v", u.ID, u.Position)
		}
		if u.Health != UnitHealth {
			t.Errorf("unit %d health = %d", u.ID, u.Health)
		}
	}
	if view.Players[0].Name != "alice" || view.Players[1].Name != "Player 2" {
		t.Errorf("players = %+v", view.Players)
	}

	c := NewArena(ArenaConfig{Players: 2, Ticks: 10, MapSize: 30, UnitsPerPlayer: 4, Seed: 8})
	if reflect.DeepEqual(a.Spectate().Units, c.Spectate().Units) {
		t.Error("different seeds placed units identically")
	}
}

func TestArenaViews(t *testing.T) {
	a := fixedArena(unitAt(1, 0, 0, 0), unitAt(2, 1, 5, 5))

	view := a.PlayerView(1)
	if view.MyID != 1 || view.MaxTicks != 100 || view.MapSize != 20 || view.ServerTimeMillis != 1000 {
		t.Errorf("view = %+v", view)
	}
	if mine := view.MyUnits(); len(mine) != 1 || mine[0].ID != 2 {
		t.Errorf("MyUnits() = %+v", mine)
	}
	if a.Spectate().MyID != model.SpectatorID {
		t.Error("Spectate() should use the spectator ID")
	}

	// Views are copies.
	view.Players[0].Score = 99
	if a.Spectate().Players[0].Score != 0 {
		t.Error("mutating a view changed the game")
	}
}

func TestArenaMovement(t *testing.T) {
	a := fixedArena(unitAt(1, 0, 0, 0), unitAt(2, 1, 10, 10))

	a.ProcessTurn(map[int]model.Action{
		0: {Orders: []model.UnitOrder{{UnitID: 1, MoveTo: &model.Vec2{X: 3, Y: 0}}}},
		// Seat 1 cannot order seat 0's unit.
		1: {Orders: []model.UnitOrder{{UnitID: 1, MoveTo: &model.Vec2{X: 0, Y: 9}}}},
	})
	if got, _ := a.Spectate().Unit(1); !near(got.Position, model.Vec2{X: 1, Y: 0}) {
		t.Errorf("after tick 1 position = %+v, want {1 0}", got.Position)
	}

	// The target persists without new orders.
	a.ProcessTurn(nil)
	a.ProcessTurn(nil)
	a.ProcessTurn(nil)
	if got, _ := a.Spectate().Unit(1); !near(got.Position, model.Vec2{X: 3, Y: 0}) {
		t.Errorf("position = %+v, want {3 0}", got.Position)
	}

	// Targets are clamped to the map.
	a.ProcessTurn(map[int]model.Action{
		1: {Orders: []model.UnitOrder{{UnitID: 2, MoveTo: &model.Vec2{X: 100, Y: 10}}}},
	})
	for i := 0; i < 20; i++ {
		a.ProcessTurn(nil)
	}
	if got, _ := a.Spectate().Unit(2); !near(got.Position, model.Vec2{X: 20, Y: 10}) {
		t.Errorf("clamped position = %+v, want {20 10}", got.Position)
	}
	if a.Spectate().Tick != 25 {
		t.Errorf("Tick = %d, want 25", a.Spectate().Tick)
	}
}

func TestArenaCombat(t *testing.T) {
	target := int32(2)
	a := fixedArena(unitAt(1, 0, 0, 0), unitAt(2, 1, 1, 0), unitAt(3, 1, 10, 10))

	attack := map[int]model.Action{0: {Orders: []model.UnitOrder{{UnitID: 1, Attack: &target}}}}
	a.ProcessTurn(attack)
	if got, _ := a.Spectate().Unit(2); got.Health != UnitHealth-AttackDamage {
		t.Errorf("health = %d, want %d", got.Health, UnitHealth-AttackDamage)
	}

	for i := 1; i < UnitHealth/AttackDamage; i++ {
		a.ProcessTurn(nil)
	}
	if _, ok := a.Spectate().Unit(2); ok {
		t.Error("unit 2 should be dead")
	}
	if got := a.Scores(); !reflect.DeepEqual(got, []int32{KillScore, 0}) {
		t.Errorf("Scores() = %v", got)
	}
	if u := a.units[0]; u.attack != nil {
		t.Error("attack order on a dead unit should be cleared")
	}
	if a.Finished() {
		t.Error("game finished while both players have units")
	}
}

func TestArenaIgnoresFriendlyFireAndRange(t *testing.T) {
	friend, far := int32(2), int32(3)
	a := fixedArena(unitAt(1, 0, 0, 0), unitAt(2, 0, 1, 0), unitAt(3, 1, 10, 10))

	a.ProcessTurn(map[int]model.Action{0: {Orders: []model.UnitOrder{
		{UnitID: 1, Attack: &friend},
		{UnitID: 2, Attack: &far},
	}}})
	for _, u := range a.Spectate().Units {
		if u.Health != UnitHealth {
			t.Errorf("unit %d health = %d, want untouched", u.ID, u.Health)
		}
	}
}

func TestArenaIgnoresNonFiniteMoves(t *testing.T) {
	tests := []struct {
		name   string
		target model.Vec2
	}{
		{"nan", model.Vec2{X: math.NaN(), Y: math.NaN()}},
		{"nan x", model.Vec2{X: math.NaN(), Y: 3}},
		{"positive infinity", model.Vec2{X: math.Inf(1), Y: 5}},
		{"negative infinity y", model.Vec2{X: 5, Y: math.Inf(-1)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			victim := int32(1)
			a := fixedArena(unitAt(1, 0, 5, 5), unitAt(2, 1, 6, 6))

			a.ProcessTurn(map[int]model.Action{
				0: {Orders: []model.UnitOrder{{UnitID: 1, MoveTo: &model.Vec2{X: 5, Y: 7}}}},
			})
			target := tc.target
			a.ProcessTurn(map[int]model.Action{
				0: {Orders: []model.UnitOrder{{UnitID: 1, MoveTo: &target}}},
				1: {Orders: []model.UnitOrder{{UnitID: 2, MoveTo: &target, Attack: &victim}}},
			})

			// The earlier target still applies and the attacker stays put.
			if got, _ := a.Spectate().Unit(1); !near(got.Position, model.Vec2{X: 5, Y: 7}) {
				t.Errorf("unit 1 position = %+v, want {5 7}", got.Position)
			}
			if got, _ := a.Spectate().Unit(2); !near(got.Position, model.Vec2{X: 6, Y: 6}) {
				t.Errorf("unit 2 position = %+v, want {6 6}", got.Position)
			}

			for i := 0; i < UnitHealth && !a.Finished(); i++ {
				a.ProcessTurn(nil)
			}
			if _, ok := a.Spectate().Unit(1); ok {
				t.Error("unit 1 should have been killed")
			}
			if !a.Finished() {
				t.Error("game should finish once one player has no units")
			}
			if got := a.Scores(); !reflect.DeepEqual(got, []int32{0, KillScore}) {
				t.Errorf("Scores() = %v, want [0 %d]", got, KillScore)
			}
		})
	}
}

func TestArenaFinished(t *testing.T) {
	a := fixedArena(unitAt(1, 0, 0, 0))
	if !a.Finished() {
		t.Error("game with one player's units left should be finished")
	}

	b := fixedArena(unitAt(1, 0, 0, 0), unitAt(2, 1, 5, 5))
	b.cfg.Ticks = 2
	b.ProcessTurn(nil)
	if b.Finished() {
		t.Error("finished too early")
	}
	b.ProcessTurn(nil)
	if !b.Finished() {
		t.Error("not finished after max ticks")
	}
}

func TestArenaWithProcessor(t *testing.T) {
	game := NewArena(ArenaConfig{Players: 2, Ticks: 30, MapSize: 10, UnitsPerPlayer: 2, Seed: 1})
	proc, err := NewProcessor(game, []Player{IdlePlayer{}, IdlePlayer{}})
	if err != nil {
		t.Fatal(err)
	}
	results, err := proc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if results.Ticks != 30 {
		t.Errorf("Ticks = %d, want 30", results.Ticks)
	}
	for i, r := range results.Players {
		if r.Crashed || r.Score != 0 {
			t.Errorf("player %d = %+v", i, r)
		}
	}
}
