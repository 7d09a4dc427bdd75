package match

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/vango-dev/codegame/pkg/model"
)

// Arena rules.
const (
	UnitHealth   = 10
	UnitSpeed    = 1.0
	AttackRange  = 2.0
	AttackDamage = 2
	KillScore    = 1
)

// ArenaConfig configures an Arena.
type ArenaConfig struct {
	Players        int
	Ticks          int
	MapSize        int
	UnitsPerPlayer int
	Seed           int64
	Names          []string
}

type arenaUnit struct {
	model.Unit
	moveTo *model.Vec2
	attack *int32
}

// Arena is a small reference game. Every player starts with units at random
// positions; units walk toward their move target and hit the unit they
// attack when it is in range. Each kill scores a point. The game ends after
// the configured number of ticks or when at most one player has units left.
type Arena struct {
	cfg     ArenaConfig
	tick    int32
	players []model.Player
	units   []*arenaUnit
	now     func() time.Time
}

// NewArena creates an arena and places the units.
func NewArena(cfg ArenaConfig) *Arena {
	a := &Arena{
		cfg: cfg,
		now: time.Now,
	}

	for i := 0; i < cfg.Players; i++ {
		name := fmt.Sprintf("Player %d", i+1)
		if i < len(cfg.Names) && cfg.Names[i] != "" {
			name = cfg.Names[i]
		}
		a.players = append(a.players, model.Player{ID: int32(i), Name: name})
	}

	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)>>1|1))
	size := float64(cfg.MapSize)
	var id int32
	for p := 0; p < cfg.Players; p++ {
		for k := 0; k < cfg.UnitsPerPlayer; k++ {
			id++
			a.units = append(a.units, &arenaUnit{Unit: model.Unit{
				ID:       id,
				PlayerID: int32(p),
				Position: model.Vec2{X: rng.Float64() * size, Y: rng.Float64() * size},
				Health:   UnitHealth,
			}})
		}
	}
	return a
}

// PlayerCount implements Game.
func (a *Arena) PlayerCount() int {
	return len(a.players)
}

// PlayerView implements Game. Players see the whole map.
func (a *Arena) PlayerView(i int) model.PlayerView {
	return a.view(int32(i))
}

// Spectate implements Game.
func (a *Arena) Spectate() model.PlayerView {
	return a.view(model.SpectatorID)
}

func (a *Arena) view(me int32) model.PlayerView {
	units := make([]model.Unit, 0, len(a.units))
	for _, u := range a.units {
		units = append(units, u.Unit)
	}
	return model.PlayerView{
		MyID:             me,
		Tick:             a.tick,
		MaxTicks:         int32(a.cfg.Ticks),
		MapSize:          int32(a.cfg.MapSize),
		ServerTimeMillis: a.now().UnixMilli(),
		Players:          append([]model.Player{}, a.players...),
		Units:            units,
	}
}

// ProcessTurn implements Game. Orders for units the player does not own
// are ignored, as are move targets with a NaN or infinite coordinate.
func (a *Arena) ProcessTurn(actions map[int]model.Action) {
	byID := make(map[int32]*arenaUnit, len(a.units))
	for _, u := range a.units {
		byID[u.ID] = u
	}

	for seat, action := range actions {
		for _, order := range action.Orders {
			u, ok := byID[order.UnitID]
			if !ok || u.PlayerID != int32(seat) {
				continue
			}
			if order.MoveTo != nil && finite(*order.MoveTo) {
				target := a.clamp(*order.MoveTo)
				u.moveTo = &target
			}
			if order.Attack != nil {
				target := *order.Attack
				u.attack = &target
			}
		}
	}

	for _, u := range a.units {
		if u.moveTo == nil {
			continue
		}
		delta := u.moveTo.Sub(u.Position)
		if dist := delta.Len(); dist <= UnitSpeed {
			u.Position = *u.moveTo
			u.moveTo = nil
		} else {
			u.Position = u.Position.Add(delta.Scale(UnitSpeed / dist))
		}
	}

	// Damage is dealt simultaneously; a unit killed this tick still hits.
	damage := make(map[int32]int32)
	killer := make(map[int32]int32)
	for _, u := range a.units {
		if u.attack == nil {
			continue
		}
		target, ok := byID[*u.attack]
		if !ok || target.PlayerID == u.PlayerID {
			u.attack = nil
			continue
		}
		if u.Position.Dist(target.Position) <= AttackRange {
			damage[target.ID] += AttackDamage
			killer[target.ID] = u.PlayerID
		}
	}

	var alive []*arenaUnit
	for _, u := range a.units {
		u.Health -= damage[u.ID]
		if u.Health > 0 {
			alive = append(alive, u)
			continue
		}
		a.players[killer[u.ID]].Score += KillScore
		delete(byID, u.ID)
	}
	a.units = alive

	for _, u := range a.units {
		if u.attack != nil {
			if _, ok := byID[*u.attack]; !ok {
				u.attack = nil
			}
		}
	}

	a.tick++
}

func finite(v model.Vec2) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

func (a *Arena) clamp(v model.Vec2) model.Vec2 {
	size := float64(a.cfg.MapSize)
	return model.Vec2{X: min(max(v.X, 0), size), Y: min(max(v.Y, 0), size)}
}

// Finished implements Game.
func (a *Arena) Finished() bool {
	if int(a.tick) >= a.cfg.Ticks {
		return true
	}
	if len(a.players) < 2 {
		return false
	}
	owners := make(map[int32]bool)
	for _, u := range a.units {
		owners[u.PlayerID] = true
	}
	return len(owners) <= 1
}

// Scores implements Game.
func (a *Arena) Scores() []int32 {
	scores := make([]int32, len(a.players))
	for i, p := range a.players {
		scores[i] = p.Score
	}
	return scores
}
