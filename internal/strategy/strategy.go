// Package strategy holds the strategies built into `codegame play`.
package strategy

import (
	"fmt"
	"math"
	"sort"

	"github.com/vango-dev/codegame/internal/errors"
	"github.com/vango-dev/codegame/pkg/model"
	"github.com/vango-dev/codegame/pkg/runner"
)

var builtin = map[string]func() runner.Strategy{
	"idle":  func() runner.Strategy { return Idle{} },
	"chase": func() runner.Strategy { return &Chase{} },
}

// Names returns the names of the built-in strategies.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a new instance of the named strategy.
func Lookup(name string) (runner.Strategy, error) {
	f, ok := builtin[name]
	if !ok {
		return nil, errors.New("E410").
			WithDetail(fmt.Sprintf("No built-in strategy named %q. Available: %v", name, Names()))
	}
	return f(), nil
}

// Idle never orders anything.
type Idle struct{}

// GetAction returns an empty action.
func (Idle) GetAction(model.PlayerView, *runner.Debug) (model.Action, error) {
	return model.Action{Orders: []model.UnitOrder{}}, nil
}

var (
	chaseColor  = model.Color{R: 1, G: 0.3, B: 0.2, A: 0.8}
	targetColor = model.Color{R: 1, G: 1, B: 1, A: 0.5}
)

// Chase sends every unit after the nearest enemy unit and attacks it.
type Chase struct {
	targets map[int32]int32
}

// GetAction orders each of my units to move to and attack its nearest
// enemy.
func (c *Chase) GetAction(view model.PlayerView, debug *runner.Debug) (model.Action, error) {
	c.targets = make(map[int32]int32)
	orders := []model.UnitOrder{}

	for _, u := range view.MyUnits() {
		enemy, ok := nearestEnemy(view, u)
		if !ok {
			continue
		}
		pos := enemy.Position
		id := enemy.ID
		orders = append(orders, model.UnitOrder{UnitID: u.ID, MoveTo: &pos, Attack: &id})
		c.targets[u.ID] = enemy.ID
	}

	if err := debug.Log(fmt.Sprintf("tick %d: %d orders", view.Tick, len(orders))); err != nil {
		return model.Action{}, err
	}
	return model.Action{Orders: orders}, nil
}

// DebugUpdate redraws a line from each unit to its target.
func (c *Chase) DebugUpdate(view model.PlayerView, debug *runner.Debug) error {
	if err := debug.Clear(); err != nil {
		return err
	}
	for unitID, targetID := range c.targets {
		u, ok := view.Unit(unitID)
		if !ok {
			continue
		}
		target, ok := view.Unit(targetID)
		if !ok {
			continue
		}
		if err := debug.Add(model.DebugSegment{From: u.Position, To: target.Position, Width: 0.1, Color: chaseColor}); err != nil {
			return err
		}
		if err := debug.Add(model.DebugCircle{Center: target.Position, Radius: 0.5, Color: targetColor}); err != nil {
			return err
		}
	}
	return nil
}

func nearestEnemy(view model.PlayerView, u model.Unit) (model.Unit, bool) {
	best := math.Inf(1)
	var found model.Unit
	ok := false
	for _, other := range view.Units {
		if other.PlayerID == u.PlayerID {
			continue
		}
		if d := u.Position.Dist(other.Position); d < best {
			best, found, ok = d, other, true
		}
	}
	return found, ok
}
