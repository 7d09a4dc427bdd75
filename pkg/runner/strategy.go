package runner

import "github.com/vango-dev/codegame/pkg/model"

// Strategy decides a player's action for each tick.
//
// GetAction may use debug any number of times before returning; each debug
// call reaches the host before the action does. An error ends the game for
// this client and is returned from Run as is.
type Strategy interface {
	GetAction(view model.PlayerView, debug *Debug) (model.Action, error)
}

// DebugUpdater is implemented by strategies that redraw their debug layer
// when the host asks, between turns.
type DebugUpdater interface {
	DebugUpdate(view model.PlayerView, debug *Debug) error
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(view model.PlayerView, debug *Debug) (model.Action, error)

// GetAction calls f(view, debug).
func (f StrategyFunc) GetAction(view model.PlayerView, debug *Debug) (model.Action, error) {
	return f(view, debug)
}
