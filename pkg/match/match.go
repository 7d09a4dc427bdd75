package match

import (
	"context"

	"github.com/vango-dev/codegame/pkg/model"
)

// Player takes part in a match. host.RemotePlayer implements it for
// connected clients.
type Player interface {
	// GetAction returns the player's action for view.
	GetAction(ctx context.Context, view model.PlayerView) (model.Action, error)

	// DebugUpdate lets the player redraw its debug layer for view.
	DebugUpdate(ctx context.Context, view model.PlayerView) error

	// Finish tells the player the match is over and releases it.
	Finish() error
}

// Game is the rules of a match.
type Game interface {
	// PlayerCount returns the number of seats.
	PlayerCount() int

	// PlayerView returns what the player in seat i sees.
	PlayerView(i int) model.PlayerView

	// Spectate returns the full state as a spectator sees it.
	Spectate() model.PlayerView

	// ProcessTurn applies the actions of the players still in the game,
	// keyed by seat, and advances one tick.
	ProcessTurn(actions map[int]model.Action)

	// Finished reports whether the game is over.
	Finished() bool

	// Scores returns the score of every seat.
	Scores() []int32
}

// PlayerResult is the outcome for one seat.
type PlayerResult struct {
	Score   int32
	Crashed bool
	Comment string
}

// Results is the outcome of a match.
type Results struct {
	Players []PlayerResult
	Ticks   int
	Seed    int64
}

// IdlePlayer never orders anything.
type IdlePlayer struct{}

// GetAction returns an empty action.
func (IdlePlayer) GetAction(context.Context, model.PlayerView) (model.Action, error) {
	return model.Action{Orders: []model.UnitOrder{}}, nil
}

// DebugUpdate does nothing.
func (IdlePlayer) DebugUpdate(context.Context, model.PlayerView) error { return nil }

// Finish does nothing.
func (IdlePlayer) Finish() error { return nil }

// FailedPlayer is a seat whose player could not be set up. It crashes on
// its first turn with Err.
type FailedPlayer struct {
	Err error
}

// GetAction returns p.Err.
func (p FailedPlayer) GetAction(context.Context, model.PlayerView) (model.Action, error) {
	return model.Action{}, p.Err
}

// DebugUpdate returns p.Err.
func (p FailedPlayer) DebugUpdate(context.Context, model.PlayerView) error { return p.Err }

// Finish does nothing.
func (FailedPlayer) Finish() error { return nil }
