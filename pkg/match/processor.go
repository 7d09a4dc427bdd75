package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vango-dev/codegame/pkg/metrics"
	"github.com/vango-dev/codegame/pkg/model"
)

// ErrPlayerCount is returned when the players do not fill the game's seats.
var ErrPlayerCount = errors.New("match: player count does not match game")

// TickHandler observes the spectator view once before the first tick and
// after every processed tick.
type TickHandler func(view model.PlayerView)

// Processor runs a match: every tick it asks each live player for an
// action, drops players that fail and feeds the actions to the game.
type Processor struct {
	game     Game
	players  []Player
	comments []string

	debugEvery  int
	turnTimeout time.Duration
	seed        int64
	onTick      TickHandler

	logger  *zap.Logger
	metrics *metrics.Collector

	ticks int
}

// Option configures a Processor.
type Option func(*Processor)

// WithDebugUpdateEvery sends DebugUpdate to every live player before each
// n-th tick. Zero disables debug updates.
func WithDebugUpdateEvery(n int) Option {
	return func(p *Processor) {
		p.debugEvery = n
	}
}

// WithTurnTimeout bounds each GetAction and DebugUpdate call. A player
// that runs out of time crashes. Zero means no timeout.
func WithTurnTimeout(d time.Duration) Option {
	return func(p *Processor) {
		p.turnTimeout = d
	}
}

// WithSeed records the seed the game was created with in the results.
func WithSeed(seed int64) Option {
	return func(p *Processor) {
		p.seed = seed
	}
}

// WithTickHandler sets the tick handler.
func WithTickHandler(h TickHandler) Option {
	return func(p *Processor) {
		p.onTick = h
	}
}

// WithLogger sets the logger. Default: zap.NewNop()
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// NewProcessor creates a processor for game with one player per seat.
func NewProcessor(game Game, players []Player, opts ...Option) (*Processor, error) {
	if len(players) != game.PlayerCount() {
		return nil, fmt.Errorf("%w: %d players for %d seats", ErrPlayerCount, len(players), game.PlayerCount())
	}

	p := &Processor{
		game:     game,
		players:  append([]Player(nil), players...),
		comments: make([]string, len(players)),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run processes ticks until the game finishes, then sends Finish to every
// player that is still connected. If ctx ends first, Run returns the
// results so far together with ctx.Err().
func (p *Processor) Run(ctx context.Context) (Results, error) {
	defer p.finish()

	if p.onTick != nil {
		p.onTick(p.game.Spectate())
	}

	for !p.game.Finished() {
		if err := p.ProcessTick(ctx); err != nil {
			return p.Results(), err
		}
	}

	p.logger.Info("match finished", zap.Int("ticks", p.ticks))
	return p.Results(), nil
}

// ProcessTick runs one tick. If ctx ends before every player answered,
// the tick is abandoned: no player is crashed, the game does not advance
// and ctx.Err() is returned.
func (p *Processor) ProcessTick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if p.debugEvery > 0 && p.ticks%p.debugEvery == 0 {
		err := p.forEachLive(ctx, func(i int, pl Player) error {
			ctx, cancel := p.turnContext(ctx)
			defer cancel()
			return pl.DebugUpdate(ctx, p.game.PlayerView(i))
		})
		if err != nil {
			return err
		}
	}

	var mu sync.Mutex
	actions := make(map[int]model.Action, len(p.players))
	err := p.forEachLive(ctx, func(i int, pl Player) error {
		ctx, cancel := p.turnContext(ctx)
		defer cancel()

		action, err := pl.GetAction(ctx, p.game.PlayerView(i))
		if err != nil {
			return err
		}
		mu.Lock()
		actions[i] = action
		mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	p.game.ProcessTurn(actions)
	p.ticks++

	if p.onTick != nil {
		p.onTick(p.game.Spectate())
	}
	return nil
}

// forEachLive calls fn for every live player concurrently and crashes
// the players it fails for. When ctx ended meanwhile, failures are blamed
// on the cancellation instead and ctx.Err() is returned.
func (p *Processor) forEachLive(ctx context.Context, fn func(i int, pl Player) error) error {
	errs := make([]error, len(p.players))

	var wg sync.WaitGroup
	for i, pl := range p.players {
		if pl == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = fn(i, pl)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	for i, err := range errs {
		if err != nil {
			p.crash(i, err)
		}
	}
	return nil
}

func (p *Processor) turnContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.turnTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.turnTimeout)
}

// crash drops the player in seat i. It is never asked again.
func (p *Processor) crash(i int, err error) {
	if p.players[i] == nil {
		return
	}
	p.logger.Warn("player crashed", zap.Int("seat", i), zap.Int("tick", p.ticks), zap.Error(err))
	p.comments[i] = "Player crashed: " + err.Error()
	p.metrics.PlayerCrashed()

	if ferr := p.players[i].Finish(); ferr != nil {
		p.logger.Debug("finish crashed player", zap.Int("seat", i), zap.Error(ferr))
	}
	p.players[i] = nil
}

// Crash marks the player in seat i as crashed with comment before the
// match starts, e.g. when it never connected.
func (p *Processor) Crash(i int, comment string) {
	p.crash(i, errors.New(comment))
	p.comments[i] = comment
}

func (p *Processor) finish() {
	for i, pl := range p.players {
		if pl == nil {
			continue
		}
		if err := pl.Finish(); err != nil {
			p.logger.Debug("finish player", zap.Int("seat", i), zap.Error(err))
		}
	}
}

// Ticks returns the number of processed ticks.
func (p *Processor) Ticks() int {
	return p.ticks
}

// Results returns the current results.
func (p *Processor) Results() Results {
	scores := p.game.Scores()
	players := make([]PlayerResult, len(p.players))
	for i := range players {
		players[i] = PlayerResult{
			Crashed: p.players[i] == nil,
			Comment: p.comments[i],
		}
		if i < len(scores) {
			players[i].Score = scores[i]
		}
	}
	return Results{Players: players, Ticks: p.ticks, Seed: p.seed}
}
