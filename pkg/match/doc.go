// Package match runs games between players.
//
// A Processor owns a Game and one Player per seat. Each tick it asks all
// live players for their actions concurrently, hands the actions to the
// game and reports the new state to the tick handler. A player that returns
// an error is crashed: it gets a comment in the results and is never asked
// again, and the game goes on without it.
//
//	game := match.NewArena(match.ArenaConfig{Players: 2, Ticks: 500, MapSize: 40, UnitsPerPlayer: 3})
//	proc, err := match.NewProcessor(game, players,
//		match.WithDebugUpdateEvery(10),
//		match.WithTickHandler(func(v model.PlayerView) { rec.Record(v) }),
//	)
//	results, err := proc.Run(ctx)
package match
