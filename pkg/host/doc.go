// Package host is the server side of the codegame protocol.
//
// A Server accepts player connections over TCP (ServeTCP) or WebSocket
// (HandleWebSocket), checks each client's token and schema version and
// answers with a ServerHello. Accepted players are handed out in arrival
// order by Wait:
//
//	srv := host.NewServer(host.Config{Token: token, MaxPlayers: 2})
//	go srv.ServeTCP(ctx, ln)
//	players, err := srv.Wait(ctx, 2)
//
// Each RemotePlayer is then driven one request at a time:
//
//	Server                          Client
//	  │──── GetAction(view) ─────────>│
//	  │<─── DebugMessage ────────────│  zero or more
//	  │<─── RequestDebugState ───────│  v2 only
//	  │──── DebugState ─────────────>│
//	  │<─── ActionMessage ───────────│
//	  │                                │
//	  │──── DebugUpdate(view) ───────>│
//	  │<─── DebugUpdateDone ─────────│  v2 only
//	  │                                │
//	  │──── Finish ─────────────────>│
//
// Any failure, including a message that is out of place, breaks the player
// for good.
package host
