// Package config loads and validates codegame.json.
//
// Every command reads the same file; sections it does not use are ignored.
// Values missing from the file keep the defaults from New, and command-line
// flags override both.
//
//	{
//	  "client": {"host": "127.0.0.1", "port": 31001, "strategy": "chase"},
//	  "server": {"port": 31001, "httpPort": 31080, "players": 2},
//	  "match":  {"ticks": 500, "debugUpdateEvery": 10},
//	  "log":    {"level": "debug", "file": "codegame.log"},
//	  "replay": {"path": "last.replay", "upload": true, "bucket": "games", "region": "eu-west-1"}
//	}
package config
