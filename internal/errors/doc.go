// Package errors provides coded, actionable error messages for the codegame
// CLI.
//
// Library packages return plain Go errors (sentinels and typed errors).
// The CLI passes them through Classify, which maps each onto a registered
// code with an explanation and, where one exists, a suggested fix.
//
// # Error Categories
//
//   - protocol: malformed or truncated messages
//   - transport: connection failures and closes
//   - handshake: rejected tokens, version mismatches, busy hosts
//   - config: invalid codegame.json values
//   - match, replay: hosting and replay failures
//   - strategy, cli: user code and command-line errors
//
// # Usage
//
//	err := errors.New("E201").
//	    WithLocation("codegame.json", 4, 13).
//	    WithSuggestion("Use a port between 1 and 65535")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E201: Invalid port
//	//
//	//   codegame.json:4:13
//	//
//	//       2 │   "server": {
//	//       3 │     "host": "0.0.0.0",
//	//   →   4 │     "port": 70000
//	//         │             ^
//	//       5 │   }
//	//
//	//   Ports must be between 1 and 65535.
//	//
//	//   Hint: Use a port between 1 and 65535
package errors
