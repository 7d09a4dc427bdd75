package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Protocol and Transport Errors (E100-E119)
	// ============================================

	"E100": {
		Category: CategoryProtocol,
		Message:  "Truncated message",
		Detail:   "The peer stopped sending partway through a message.",
	},
	"E101": {
		Category:   CategoryProtocol,
		Message:    "Invalid encoding",
		Detail:     "A message contained malformed UTF-8, a negative length prefix, a bad boolean byte or a size above the allocation limit.",
		Suggestion: "Check that both peers were generated from the same schema.",
	},
	"E102": {
		Category:   CategoryProtocol,
		Message:    "Unknown message discriminant",
		Detail:     "A tagged message carried a discriminant that matches no variant.",
		Suggestion: "Check that both peers were generated from the same schema version.",
	},
	"E103": {
		Category: CategoryTransport,
		Message:  "Connection closed",
		Detail:   "The peer closed the connection.",
	},
	"E104": {
		Category: CategoryTransport,
		Message:  "Connection failed",
		Detail:   "Reading from or writing to the connection failed.",
	},
	"E105": {
		Category:   CategoryTransport,
		Message:    "Cannot connect to host",
		Detail:     "The host did not accept the connection.",
		Suggestion: "Start the host first, or check --host and --port.",
	},

	// ============================================
	// Handshake Errors (E120-E139)
	// ============================================

	"E120": {
		Category:   CategoryHandshake,
		Message:    "Invalid token",
		Detail:     "The host rejected the access token.",
		Suggestion: "Pass the token printed by the host with --token.",
	},
	"E121": {
		Category:   CategoryHandshake,
		Message:    "Schema version mismatch",
		Detail:     "The host and the client speak different schema versions.",
		Suggestion: "Rebuild the client against the host's schema version.",
	},
	"E122": {
		Category:   CategoryHandshake,
		Message:    "Host busy",
		Detail:     "The host has no free player slot.",
		Suggestion: "Wait for the current match to finish and retry.",
	},
	"E123": {
		Category: CategoryHandshake,
		Message:  "Debug state not supported",
		Detail:   "The negotiated schema version has no RequestDebugState message.",
	},

	// ============================================
	// Config Errors (E200-E219)
	// ============================================

	"E200": {
		Category:   CategoryConfig,
		Message:    "Invalid codegame.json",
		Detail:     "The configuration file could not be parsed as JSON.",
		Suggestion: "Check for trailing commas and unquoted keys.",
	},
	"E201": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "Ports must be between 1 and 65535.",
	},
	"E202": {
		Category:   CategoryConfig,
		Message:    "Invalid log level",
		Detail:     "The log level must be one of debug, info, warn or error.",
		Suggestion: `Set "log": {"level": "info"}`,
	},
	"E203": {
		Category: CategoryConfig,
		Message:  "Invalid timeout",
		Detail:   "Timeouts must be valid durations such as \"30s\" and may not be negative.",
	},
	"E204": {
		Category: CategoryConfig,
		Message:  "Invalid match settings",
		Detail:   "A match needs at least one player and at least one tick.",
	},
	"E205": {
		Category:   CategoryConfig,
		Message:    "Invalid replay settings",
		Detail:     "Uploading replays requires a bucket and a region.",
		Suggestion: `Set "replay": {"bucket": "...", "region": "..."}`,
	},
	"E206": {
		Category: CategoryConfig,
		Message:  "Invalid log format",
		Detail:   "The log format must be console or json.",
	},

	// ============================================
	// Match and Replay Errors (E300-E319)
	// ============================================

	"E300": {
		Category:   CategoryMatch,
		Message:    "Player did not connect",
		Detail:     "Not every player slot was filled before the accept timeout.",
		Suggestion: "Start the players sooner or raise server.acceptTimeout.",
	},
	"E301": {
		Category: CategoryMatch,
		Message:  "Match aborted",
		Detail:   "The match stopped before the final tick.",
	},
	"E310": {
		Category: CategoryReplay,
		Message:  "Corrupt replay",
		Detail:   "The replay file is not a codegame replay or is damaged.",
	},
	"E311": {
		Category: CategoryReplay,
		Message:  "Replay upload failed",
		Detail:   "The replay could not be stored in the configured bucket.",
	},

	// ============================================
	// Strategy and CLI Errors (E400-E419)
	// ============================================

	"E400": {
		Category: CategoryStrategy,
		Message:  "Strategy failed",
		Detail:   "The strategy returned an error and the client stopped.",
	},
	"E410": {
		Category: CategoryCLI,
		Message:  "Unknown strategy",
		Detail:   "The requested built-in strategy does not exist.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
