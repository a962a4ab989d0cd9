package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Connection Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategoryConnection,
		Message:  "Connection failed",
		Detail:   "Unable to reach the server. The host may be down, the port closed, or the address wrong.",
		DocURL:   "https://vango.dev/docs/websock/errors/E001",
	},
	"E002": {
		Category: CategoryConnection,
		Message:  "Handshake rejected",
		Detail:   "The server answered the upgrade request with something other than 101 Switching Protocols.",
		DocURL:   "https://vango.dev/docs/websock/errors/E002",
	},
	"E003": {
		Category: CategoryConnection,
		Message:  "TLS handshake failed",
		Detail:   "The wss connection could not establish TLS. The certificate may be invalid or the server may not speak TLS on this port.",
		DocURL:   "https://vango.dev/docs/websock/errors/E003",
	},
	"E004": {
		Category: CategoryConnection,
		Message:  "Connection lost",
		Detail:   "The server went away without completing the close handshake.",
		DocURL:   "https://vango.dev/docs/websock/errors/E004",
	},
	"E005": {
		Category: CategoryConnection,
		Message:  "Send queue full",
		Detail:   "Outbound messages are piling up faster than the server accepts them.",
		DocURL:   "https://vango.dev/docs/websock/errors/E005",
	},
	"E006": {
		Category: CategoryConnection,
		Message:  "Close handshake timed out",
		Detail:   "The server never acknowledged our close frame.",
		DocURL:   "https://vango.dev/docs/websock/errors/E006",
	},

	// ============================================
	// Protocol Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryProtocol,
		Message:  "Protocol violation",
		Detail:   "The server broke the WebSocket framing rules and the connection was failed.",
		DocURL:   "https://vango.dev/docs/websock/errors/E020",
	},
	"E021": {
		Category: CategoryProtocol,
		Message:  "Invalid close code",
		Detail:   "The close code is reserved or outside the range allowed on the wire.",
		DocURL:   "https://vango.dev/docs/websock/errors/E021",
	},
	"E022": {
		Category: CategoryProtocol,
		Message:  "Message too large",
		Detail:   "An incoming message exceeded the configured maximum size.",
		DocURL:   "https://vango.dev/docs/websock/errors/E022",
	},
	"E023": {
		Category: CategoryProtocol,
		Message:  "Invalid text payload",
		Detail:   "A text message did not contain valid UTF-8.",
		DocURL:   "https://vango.dev/docs/websock/errors/E023",
	},

	// ============================================
	// Configuration Errors (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryConfig,
		Message:  "No websock.yaml found",
		Detail:   "The configuration file does not exist in this directory or any parent.",
		DocURL:   "https://vango.dev/docs/websock/errors/E040",
	},
	"E041": {
		Category: CategoryConfig,
		Message:  "Invalid websock.yaml",
		Detail:   "The configuration file is malformed.",
		DocURL:   "https://vango.dev/docs/websock/errors/E041",
	},
	"E042": {
		Category: CategoryConfig,
		Message:  "Invalid size limit",
		Detail:   "A size limit must be a positive number of bytes.",
		DocURL:   "https://vango.dev/docs/websock/errors/E042",
	},
	"E043": {
		Category: CategoryConfig,
		Message:  "Invalid timeout",
		Detail:   "A timeout must be a positive duration.",
		DocURL:   "https://vango.dev/docs/websock/errors/E043",
	},
	"E044": {
		Category: CategoryConfig,
		Message:  "Invalid listen address",
		Detail:   "The echo server listen address is not a valid host:port.",
		DocURL:   "https://vango.dev/docs/websock/errors/E044",
	},
	"E045": {
		Category: CategoryConfig,
		Message:  "Invalid log level",
		Detail:   "The log level must be one of debug, info, warn, or error.",
		DocURL:   "https://vango.dev/docs/websock/errors/E045",
	},

	// ============================================
	// CLI Errors (E060-E079)
	// ============================================

	"E060": {
		Category: CategoryCLI,
		Message:  "Invalid WebSocket URL",
		Detail:   "The URL could not be parsed.",
		DocURL:   "https://vango.dev/docs/websock/errors/E060",
	},
	"E061": {
		Category: CategoryCLI,
		Message:  "Unsupported URL scheme",
		Detail:   "Only ws, wss, http, and https URLs can be dialed.",
		DocURL:   "https://vango.dev/docs/websock/errors/E061",
	},
	"E062": {
		Category: CategoryCLI,
		Message:  "Missing argument",
		Detail:   "The command needs an argument that was not provided.",
		DocURL:   "https://vango.dev/docs/websock/errors/E062",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
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
