// Package errors provides structured, actionable error messages for the
// websock CLI.
//
// The errors package implements an error system that:
//   - Explains what went wrong in plain language
//   - Points at the config file line that caused the problem
//   - Suggests how to fix issues
//   - Links to documentation for deeper understanding
//
// # Error Categories
//
// Errors are organized into categories:
//   - connection: dial, TLS, and close handshake failures
//   - protocol: peer violations of the WebSocket wire protocol
//   - config: websock.yaml problems
//   - cli: bad arguments and environment problems
//
// # Error Codes
//
// Each error has a unique code (e.g., "E001") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	err := errors.New("E041").
//	    WithLocation("websock.yaml", 12, 0).
//	    WithSuggestion("Durations take Go syntax, for example 30s or 1m")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E041: Invalid websock.yaml
//	//
//	//   websock.yaml:12
//	//
//	//     10 │ timeouts:
//	//     11 │   close: 5s
//	//   → 12 │   write: ten seconds
//	//     13 │ limits:
//	//     14 │   max_message_size: 33554432
//	//
//	//   Hint: Durations take Go syntax, for example 30s or 1m
//	//
//	//   Learn more: https://vango.dev/docs/websock/errors/E041
package errors
