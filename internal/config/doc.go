// Package config loads and validates websock.yaml, the configuration file
// used by the websock CLI.
//
// The file is optional: every field has a default matching the library
// defaults, and the CLI runs without one. When present, it is discovered by
// walking up from the working directory, so commands work from anywhere
// inside a project.
//
// # File Format
//
//	url: wss://example.com/feed
//	handshake:
//	  subprotocols: [chat, superchat]
//	  headers:
//	    Authorization: Bearer s3cr3t
//	  timeout: 30s
//	limits:
//	  max_message_size: 16777216
//	  send_queue_size: 64
//	timeouts:
//	  close: 5s
//	  write: 10s
//	echo:
//	  listen: localhost:8080
//	  path: /echo
//	log:
//	  level: info
//	  format: text
package config
