package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/websock/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦ ╦┌─┐┌┐ ┌─┐┌─┐┌─┐┬┌─
  ║║║├┤ ├┴┐└─┐│ ││  ├┴┐
  ╚╩╝└─┘└─┘└─┘└─┘└─┘┴ ┴
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "websock",
		Short: "A WebSocket client toolkit",
		Long: `Websock is a WebSocket client engine and command-line toolkit.

Connect to WebSocket endpoints, run a local echo server for testing,
and benchmark connections. Features include:

  • Interactive client with subprotocol negotiation
  • Local echo server with Prometheus metrics
  • Connection and latency benchmarking
  • Project configuration via websock.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(
		connectCmd(),
		echoCmd(),
		benchCmd(),
		initCmd(),
		versionCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

// printBanner prints the Websock ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
