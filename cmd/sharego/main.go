// sharego is a terminal demo of the ShareGo pairing protocol: two
// instances on the same LAN exchange one short encrypted message,
// bootstrapped by a session code.
//
// Usage:
//
//	sharego receive [--port 4040] [--name "My Laptop"]
//	sharego send <session-code> [--addr ip:port] [--name "My Phone"]
//
// If --addr is omitted, send discovers the receiver via mDNS, falling
// back to a /24 subnet WebSocket probe.
package main

import (
	"fmt"
	"os"

	"github.com/pion/logging"
	"github.com/spf13/cobra"
)

var (
	deviceName   string
	loggerFactory logging.LoggerFactory = logging.NewDefaultLoggerFactory()
)

var rootCmd = &cobra.Command{
	Use:   "sharego",
	Short: "Exchange a short encrypted secret with a nearby device",
	Long: `sharego pairs two devices on the same LAN over an end-to-end
encrypted channel bootstrapped by a session code, and exchanges one
short message between them.`,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&deviceName, "name", defaultDeviceName(), "this device's display name")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func defaultDeviceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "ShareGo Device"
	}
	return host
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
