// relayctl is an operator CLI for a running relayd instance: submit a
// chat message, tail a task's event stream, and list webhook configs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var serverAddr string

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "Operator CLI for relayd",
}

func main() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", getEnvOrDefault("RELAYCTL_ADDR", "http://localhost:8080"), "relayd API base URL")
	rootCmd.AddCommand(chatCmd, tailCmd, webhooksCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
