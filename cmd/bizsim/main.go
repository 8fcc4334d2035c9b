package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bizsim",
		Short: "Headless client for the business simulation game server",
		Long: `bizsim connects to a business simulation game server, keeps the
session alive across network failures and prints everything the server
sends. Requests are read from stdin, one per line:

  form              submit the turn form
  contract A B C    request contract info for open markets
  users             request the player list
  report <text>     send a report
  send <cmd> <text> send a raw frame by command name`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		runCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
