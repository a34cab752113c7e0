package main

import (
	"os"

	"github.com/spf13/cobra"

	"gamelift-connect/cmd/connect"
	"gamelift-connect/cmd/version"
)

var (
	verbose    bool
	configPath string
)

func newRootCommand() *cobra.Command {
	rootCmd := connect.NewConnectCommand(&verbose, &configPath)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	rootCmd.Version = version.GetVersion()
	rootCmd.SetVersionTemplate(version.Template())

	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
