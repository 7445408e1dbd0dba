package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"vtm/internal/interfaces/cli/migrate"
	"vtm/internal/interfaces/cli/server"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "vtm",
		Short: "VTM entitlement and identity service",
		Long:  `VTM issues customer identities, evaluates plan entitlements, and reconciles payment captures for the transcription service.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
