package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "github.com/redmonkez12/identity-api/docs" // Swagger docs
)

// @title           Identity API
// @version         1.0
// @description     User identity records with bearer token authentication.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	rootCmd := &cobra.Command{
		Use:          "identity-api",
		Short:        "User identity and token service",
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the identity tables if they do not exist",
		RunE:  runMigrate,
	}

	rootCmd.AddCommand(serveCmd, migrateCmd)

	// Allow running without subcommand (default to serve)
	rootCmd.RunE = serveCmd.RunE

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
