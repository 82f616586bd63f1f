package main

import (
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hydro-tools/flow-atlas/pkg/server"
	"github.com/hydro-tools/flow-atlas/pkg/services/oursin"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for Flow Atlas",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to an uncertainty configuration profile")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg := oursin.DefaultConfig()
	if cfgPath != "" {
		loaded, err := oursin.LoadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load uncertainty profile: %w", err)
		}
		cfg = *loaded
		logger.Info().Msgf("Configuration found at `%s` successfully loaded.", cfgPath)
	}

	mux := server.ConfigureRouter(server.Config{
		Dependencies: server.Dependencies{
			Uncertainty: cfg,
			Logger:      logger,
		},
	})

	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")

	if host == "" || port == "" {
		logger.Error().Msgf("Missing server configuration from .env file")
		os.Exit(1)
	}

	addr := net.JoinHostPort(host, port)
	logger.Info().Msgf("starting server on %s", addr)

	return http.ListenAndServe(addr, mux)
}
