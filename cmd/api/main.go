package main

import (
	"fmt"
	"os"

	"agency-contact-backend/config"
	_ "agency-contact-backend/docs" // Important for Swagger
	"agency-contact-backend/pkg/logger"

	"github.com/spf13/cobra"
)

// @title           Agency Contact API
// @version         1.0
// @description     Contact form backend for the agency marketing site.
// @host            localhost:3001
// @BasePath        /api
func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "agency-contact",
		Short:         "Contact form backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger.Init(cfg.GinMode)
			return nil
		},
	}

	serveCmd := newServeCommand(func() *config.Config { return cfg })
	root.AddCommand(serveCmd)
	root.AddCommand(newVerifyMailCommand(func() *config.Config { return cfg }))

	// bare invocation serves, so the container entrypoint needs no arguments
	root.RunE = serveCmd.RunE
	return root
}
