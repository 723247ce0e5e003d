package main

import (
	"context"
	"fmt"
	"time"

	"agency-contact-backend/config"
	"agency-contact-backend/pkg/email"
	"agency-contact-backend/pkg/logger"

	"github.com/spf13/cobra"
)

func newVerifyMailCommand(loadConfig func() *config.Config) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "verify-mail",
		Short: "Connect and authenticate against the configured mail transport",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()
			transport, err := email.NewTransport(cfg, logger.Log)
			if err != nil {
				return fmt.Errorf("mail transport: %w", err)
			}
			defer transport.Close()

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := transport.Verify(ctx); err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "mail transport %q OK\n", transportName(cfg))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "give up after this long")
	return cmd
}

func transportName(cfg *config.Config) string {
	if cfg.MailTransport == "" {
		return "smtp"
	}
	return cfg.MailTransport
}
