// cmd/checkemail/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Annany2002/schema-designer-backend/config"
	"github.com/Annany2002/schema-designer-backend/internal/logger"
	"github.com/Annany2002/schema-designer-backend/internal/notification"
)

var errIncompleteConfig = errors.New("email configuration is incomplete, check your .env file")

// requiredVars must all be set before a test email is attempted.
var requiredVars = []string{
	"SMTP_SERVER",
	"SMTP_PORT",
	"SMTP_USERNAME",
	"SMTP_PASSWORD",
	"FRONTEND_URL",
	"TEST_EMAIL",
}

var (
	recipient string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "checkemail",
	Short:         "Check SMTP configuration and send a test invitation email",
	Long:          `checkemail reports which notification settings are present and, when all of them are, sends a test invitation email to TEST_EMAIL (or --to).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&recipient, "to", "", "Recipient of the test email (default: $TEST_EMAIL)")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Time allowed for the SMTP exchange")
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.LoadSMTPConfig()
	logger.Configure(cfg.LogLevel, cfg.AppEnv)

	to := recipient
	if to == "" {
		to = strings.TrimSpace(os.Getenv("TEST_EMAIL"))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	mail := notification.NewService(cfg)
	return checkEmailConfig(ctx, cmd.OutOrStdout(), os.LookupEnv, to, cfg.FrontendURL, mail)
}

// invitationSender is the part of notification.Service the check needs.
type invitationSender interface {
	SendInvitation(ctx context.Context, toEmail, diagramName, inviterName, link string) bool
}

func checkEmailConfig(ctx context.Context, out io.Writer, lookup func(string) (string, bool), to, frontendURL string, sender invitationSender) error {
	fmt.Fprintln(out, "Schema Designer email configuration check")
	fmt.Fprintln(out, strings.Repeat("=", 50))

	complete := true
	for _, key := range requiredVars {
		value, ok := lookup(key)
		status := "configured"
		if key == "TEST_EMAIL" && to != "" {
			value, ok = to, true
		}
		if !ok || strings.TrimSpace(value) == "" {
			status = "MISSING"
			complete = false
		}
		fmt.Fprintf(out, "%-14s %s\n", key+":", status)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Test email delivery")
	fmt.Fprintln(out, strings.Repeat("-", 50))

	if !complete {
		fmt.Fprintln(out, "Configuration incomplete; no email sent.")
		return errIncompleteConfig
	}

	link := strings.TrimRight(frontendURL, "/") + "/test-invitation"
	if !sender.SendInvitation(ctx, to, "Configuration Test", "Development Team", link) {
		fmt.Fprintln(out, "Failed to send the test email.")
		return fmt.Errorf("test email to %s was not delivered", to)
	}

	fmt.Fprintf(out, "Test email sent to %s\n", to)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
