// Command budget-oauth obtains a Google OAuth token for the spreadsheet
// mirror and saves it to GOOGLE_OAUTH_TOKEN_FILE (token.json by default).
package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/sheets/google"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger("info", log.ComponentSheets)

	cfg, err := config.Load()
	if err != nil {
		cli.Exit(logger, "Failed to load configuration", err, log.FieldErrorType, log.ErrorTypeConfiguration)
	}
	creds := backend.SheetsCredentials(cfg)
	oauthCfg, err := creds.OAuth.Config()
	if err != nil {
		cli.Exit(logger, "Invalid OAuth client", err, log.FieldErrorType, log.ErrorTypeConfiguration)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	tok, err := google.Authorize(ctx, oauthCfg, cfg.OAuthRedirectPort, os.Stdout)
	if err != nil {
		cli.Exit(logger, "Authorization failed", err)
	}

	out := cfg.GoogleOAuthTokenFile
	if out == "" {
		out = "token.json"
	}
	if err := google.SaveToken(out, tok); err != nil {
		cli.Exit(logger, "Failed to save token", err, "path", out)
	}
	logger.Info("Saved OAuth token", "path", out)
}
