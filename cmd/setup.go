package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/urfave/cli/v3"
)

// authPath picks where a credentials file is written: the flag, then youtube.auth_file, then ~/.ytmp/name.
func (r *Runner) authPath(flag, name string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if r.config.YouTube.AuthFile != "" {
		return r.config.YouTube.AuthFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ytmp", name), nil
}

// SetupConfig writes the built-in config template to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Config written to %s\n", path)
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Database
	if cfg.Path == "" {
		return fmt.Errorf("%w: set database.path to enable error and probe history", shared.ErrStoreDisabled)
	}

	r.logger.Info("initializing database", "path", cfg.Path)
	db, err := shared.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.logger.Info("rolled back latest migration")
	}

	states, err := shared.MigrationStatus(db)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	r.writePlainHeader("Migrations: " + cfg.Path)
	for _, s := range states {
		mark := "✗"
		if s.Applied {
			mark = "✓"
		}
		r.writePlain("%s %03d %s\n", mark, s.Version, s.Name)
	}
	return nil
}

// SetupYouTube writes browser.json from a request copied out of the browser while signed in.
func (r *Runner) SetupYouTube(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var curlHeaders *shared.CurlHeaders
	var err error

	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	headers, err := curlHeaders.BrowserHeaders()
	if err != nil {
		return err
	}

	outputPath, err := r.authPath(cmd.String("output"), "browser.json")
	if err != nil {
		return err
	}
	if err := services.WriteBrowserFile(outputPath, headers); err != nil {
		return err
	}
	r.logger.Info("browser.json saved", "path", outputPath, "headers", len(headers))

	r.writePlain("✓ YouTube Music browser authentication configured\n")
	r.writePlain("Auth file saved to: %s\n", outputPath)
	if r.config.YouTube.AuthFile != outputPath {
		r.writePlain("Set youtube.auth_file (or %sAUTH_FILE) to this path to use it.\n", shared.EnvPrefix)
	}
	return nil
}

// SetupOAuth runs the Google device flow and writes oauth.json.
func (r *Runner) SetupOAuth(ctx context.Context, cmd *cli.Command) error {
	if r.config.OAuth.ClientID == "" {
		return fmt.Errorf("%w: oauth.client_id (or %sOAUTH_CLIENT_ID) is required", shared.ErrMissingConfig, shared.EnvPrefix)
	}
	conf := services.OAuthConfig(r.config.OAuth)

	da, err := conf.DeviceAuth(ctx)
	if err != nil {
		return fmt.Errorf("%w: device authorization failed: %w", shared.ErrAuthFailed, err)
	}

	r.writePlainHeader("YouTube Music OAuth")
	r.writePlain("Open %s and enter the code %s\n", da.VerificationURI, da.UserCode)

	if !cmd.Bool("no-browser") {
		target := da.VerificationURIComplete
		if target == "" {
			target = da.VerificationURI
		}
		if err := shared.OpenBrowser(target); err != nil {
			r.logger.Warn("could not open browser, visit the URL manually", "error", err)
		}
	}

	r.logger.Info("waiting for authorization", "expires", da.Expiry)
	tok, err := conf.DeviceAccessToken(ctx, da)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	outputPath, err := r.authPath(cmd.String("output"), "oauth.json")
	if err != nil {
		return err
	}
	if err := services.WriteTokenFile(outputPath, tok); err != nil {
		return err
	}
	r.logger.Info("oauth.json saved", "path", outputPath, "expiry", tok.Expiry)

	return r.writePlain("✓ OAuth token saved to %s\n", outputPath)
}
