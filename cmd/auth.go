package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthStatus loads a credentials file the same way the proxy does and reports what it found.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		path = r.config.YouTube.AuthFile
	}
	if path == "" {
		return fmt.Errorf("%w: pass a path or set youtube.auth_file", shared.ErrMissingArgument)
	}

	creds, err := services.LoadCredentials(ctx, path, services.OAuthConfig(r.config.OAuth))
	if err != nil {
		return err
	}

	r.logger.Debug("credentials loaded", "path", path, "kind", creds.Kind())
	r.writePlain("✓ %s holds %s credentials\n", path, creds.Kind())
	if creds.Kind() == "oauth" && r.config.OAuth.ClientID == "" {
		r.writePlain("Note: without oauth.client_id the token cannot be refreshed once it expires.\n")
	}
	return nil
}

// AuthCheck asks a running proxy for the signed-in account.
func (r *Runner) AuthCheck(ctx context.Context, cmd *cli.Command) error {
	api := r.api
	if path := cmd.String("auth-file"); path != "" {
		api = api.WithAuthFile(path)
	}

	resp, err := api.Get(ctx, "/library/account_info")
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	if !resp.OK() {
		if d := resp.Detail(); d != nil {
			return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, d["message"])
		}
		return fmt.Errorf("%w: status %d", shared.ErrNotAuthenticated, resp.StatusCode)
	}

	var account struct {
		Result services.Account `json:"result"`
	}
	if err := resp.Decode(&account); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	r.writePlain("✓ Authenticated as %s\n", account.Result.Name)
	if account.Result.ChannelHandle != "" {
		r.writePlain("Handle: %s\n", account.Result.ChannelHandle)
	}
	return nil
}
