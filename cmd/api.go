package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
)

func (r *Runner) apiFor(cmd *cli.Command) *services.APIService {
	if path := cmd.String("auth-file"); path != "" {
		return r.api.WithAuthFile(path)
	}
	return r.api
}

// printResponse writes a proxy reply, or turns a failed one into an error carrying its detail message.
func (r *Runner) printResponse(path string, resp *services.APIResponse, pretty bool) error {
	if !resp.OK() {
		if d := resp.Detail(); d != nil {
			return fmt.Errorf("%w: %s returned %d (%v): %v", shared.ErrAPIRequest, path, resp.StatusCode, d["error"], d["message"])
		}
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIGet makes a direct GET request to the proxy
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Debug("GET request", "path", path)
	resp, err := r.apiFor(cmd).Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.printResponse(path, resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the proxy
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	r.logger.Debug("POST request", "path", path)
	resp, err := r.apiFor(cmd).Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.printResponse(path, resp, true)
}

// APIDelete makes a direct DELETE request to the proxy
func (r *Runner) APIDelete(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Debug("DELETE request", "path", path)
	resp, err := r.apiFor(cmd).Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.printResponse(path, resp, true)
}
