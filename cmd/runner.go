package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/services"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/desertthunder/ytmp/internal/tasks"
	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	client     services.Client
	engine     *tasks.Engine
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	logCloser  io.Closer
	output     io.Writer
	version    string
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Dependencies left nil are built from the loaded configuration in [Runner.Before].
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     services.Client
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Version    string
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		client:     opts.Client,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		version:    opts.Version,
	}
	if r.client != nil {
		r.engine = tasks.NewEngine(r.client, r.logger)
	}
	return r
}

// Before resolves the configuration named by --config and builds the logger, upstream client and proxy client.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")
	cfg, err := shared.ResolveConfig(r.configPath)
	if err != nil {
		return ctx, err
	}
	r.config = cfg

	logger, closer, err := shared.NewConfiguredLogger(os.Stderr, cfg.Logging)
	if err != nil {
		return ctx, err
	}
	r.logger, r.logCloser = logger, closer

	if r.client == nil {
		r.client = r.newClient(ctx)
		r.engine = tasks.NewEngine(r.client, r.logger)
	}
	if r.api == nil {
		r.api = services.NewAPIService(cmd.String("proxy"), r.httpClient)
	}
	return ctx, nil
}

// After closes the log file opened by [Runner.Before].
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.logCloser == nil {
		return nil
	}
	return r.logCloser.Close()
}

// newClient builds the upstream client, authenticated when the configured auth file loads.
func (r *Runner) newClient(ctx context.Context) *services.YouTubeMusic {
	opts := services.OptionsFromConfig(r.config, shared.WithLogger(r.logger, "component", "ytmusic"))
	if path := r.config.YouTube.AuthFile; path != "" {
		creds, err := services.LoadCredentials(ctx, path, services.OAuthConfig(r.config.OAuth))
		switch {
		case errors.Is(err, shared.ErrMissingCredentials):
			r.logger.Warn("auth file not found, continuing unauthenticated", "path", path)
		case err != nil:
			r.logger.Warn("failed to load auth file, continuing unauthenticated", "path", path, "error", err)
		default:
			r.logger.Debug("loaded credentials", "kind", creds.Kind(), "path", path)
			opts.Credentials = creds
		}
	}
	return services.NewYouTubeMusic(opts)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, authCommand, healthCommand, errorsCommand, apiCommand, exportCommand, monitorCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
