// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

// serveCommand runs the proxy under a supervisor
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the YouTube Music API proxy",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "no-probe",
				Usage: "Disable the background upstream probe",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for database and authentication.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml from the built-in template",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
					&cli.BoolFlag{
						Name:  "status",
						Usage: "Show applied migrations without changing anything",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt", "browser"},
				Usage:   "Configure browser authentication from a request copied out of DevTools",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for browser.json (default: youtube.auth_file or ~/.ytmp/browser.json)",
					},
				},
				Action: r.SetupYouTube,
			},
			{
				Name:  "oauth",
				Usage: "Authorize with the Google device flow and write oauth.json",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path for oauth.json (default: youtube.auth_file or ~/.ytmp/oauth.json)",
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the verification URL without opening a browser",
					},
				},
				Action: r.SetupOAuth,
			},
		},
	}
}

// authCommand inspects credential files
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Inspect YouTube Music credentials",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Load a credentials file and report its kind",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Action: r.AuthStatus,
			},
			{
				Name:  "check",
				Usage: "Ask a running proxy for the signed-in account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "auth-file",
						Usage: "Credentials file sent as X-Auth-File",
					},
				},
				Action: r.AuthCheck,
			},
		},
	}
}

// healthCommand probes the upstream
func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Probe YouTube Music with a minimal search",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "Ask the running proxy instead of probing directly",
			},
			&cli.BoolFlag{
				Name:  "status",
				Usage: "With --remote, fetch the full status report",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Health,
	}
}

// errorsCommand reads the recorded failure history
func errorsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "errors",
		Usage: "List recorded classified failures",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Only show one error kind (e.g. not_found, rate_limited)",
			},
			&cli.StringFlag{
				Name:  "operation",
				Usage: "Only show one operation (e.g. search, get_artist)",
			},
			&cli.DurationFlag{
				Name:  "since",
				Usage: "How far back to look",
				Value: 24 * time.Hour,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries",
				Value: 50,
			},
			&cli.BoolFlag{
				Name:  "summary",
				Usage: "Print counts per kind instead of entries",
			},
			&cli.BoolFlag{
				Name:  "prune",
				Usage: "Delete entries older than --since",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Errors,
	}
}

// apiCommand handles direct (proxy) API calls
func apiCommand(r *Runner) *cli.Command {
	authFlag := &cli.StringFlag{
		Name:  "auth-file",
		Usage: "Credentials file sent as X-Auth-File",
	}
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to a running proxy",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
					authFlag,
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
					authFlag,
				},
				Action: r.APIPost,
			},
			{
				Name:  "delete",
				Usage: "Direct DELETE",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags:  []cli.Flag{authFlag},
				Action: r.APIDelete,
			},
		},
	}
}

// exportCommand writes playlists to disk
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export playlists to files concurrently",
		ArgsUsage: "<playlist-id>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (json, csv, markdown, txt)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: ytmp_export_<epoch>)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent writers (max 10)",
				Value: 5,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Tracks per playlist, 0 for all",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Playlist fetches per second",
				Value: 5,
			},
			&cli.BoolFlag{
				Name:  "library",
				Usage: "Export every playlist in the signed-in library",
			},
			&cli.BoolFlag{
				Name:  "covers",
				Usage: "Download cover images for markdown exports",
			},
		},
		Action: r.Export,
	}
}

// monitorCommand returns the top-level TUI command for watching a running proxy.
func monitorCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "monitor",
		Aliases: []string{"tui", "ui"},
		Usage:   "Watch a running proxy's status and recent errors",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Polling interval",
				Value: 5 * time.Second,
			},
		},
		Action: r.Monitor,
	}
}
