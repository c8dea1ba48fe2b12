// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// createCommand starts a new generation session from a mood prompt.
func createCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "create",
		Aliases: []string{"new"},
		Usage:   "Generate a playlist from a mood prompt",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "mood"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "genre",
				Aliases: []string{"g"},
				Usage:   "Optional genre hint",
			},
			&cli.BoolFlag{
				Name:  "follow",
				Usage: "Stream progress until the session finishes",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "poll",
				Usage: "Poll the status endpoint instead of streaming",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Create,
	}
}

// statusCommand fetches the current state of a session.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the current state of a generation session",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "session"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Keep watching until the session finishes",
			},
			&cli.BoolFlag{
				Name:  "poll",
				Usage: "Poll the status endpoint instead of streaming",
			},
		},
		Action: r.Status,
	}
}

// cancelCommand stops an in-flight session.
func cancelCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cancel",
		Usage: "Cancel an in-flight generation session",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "session"},
		},
		Action: r.Cancel,
	}
}

// editCommand mutates a finished playlist's track list.
func editCommand(r *Runner) *cli.Command {
	sessionFlag := func() *cli.StringFlag {
		return &cli.StringFlag{
			Name:     "session",
			Aliases:  []string{"s"},
			Usage:    "Session ID",
			Required: true,
		}
	}

	return &cli.Command{
		Name:  "edit",
		Usage: "Edit a generated playlist's tracks",
		Commands: []*cli.Command{
			{
				Name:  "remove",
				Usage: "Remove a track",
				Flags: []cli.Flag{
					sessionFlag(),
					&cli.StringFlag{
						Name:     "track",
						Usage:    "Track ID to remove",
						Required: true,
					},
				},
				Action: r.EditRemove,
			},
			{
				Name:  "reorder",
				Usage: "Move a track to a new position",
				Flags: []cli.Flag{
					sessionFlag(),
					&cli.IntFlag{
						Name:     "from",
						Usage:    "Current position (1-based)",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "to",
						Usage:    "Target position (1-based)",
						Required: true,
					},
				},
				Action: r.EditReorder,
			},
			{
				Name:  "add",
				Usage: "Add a track by Spotify search",
				Flags: []cli.Flag{
					sessionFlag(),
					&cli.StringFlag{
						Name:     "query",
						Usage:    "Search query for the track to add",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "position",
						Usage: "Insert position (1-based, default append)",
					},
				},
				Action: r.EditAdd,
			},
		},
	}
}

// saveCommand persists a completed playlist to Spotify.
func saveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Save a completed playlist to Spotify",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "session"},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Save,
	}
}

// syncCommand reconciles the local track list against the saved playlist.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync a saved playlist's tracks back from Spotify",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "session"},
		},
		Action: r.Sync,
	}
}

// searchCommand searches Spotify for tracks.
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search Spotify for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Search,
	}
}

// exportCommand writes a session's playlist to a local file.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a session's playlist to CSV, Markdown, or plain text",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "session"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: csv, markdown, or text",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path (default derives from the session ID)",
			},
		},
		Action: r.Export,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "connect",
				Usage: "Connect a Spotify account via OAuth (PKCE)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorization URL instead of opening a browser",
					},
				},
				Action: r.AuthConnect,
			},
			{
				Name:   "status",
				Usage:  "Show the authenticated user",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Invalidate the backend session and clear cached credentials",
				Action: r.AuthLogout,
			},
			{
				Name:   "dashboard",
				Usage:  "Show account activity and generation quota",
				Action: r.AuthDashboard,
			},
		},
	}
}

// historyCommand browses locally recorded sessions.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse locally recorded generation sessions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent sessions",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of sessions to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "prune",
				Usage: "Delete history entries older than the given number of days",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "Age cutoff in days",
						Value: 90,
					},
				},
				Action: r.HistoryPrune,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the local database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive playlist generation.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for playlist generation",
		Action:  r.TUI,
	}
}
