// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the gateway
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the search and document gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the document store and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with the identity provider",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "browser",
						Usage: "Sign in through the browser (authorization code flow)",
					},
					&cli.StringFlag{
						Name:    "username",
						Aliases: []string{"u"},
						Usage:   "Account name for the password grant",
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Password for the password grant",
						Sources: cli.EnvVars("ZENITHX_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "token",
				Usage: "Mint a development token with the configured secret",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Usage:    "User id (token subject)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "email",
						Usage: "Email claim",
					},
					&cli.BoolFlag{
						Name:  "print",
						Usage: "Print the token instead of storing it",
					},
				},
				Action: r.AuthToken,
			},
			{
				Name:   "status",
				Usage:  "Check gateway health and the stored identity",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored identity",
				Action: r.AuthLogout,
			},
		},
	}
}

func directFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "direct",
			Usage: "Query the search provider directly instead of the gateway",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
	}
}

// searchCommand handles search operations
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search for tracks",
		ArgsUsage: "<query>",
		Flags:     directFlags(),
		Action:    r.Search,
		Commands: []*cli.Command{
			{
				Name:      "related",
				Usage:     "Show the track autoplay would pick after a video",
				ArgsUsage: "<videoId>",
				Flags:     directFlags(),
				Action:    r.SearchRelated,
			},
		},
	}
}

// documentCommand handles the signed-in user's document
func documentCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "doc",
		Aliases: []string{"document"},
		Usage:   "Read and write your queue and liked songs",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print your document",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.DocGet,
			},
			{
				Name:  "save",
				Usage: "Replace one list with a JSON track array",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "action",
						Usage: "saveQueue or saveLikedSongs",
						Value: "saveQueue",
					},
					&cli.StringFlag{
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON track array",
					},
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read the JSON track array from a file",
					},
				},
				Action: r.DocSave,
			},
		},
	}
}

// exportCommand handles exporting lists
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export your queue or liked songs",
		ArgsUsage: "queue|liked",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "csv, markdown or text",
				Value: "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path (file base, directory for markdown); stdout when empty",
			},
			&cli.BoolFlag{
				Name:  "cover",
				Usage: "Download the first track's thumbnail as cover.jpg (markdown only)",
			},
		},
		Action: r.Export,
	}
}

// apiCommand handles direct gateway calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the gateway",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Direct GET to the gateway, prints raw JSON",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "Direct POST with JSON body",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Gateway health and your document in one report",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// cacheCommand handles the gateway's search cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the search cache",
		Commands: []*cli.Command{
			{
				Name:  "purge",
				Usage: "Remove all cached search results",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "redis-url",
						Usage: "Redis URL (defaults to cache.redis_url)",
					},
				},
				Action: r.CachePurge,
			},
		},
	}
}

// playCommand returns the top-level command for the terminal player.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "play",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the terminal player",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "screen",
				Usage: "Screen to open first: home, queue, liked or profile",
				Value: "home",
			},
		},
		Action: r.Play,
	}
}
