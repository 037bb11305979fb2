package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/scribe/internal/config"
	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/ops"
	"github.com/hpungsan/scribe/internal/web"
)

// stdout is where command output goes; tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, logger *zap.Logger, level zap.AtomicLevel) *cli.App {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &cli.App{
		Name:    "scribe",
		Usage:   "Convert IRC meeting logs to markdown minutes",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"V"}, Usage: "Log at debug level"},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				level.SetLevel(zap.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			convertCmd(db, cfg, logger),
			actionsCmd(db),
			serveCmd(db, cfg, logger),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// convertCmd creates the convert command.
func convertCmd(db *sql.DB, cfg *config.Config, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "Convert an IRC log to minutes (reads stdin when no source is given)",
		ArgsUsage: "[path|url|-]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Meeting date (YYYY-MM-DD, default: today)"},
			&cli.StringFlag{Name: "meeting", Aliases: []string{"m"}, Usage: "Fallback meeting name"},
			&cli.StringFlag{Name: "nicknames", Aliases: []string{"n"}, Usage: "Nickname table path or URL (JSON or YAML)"},
			&cli.StringFlag{Name: "jekyll", Aliases: []string{"j"}, Usage: "Jekyll output: none|md|kd"},
			&cli.StringFlag{Name: "irc-format", Usage: "Log format: rrsagent|irccloud|textual|plain (default: detect)"},
			&cli.StringFlag{Name: "ghrepo", Usage: "Repository the minutes are published in"},
			&cli.StringFlag{Name: "issuerepo", Usage: "Repository for issue and pr references"},
			&cli.StringFlag{Name: "acrepo", Usage: "Repository for action items"},
			&cli.StringFlag{Name: "acurlpattern", Usage: "Action item URL pattern ({id} is replaced)"},
			&cli.StringFlag{Name: "agenda", Usage: "Agenda URL"},
			&cli.BoolFlag{Name: "final", Aliases: []string{"f"}, Usage: "Drop the draft notice"},
			&cli.BoolFlag{Name: "pandoc", Usage: "Emit a pandoc title block"},
			&cli.BoolFlag{Name: "auto", Aliases: []string{"a"}, Usage: "Record action items in the local store"},
			&cli.BoolFlag{Name: "html", Usage: "Render the minutes as HTML"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Write minutes to a .md or .html file"},
			&cli.BoolFlag{Name: "write", Aliases: []string{"w"}, Usage: "Write minutes to ~/.scribe/minutes/<date>-<meeting>.md"},
			&cli.BoolFlag{Name: "json", Usage: "Print the full conversion result as JSON"},
		},
		Action: func(c *cli.Context) error {
			source := ops.StdinSource
			if c.NArg() > 0 {
				source = c.Args().First()
			}
			if source == ops.StdinSource && !stdinHasData() {
				return outputError(errors.NewMissingInput("IRC log (pipe it via stdin or give a path or URL)"))
			}

			merged := config.Merge(cfg, &config.Config{
				Jekyll:       c.String("jekyll"),
				IRCFormat:    c.String("irc-format"),
				GHRepo:       c.String("ghrepo"),
				IssueRepo:    c.String("issuerepo"),
				ACRepo:       c.String("acrepo"),
				ACURLPattern: c.String("acurlpattern"),
				Agenda:       c.String("agenda"),
				Final:        c.Bool("final"),
				Pandoc:       c.Bool("pandoc"),
				Auto:         c.Bool("auto"),
			})

			outputPath := c.String("output")
			html := c.Bool("html") || isHTMLPath(outputPath)

			result, err := ops.Convert(c.Context, db, merged, ops.NewLoader(merged, logger), ops.ConvertInput{
				LogSource: source,
				Nicknames: c.String("nicknames"),
				Date:      c.String("date"),
				Meeting:   c.String("meeting"),
				HTML:      html,
				Logger:    logger,
			})
			if err != nil {
				return outputError(err)
			}

			content := result.Markdown
			if html {
				content = result.HTML
			}

			if outputPath != "" || c.Bool("write") {
				written, err := ops.WriteMinutes(c.Context, merged, ops.WriteInput{
					Path:    outputPath,
					Content: content,
					Date:    result.Date,
					Meeting: result.Meeting,
					HTML:    html,
				})
				if err != nil {
					return outputError(err)
				}
				if c.Bool("json") {
					return outputJSON(struct {
						*ops.ConvertOutput
						Written *ops.WriteOutput `json:"written"`
					}{result, written})
				}
				return outputJSON(written)
			}

			if c.Bool("json") {
				return outputJSON(result)
			}
			_, err = io.WriteString(stdout, content)
			return err
		},
	}
}

// actionsCmd creates the actions command and its subcommands.
func actionsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "actions",
		Usage: "Manage recorded action items",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded action items, newest meeting first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Filter by meeting date"},
					&cli.StringFlag{Name: "meeting", Aliases: []string{"m"}, Usage: "Filter by meeting name"},
					&cli.StringFlag{Name: "assignee", Usage: "Filter by assignee (case-insensitive)"},
					&cli.BoolFlag{Name: "include-closed", Usage: "Include closed actions"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.ListActions(db, ops.ListActionsInput{
						Date:          c.String("date"),
						Meeting:       c.String("meeting"),
						Assignee:      c.String("assignee"),
						IncludeClosed: c.Bool("include-closed"),
						Limit:         c.Int("limit"),
						Offset:        c.Int("offset"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "close",
				Usage:     "Mark an action item as done",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					output, err := ops.CloseAction(db, ops.CloseActionInput{ID: c.Args().First()})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI and HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8217, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"), logger)
			if err != nil {
				return outputError(err)
			}
			if err := web.Run(srv, logger); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if sErr, ok := err.(*errors.ScribeError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", sErr.Code, sErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// isHTMLPath reports whether path names an HTML file.
func isHTMLPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".html")
}
