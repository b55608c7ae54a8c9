// Command cpg drives the code property graph analyzer end to end
// against the reference SQLite sink: parse a repository, build the
// graph, and answer simple lookups against it. It intentionally
// exposes only the core (build/show) rather than the teacher's
// full TUI/server/MCP surface, which SPEC_FULL.md's Non-goals exclude.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/cpg/internal/analyzer"
	"github.com/standardbeagle/cpg/internal/config"
	"github.com/standardbeagle/cpg/internal/grammar"
	"github.com/standardbeagle/cpg/internal/ingestor"
	"github.com/standardbeagle/cpg/internal/logx"
	"github.com/standardbeagle/cpg/internal/version"
)

func main() {
	app := &cli.App{
		Name:    "cpg",
		Usage:   "code property graph static analyzer",
		Version: version.FullInfo(),
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Before: func(c *cli.Context) error {
			logx.SetDebug(c.Bool("debug"))
			return nil
		},
		Commands: []*cli.Command{
			buildCommand(),
			showCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "cpg:", err)
		os.Exit(1)
	}
}

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "ingest a repository into a graph database",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Value: "cpg.sqlite", Usage: "output SQLite graph database path"},
			&cli.StringSliceFlag{Name: "ignore", Usage: "additional glob ignore pattern (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			root := c.Args().First()
			if root == "" {
				return cli.Exit("build requires a repository path", 1)
			}

			cfg, err := config.Load(root)
			if err != nil {
				return err
			}
			cfg.Ignore = append(cfg.Ignore, c.StringSlice("ignore")...)

			sink, err := ingestor.OpenSQLiteSink(c.String("db"))
			if err != nil {
				return err
			}
			defer sink.Close()

			updater := analyzer.New(sink, grammar.NewManager(), cfg.AstCacheMaxEntries, cfg.AstCacheMaxMemoryBytes)
			stats, err := updater.Run(cfg.ProjectRoot, cfg.Ignore)
			if err != nil {
				return err
			}

			fmt.Printf("files: %d scanned, %d parsed, %d failed\n", stats.FilesScanned, stats.FilesParsed, stats.FilesFailed)
			fmt.Printf("graph: %d definitions, %d calls, %d overrides\n", stats.Definitions, stats.Calls, stats.Overrides)
			fmt.Printf("duration: %s\n", stats.Duration)
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "print the stored kind, qualified name and properties of a node",
		ArgsUsage: "<qn>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Value: "cpg.sqlite", Usage: "graph database path"},
		},
		Action: func(c *cli.Context) error {
			qn := c.Args().First()
			if qn == "" {
				return cli.Exit("show requires a qualified name", 1)
			}

			sink, err := ingestor.OpenSQLiteSink(c.String("db"))
			if err != nil {
				return err
			}
			defer sink.Close()

			rows, err := sink.FetchAll(`SELECT kind, qn, properties FROM nodes WHERE qn = ? LIMIT 1`, qn)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return cli.Exit(fmt.Sprintf("no node found for %s", qn), 1)
			}
			fmt.Fprintf(c.App.Writer, "%v %v\n%v\n", rows[0]["kind"], rows[0]["qn"], rows[0]["properties"])
			return nil
		},
	}
}
