package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/almanac/internal"
	pkgconfig "github.com/starford/almanac/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	read, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !read {
		slog.Warn("config file not found, using defaults", slog.String("path", configPath))
	}

	return []internal.Option{
		internal.WithConfig(cfg),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, opts...); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func exportPeople(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	out := cmd.String("out")
	if err := internal.ExportPeople(ctx, out, opts...); err != nil {
		return err
	}
	fmt.Printf("exported people to %s\n", out)
	return nil
}

func importPeople(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	rep, err := internal.ImportPeople(ctx, cmd.String("in"), opts...)
	if err != nil {
		return err
	}
	w := os.Stdout
	fmt.Fprintf(w, "imported %d, duplicates %d, invalid %d\n", rep.Imported, len(rep.Duplicates), len(rep.Invalid))
	for _, d := range rep.Duplicates {
		fmt.Fprintf(w, "  line %d %q: %s\n", d.Line, d.Name, d.Reason)
	}
	for _, inv := range rep.Invalid {
		fmt.Fprintf(w, "  line %d %q: %s\n", inv.Line, inv.Name, inv.Reason)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "almanac",
		Usage:  "Personal tracker for people, skills, projects, events, tasks and versioned notes",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, change stream and inbox watcher",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve notes and tasks to LLM agents over MCP stdio",
				Action: serveMCP,
			},
			{
				Name:  "people",
				Usage: "Spreadsheet import and export of contacts",
				Commands: []*cli.Command{
					{
						Name:   "export",
						Usage:  "Write every contact to an .xlsx workbook",
						Action: exportPeople,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:    "out",
								Aliases: []string{"o"},
								Usage:   "Output .xlsx path",
								Value:   "people.xlsx",
							},
						},
					},
					{
						Name:   "import",
						Usage:  "Create contacts from an .xlsx workbook, skipping duplicates",
						Action: importPeople,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "in",
								Aliases:  []string{"i"},
								Usage:    "Input .xlsx path",
								Required: true,
							},
						},
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
