package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/assetexport/internal"
	"github.com/starford/assetexport/internal/apperr"
	pkgconfig "github.com/starford/assetexport/pkg/config"
)

func run(ctx context.Context, cmd *cli.Command) error {
	target, err := internal.ParseTarget(cmd.String("dashboard"), cmd.String("visualization"), cmd.String("search"))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd.String("config"), cmd.String("store-url"), cmd.String("index"))
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithTarget(target),
		internal.WithOutputDir(cmd.String("outputdir")),
	}

	return internal.Run(ctx, opts...)
}

// loadConfig reads the optional config file, applies flag overrides and
// validates the result once.
func loadConfig(path, storeURL, index string) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.ReadOptional(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if storeURL != "" {
		cfg.Store.URL = storeURL
	}
	if index != "" {
		cfg.Store.Index = index
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func usageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return apperr.Usage(err.Error())
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:         "assetexport",
		Usage:        "Export dashboards, visualizations, or searches from Elasticsearch",
		Action:       run,
		OnUsageError: usageError,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dashboard",
				Aliases: []string{"d"},
				Usage:   "Export dashboard `DASHBOARD_NAME` and all of its assets",
			},
			&cli.StringFlag{
				Name:    "visualization",
				Aliases: []string{"v"},
				Usage:   "Export a single visualization `VISUALIZATION_NAME`",
			},
			&cli.StringFlag{
				Name:    "search",
				Aliases: []string{"s"},
				Usage:   "Export a single search `SEARCH_NAME`",
			},
			&cli.StringFlag{
				Name:        "outputdir",
				Aliases:     []string{"o"},
				Usage:       "Output `DIR_NAME` for the exported files",
				DefaultText: "directory of the executable",
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to optional config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "store-url",
				Usage:   "Document store base URL",
				Sources: cli.EnvVars("ASSET_EXPORT_STORE_URL"),
			},
			&cli.StringFlag{
				Name:    "index",
				Usage:   "Index holding the saved objects",
				Sources: cli.EnvVars("ASSET_EXPORT_INDEX"),
			},
		},
	}
}

func main() {
	if len(os.Args) == 1 {
		fail(apperr.Usage("no arguments supplied"))
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if errors.Is(err, apperr.ErrUsage) {
		fmt.Fprintln(os.Stderr, "Run with --help for usage.")
	}
	os.Exit(internal.ExitCode(err))
}
