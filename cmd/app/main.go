package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/notesh/internal"
	pkgconfig "github.com/starford/notesh/pkg/config"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func options(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(Version),
	}, nil
}

func runShell(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("shell error: %w", err)
	}
	return nil
}

func runExec(ctx context.Context, cmd *cli.Command) error {
	line := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(line) == "" {
		return fmt.Errorf("exec: a command line is required")
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.Exec(ctx, line, opts...)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Serve(ctx, opts...); err != nil {
		return fmt.Errorf("serve error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:    "notesh",
		Usage:   "A command shell for your notes: folders, tags, search and pipelines",
		Version: Version,
		Action:  runShell,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (defaults apply when it does not exist)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("NOTESH_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "shell",
				Usage:  "Start the interactive shell (default)",
				Action: runShell,
			},
			{
				Name:      "exec",
				Usage:     "Run one command line and exit",
				ArgsUsage: "<command line>",
				Action:    runExec,
			},
			{
				Name:   "serve",
				Usage:  "Serve the read-only HTTP API, metrics and inbox without a shell",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve read-only note tools over MCP stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
