package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/filesmanager/internal/app"
	"github.com/marmos91/filesmanager/internal/logger"
	"github.com/marmos91/filesmanager/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const usage = `Files Manager - personal file storage with thumbnails

Usage:
  filesmanager <command> [flags]

Commands:
  init      Write a sample configuration file
  start     Start the server
  version   Print the version

Flags:
  --config string   Path to the configuration file (default: %s)
  --force           Overwrite an existing file (init only)

Environment variables override the configuration file, e.g.
FILESMANAGER_LOGGING_LEVEL=DEBUG, FOLDER_PATH=/data, PORT=8080.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, config.GetDefaultConfigPath())
		os.Exit(2)
	}

	command := os.Args[1]
	flags := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := flags.String("config", "", "Path to the configuration file")
	force := flags.Bool("force", false, "Overwrite an existing configuration file")
	_ = flags.Parse(os.Args[2:])

	var err error
	switch command {
	case "init":
		err = runInit(*configPath, *force)
	case "start":
		err = runStart(*configPath)
	case "version":
		fmt.Printf("filesmanager %s\n", version)
	case "help", "-h", "--help":
		fmt.Printf(usage, config.GetDefaultConfigPath())
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", command)
		fmt.Fprintf(os.Stderr, usage, config.GetDefaultConfigPath())
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInit(configPath string, force bool) error {
	if configPath == "" {
		path, err := config.InitConfig(force)
		if err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", path)
		return nil
	}

	if err := config.InitConfigToPath(configPath, force); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", configPath)
	return nil
}

func runStart(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Close() }()

	logger.Info("Files Manager %s starting", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return a.Serve(ctx)
}
