package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/spf13/cobra"

	"time-value-analyser/fi-dashboard/internal/config"
	"time-value-analyser/fi-dashboard/internal/store"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "dev"

var args struct {
	config string
}

var Cmd = &cobra.Command{
	Use:          "fi-dashboard",
	Short:        "Financial inclusion dashboard: historical trends, event impacts and forecasts",
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	Cmd.PersistentFlags().StringVar(
		&args.config,
		"config",
		"config.yml",
		"Path to YAML config file",
	)
	Cmd.AddCommand(serveCmd, checkCmd, kpiCmd, topEventsCmd, exportCmd)
}

func main() {
	log.SetFlags(log.Flags() | log.Lshortfile)

	if err := Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads --config; a missing file falls back to defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(args.config)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("config %s not found, using defaults", args.config)
		return config.Parse(nil)
	}
	return cfg, err
}

func loadStore(ctx context.Context) (*config.Config, *store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	st, err := store.Load(ctx, cfg.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("load data: %w", err)
	}
	return cfg, st, nil
}
