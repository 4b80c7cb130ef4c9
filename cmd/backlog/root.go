package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/mmcdole/backlog/internal/service"
	"github.com/mmcdole/backlog/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	cfgFile   string
	useFilms  bool
	logCloser io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "backlog",
	Short: "Browse game and film catalogs with an offline cache.",
	Long: `backlog searches IGDB for games and TMDB for films, keeping every result in a
local cache so the last answer is still there when the provider is not.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/backlog/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&useFilms, "films", "f", false, "use the film catalog instead of games")
}

// loadConfig reads the config and installs the file logger
func loadConfig() (*adapter.Config, *slog.Logger, error) {
	cfg, err := adapter.LoadConfig(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := adapter.SetupLogger(&cfg.Logging, Version)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		logCloser = closer
	}
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// openService loads config and wires the catalog service
func openService() (*service.CatalogService, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("IGDB credentials are not configured, run 'backlog setup' first")
	}

	logger.Info("starting backlog", "version", Version, "store", cfg.Store.Driver)

	svc, err := service.NewCatalogService(cfg, logger)
	if err != nil {
		return nil, err
	}
	if useFilms && !svc.FilmsEnabled() {
		svc.Close()
		return nil, fmt.Errorf("the film catalog needs a TMDB read token, run 'backlog setup' to add one")
	}
	return svc, nil
}

// isTerminal reports whether stdout is an interactive terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// newRenderer creates a renderer sized to the terminal
func newRenderer(w io.Writer) *ui.Renderer {
	width := 0
	if isTerminal() {
		if cols, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = cols
		}
	}
	return ui.NewRenderer(w, width)
}
