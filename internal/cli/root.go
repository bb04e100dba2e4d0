package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/uosnotice/programrank/internal/config"
	"github.com/uosnotice/programrank/internal/database"
	"github.com/uosnotice/programrank/internal/logging"
	"github.com/uosnotice/programrank/internal/service"
)

var (
	// Version info set from main
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"

	// Global flags
	configPath string
	outputFmt  string
)

// SetVersionInfo sets version information from build flags
func SetVersionInfo(v, c, b string) {
	version = v
	commit = c
	buildTime = b
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "programrank",
	Short: "Rank and deduplicate university program announcements",
	Long: `programrank stores crawled university program announcements and
recommends them to students.

It provides:
  - Import of crawler output (JSON or YAML) with category classification
  - Hybrid ranking by department, grade, interests, deadline and free-text relevance
  - Cross-source duplicate detection and removal
  - HTTP API and MCP server for AI assistant integration`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: ~/.config/programrank/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table",
		"output format (table, json)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	// A missing .env is normal; anything else is worth reporting
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}
		configPath = filepath.Join(home, ".config", "programrank", "config.toml")
	}
}

// loadConfig reads the config file (defaults when it does not exist) and
// configures logging from it
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logging.Init(logCfg)

	return cfg, nil
}

// openDB ensures the data directory exists and opens the program store
func openDB(cfg *config.Config) (*database.DB, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// openService loads config, opens the store and builds the service. The
// returned close function releases the store.
func openService() (*service.Service, *config.Config, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	svc, err := service.New(db, cfg, logging.With("service"))
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	return svc, cfg, func() { db.Close() }, nil
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("programrank %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", buildTime)
	},
}
