package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configFile := configPath
	dataDir := filepath.Join(home, ".local", "share", "programrank")

	// Create directories
	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Check if config already exists
	if _, err := os.Stat(configFile); err == nil {
		fmt.Printf("Config file already exists at %s\n", configFile)
		fmt.Println("Use 'programrank config show' to view current configuration")
		return nil
	}

	// Write default config
	if err := os.WriteFile(configFile, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Run 'programrank import programs.json' to load crawler output")
	fmt.Println("  2. Run 'programrank dedup' to review cross-source duplicates")
	fmt.Println("  3. Run 'programrank recommend --department 컴퓨터과학부 --grade 2' to try a ranking")

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("No config file found. Run 'programrank config init' to create one.")
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	fmt.Printf("# Config file: %s\n\n", configPath)
	fmt.Println(string(data))
	return nil
}

const defaultConfig = `# programrank configuration

[database]
path = "~/.local/share/programrank/programrank.db"

[ranking]
limit = 5
max_limit = 50
min_score = 20.0
include_closed = false
rule_weight = 0.6
field_weight = 0.4
prefilter = true   # load only department/grade candidates before ranking

[ranking.rule]
department_match = 40.0
department_unrestricted = 20.0
grade_match = 30.0
grade_unrestricted = 15.0
interest_per_match = 10.0
interest_cap = 30.0
deadline_bonus = 10.0
deadline_window_days = 7
ceiling = 80.0     # rule subtotal mapped to 100 before blending

[ranking.field]
max_score = 40.0
max_features = 1000
max_ngram = 2
content_limit = 0  # runes of content scored per program, 0 for all

[dedup]
threshold = 0.80
keeper = "lowest_id"   # or "completeness"

[server]
host = "127.0.0.1"
port = 8080
cors_origins = ["http://localhost:3000"]
rate_limit_requests = 100
rate_limit_window_seconds = 60

[logging]
level = "info"
format = "console"

[mcp]
enabled = true
transport = "stdio"
`
