package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/reviewmate/internal/output"
	"github.com/joescharf/reviewmate/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "reviewmate",
	Short: "AI code review with heuristic code metrics",
	Long: `reviewmate reviews code snippets with an AI model and scores them with
heuristic metrics: lines of code, cyclomatic and cognitive complexity,
issues found, a quality rating and a maintainability index.

It runs as a REST API for the web frontend, as an MCP stdio server, or
directly from the command line.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/reviewmate/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := configDirFunc()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// RM_LLM_API_KEY maps to llm.api_key.
	viper.SetEnvPrefix("RM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	dir, _ := configDirFunc()
	setDefaults(dir)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

// setDefaults registers the default of every config key, with state
// kept under dir.
func setDefaults(dir string) {
	viper.SetDefault("state_dir", dir)
	viper.SetDefault("db_path", filepath.Join(dir, "reviewmate.db"))
	viper.SetDefault("port", 8000)

	viper.SetDefault("server.allowed_origins", []string{
		"https://aireviewmate-gdg-nitk.vercel.app",
		"http://localhost:3000",
	})
	viper.SetDefault("server.max_body_bytes", 1<<20)
	viper.SetDefault("server.frontend_url", "http://localhost:3000")

	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.timeout", "60s")

	viper.SetDefault("github.client_id", "")
	viper.SetDefault("github.client_secret", "")
	viper.SetDefault("github.redirect_url", "http://localhost:8000/api/github/callback")

	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.token_ttl", "168h")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Initialize store lazily, only when commands actually need it.
	// This allows config/version commands to run without a db.
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(commandContext()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// commandContext returns the running command's context, or Background
// when invoked outside Execute.
func commandContext() context.Context {
	if ctx := rootCmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
