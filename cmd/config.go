package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "reviewmate"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage reviewmate configuration.

Running bare 'reviewmate config' is the same as 'reviewmate config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# reviewmate configuration
# See: reviewmate config show (for effective values and sources)

# State/data directory (default: ~/.config/reviewmate)
# state_dir: {{ .StateDir }}

# SQLite database path (default: ~/.config/reviewmate/reviewmate.db)
# db_path: {{ .DBPath }}

# API server port (default: 8000)
port: {{ .Port }}

# HTTP server
server:
  # Origins allowed by CORS
  allowed_origins:
{{- range .AllowedOrigins }}
    - "{{ . }}"
{{- end }}

  # Largest accepted request body in bytes (default: 1 MiB)
  max_body_bytes: {{ .MaxBodyBytes }}

  # Where the browser is sent after GitHub sign-in
  frontend_url: "{{ .FrontendURL }}"

# AI reviewer
llm:
  # Provider: gemini, anthropic or dummy (default: "gemini")
  provider: "{{ .LLMProvider }}"

  # API key; GEMINI_API_KEY / ANTHROPIC_API_KEY are used when empty
  api_key: ""

  # Model name; empty uses the provider default
  model: "{{ .LLMModel }}"

  # Per-review timeout (default: 60s)
  timeout: "{{ .LLMTimeout }}"

# GitHub OAuth app
github:
  client_id: "{{ .GitHubClientID }}"
  client_secret: ""
  redirect_url: "{{ .GitHubRedirectURL }}"

# Session tokens
auth:
  # HMAC secret for session JWTs; sign-in is disabled when empty
  jwt_secret: ""

  # Session lifetime (default: 168h)
  token_ttl: "{{ .TokenTTL }}"
`

type configTemplateData struct {
	StateDir          string
	DBPath            string
	Port              int
	AllowedOrigins    []string
	MaxBodyBytes      int64
	FrontendURL       string
	LLMProvider       string
	LLMModel          string
	LLMTimeout        string
	GitHubClientID    string
	GitHubRedirectURL string
	TokenTTL          string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:          viper.GetString("state_dir"),
		DBPath:            viper.GetString("db_path"),
		Port:              viper.GetInt("port"),
		AllowedOrigins:    viper.GetStringSlice("server.allowed_origins"),
		MaxBodyBytes:      viper.GetInt64("server.max_body_bytes"),
		FrontendURL:       viper.GetString("server.frontend_url"),
		LLMProvider:       viper.GetString("llm.provider"),
		LLMModel:          viper.GetString("llm.model"),
		LLMTimeout:        viper.GetDuration("llm.timeout").String(),
		GitHubClientID:    viper.GetString("github.client_id"),
		GitHubRedirectURL: viper.GetString("github.redirect_url"),
		TokenTTL:          viper.GetDuration("auth.token_ttl").String(),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if dryRun {
		ui.DryRunMsg("Would create config file: %s", cfgPath)
		fmt.Fprintln(ui.Out)
		fmt.Fprint(ui.Out, buf.String())
		return nil
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
	Secret bool
}

var configKeys = []configKeyInfo{
	{Key: "state_dir", EnvVar: "RM_STATE_DIR"},
	{Key: "db_path", EnvVar: "RM_DB_PATH"},
	{Key: "port", EnvVar: "RM_PORT"},
	{Key: "server.allowed_origins", EnvVar: "RM_SERVER_ALLOWED_ORIGINS"},
	{Key: "server.max_body_bytes", EnvVar: "RM_SERVER_MAX_BODY_BYTES"},
	{Key: "server.frontend_url", EnvVar: "RM_SERVER_FRONTEND_URL"},
	{Key: "llm.provider", EnvVar: "RM_LLM_PROVIDER"},
	{Key: "llm.api_key", EnvVar: "RM_LLM_API_KEY", Secret: true},
	{Key: "llm.model", EnvVar: "RM_LLM_MODEL"},
	{Key: "llm.timeout", EnvVar: "RM_LLM_TIMEOUT"},
	{Key: "github.client_id", EnvVar: "RM_GITHUB_CLIENT_ID"},
	{Key: "github.client_secret", EnvVar: "RM_GITHUB_CLIENT_SECRET", Secret: true},
	{Key: "github.redirect_url", EnvVar: "RM_GITHUB_REDIRECT_URL"},
	{Key: "auth.jwt_secret", EnvVar: "RM_AUTH_JWT_SECRET", Secret: true},
	{Key: "auth.token_ttl", EnvVar: "RM_AUTH_TOKEN_TTL"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		if k.Secret {
			val = maskSecret(viper.GetString(k.Key))
		}
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-24s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// maskSecret hides all but the last four characters of a credential.
func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set; set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'reviewmate config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor)
		return nil
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
