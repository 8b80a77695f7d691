package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"gopkg.in/yaml.v3"

	"tvshelf/internal/theme"
)

// Config represents the persisted application configuration.
type Config struct {
	APIBaseURL           string `yaml:"api_base_url"`
	HTTPTimeoutSec       int    `yaml:"http_timeout_seconds"`
	UserAgent            string `yaml:"user_agent"`
	Proxy                string `yaml:"proxy,omitempty"`
	TLSVerify            bool   `yaml:"tls_verify"`
	ColorTheme           string `yaml:"color_theme"`
	GridColumns          int    `yaml:"grid_columns"`
	ShowNameMaxLength    int    `yaml:"show_name_max_length"`
	EpisodeNameMaxLength int    `yaml:"episode_name_max_length"`
	SummaryMaxLines      int    `yaml:"summary_max_lines"`
}

// Defaults returns the baseline configuration used on first run.
func Defaults() Config {
	return Config{
		APIBaseURL:           "https://api.tvmaze.com",
		HTTPTimeoutSec:       15,
		UserAgent:            "tvshelf/dev",
		TLSVerify:            true,
		ColorTheme:           theme.Default,
		GridColumns:          3,
		ShowNameMaxLength:    28,
		EpisodeNameMaxLength: 40,
		SummaryMaxLines:      3,
	}
}

// Ensure loads configuration from the provided path, prompting the user to
// create one if it does not yet exist.
func Ensure(ctx context.Context, path string) (Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	cfg = Defaults()
	if err := bootstrap(ctx, &cfg); err != nil {
		return Config{}, err
	}

	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads configuration from disk.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = Defaults().APIBaseURL
	}
	if strings.TrimSpace(cfg.ColorTheme) == "" {
		cfg.ColorTheme = theme.Default
	}
	if cfg.HTTPTimeoutSec <= 0 {
		cfg.HTTPTimeoutSec = Defaults().HTTPTimeoutSec
	}
	if cfg.GridColumns <= 0 {
		cfg.GridColumns = Defaults().GridColumns
	}
	if cfg.SummaryMaxLines <= 0 {
		cfg.SummaryMaxLines = Defaults().SummaryMaxLines
	}
	return cfg, nil
}

// Save writes configuration back to disk, ensuring directory permissions are restrictive.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(temp, path)
}

func bootstrap(ctx context.Context, cfg *Config) error {
	if fromEnv := strings.TrimSpace(os.Getenv("TVSHELF_COLOR_THEME")); fromEnv != "" {
		cfg.ColorTheme = fromEnv
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	prompt := &survey.Select{
		Message: "Choose a color theme",
		Options: theme.Names(),
		Default: cfg.ColorTheme,
	}

	var answer string
	if err := survey.AskOne(prompt, &answer); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return fmt.Errorf("initialisation interrupted")
		}
		return err
	}

	cfg.ColorTheme = answer
	return nil
}

// EditableKeys returns the ordered list of configuration keys exposed via the
// interactive editor.
func EditableKeys() []string {
	return []string{
		"api_base_url",
		"http_timeout_seconds",
		"user_agent",
		"proxy",
		"tls_verify",
		"color_theme",
		"grid_columns",
		"show_name_max_length",
		"episode_name_max_length",
		"summary_max_lines",
	}
}

// EditInteractive opens an interactive survey session allowing the user to
// update configuration values.
func EditInteractive(ctx context.Context, cfg Config) (Config, error) {
	questions := []*survey.Question{
		{
			Name: "api_base_url",
			Prompt: &survey.Input{
				Message: "API base URL",
				Default: cfg.APIBaseURL,
			},
			Validate: survey.Required,
		},
		{
			Name: "http_timeout_seconds",
			Prompt: &survey.Input{
				Message: "HTTP timeout (seconds)",
				Default: fmt.Sprintf("%d", cfg.HTTPTimeoutSec),
			},
			Validate: validatePositiveInt,
		},
		{
			Name: "user_agent",
			Prompt: &survey.Input{
				Message: "User agent",
				Default: cfg.UserAgent,
			},
		},
		{
			Name: "proxy",
			Prompt: &survey.Input{
				Message: "HTTP proxy (optional)",
				Default: cfg.Proxy,
			},
		},
		{
			Name: "tls_verify",
			Prompt: &survey.Confirm{
				Message: "Verify TLS certificates",
				Default: cfg.TLSVerify,
			},
		},
		{
			Name: "color_theme",
			Prompt: &survey.Select{
				Message: "Color theme",
				Options: theme.Names(),
				Default: cfg.ColorTheme,
			},
		},
		{
			Name: "grid_columns",
			Prompt: &survey.Input{
				Message: "Card grid columns",
				Default: fmt.Sprintf("%d", cfg.GridColumns),
			},
			Validate: validatePositiveInt,
		},
		{
			Name: "show_name_max_length",
			Prompt: &survey.Input{
				Message: "Maximum show name length on cards",
				Default: fmt.Sprintf("%d", cfg.ShowNameMaxLength),
			},
			Validate: validatePositiveInt,
		},
		{
			Name: "episode_name_max_length",
			Prompt: &survey.Input{
				Message: "Maximum episode name length on cards",
				Default: fmt.Sprintf("%d", cfg.EpisodeNameMaxLength),
			},
			Validate: validatePositiveInt,
		},
		{
			Name: "summary_max_lines",
			Prompt: &survey.Input{
				Message: "Maximum summary lines on cards",
				Default: fmt.Sprintf("%d", cfg.SummaryMaxLines),
			},
			Validate: validatePositiveInt,
		},
	}

	answers := map[string]interface{}{}
	select {
	case <-ctx.Done():
		return Config{}, ctx.Err()
	default:
	}

	if err := survey.Ask(questions, &answers); err != nil {
		return Config{}, err
	}

	cfg.APIBaseURL = strings.TrimSpace(answers["api_base_url"].(string))
	cfg.HTTPTimeoutSec = toInt(answers["http_timeout_seconds"])
	cfg.UserAgent = strings.TrimSpace(answers["user_agent"].(string))
	cfg.Proxy = strings.TrimSpace(answers["proxy"].(string))
	cfg.TLSVerify = answers["tls_verify"].(bool)
	if themeName, ok := answers["color_theme"].(string); ok {
		cfg.ColorTheme = themeName
	}
	cfg.GridColumns = toInt(answers["grid_columns"])
	cfg.ShowNameMaxLength = toInt(answers["show_name_max_length"])
	cfg.EpisodeNameMaxLength = toInt(answers["episode_name_max_length"])
	cfg.SummaryMaxLines = toInt(answers["summary_max_lines"])

	return cfg, nil
}

func validatePositiveInt(ans interface{}) error {
	v := strings.TrimSpace(ans.(string))
	if v == "" {
		return errors.New("value required")
	}
	i, err := parseInt(v)
	if err != nil {
		return err
	}
	if i <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func parseInt(value string) (int, error) {
	var i int
	_, err := fmt.Sscanf(value, "%d", &i)
	if err != nil {
		return 0, errors.New("must be a number")
	}
	return i, nil
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case string:
		i, _ := parseInt(v)
		return i
	default:
		return 0
	}
}
