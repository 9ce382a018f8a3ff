package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the complete pbxaudit configuration. The audit core (differ,
// storage) never sees this struct; commands hand each component the plain
// values it needs.
type Config struct {
	Portal    PortalConfig    `mapstructure:"portal"`
	Email     EmailConfig     `mapstructure:"email"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Retention RetentionConfig `mapstructure:"retention"`
	Collector CollectorConfig `mapstructure:"collector"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PortalConfig locates the PBX admin portal for the extraction collaborator.
// Credentials normally arrive through the environment (.env), not the YAML
// file.
type PortalConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// EmailConfig drives the notifier.
type EmailConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	SMTPHost        string   `mapstructure:"smtp_host"`
	SMTPPort        int      `mapstructure:"smtp_port"`
	Username        string   `mapstructure:"username"`
	Password        string   `mapstructure:"password"`
	FromName        string   `mapstructure:"from_name"`
	FromAddress     string   `mapstructure:"from_address"`
	Recipients      []string `mapstructure:"recipients"`
	ErrorRecipients []string `mapstructure:"error_recipients"`
}

// StorageConfig holds the on-disk layout.
type StorageConfig struct {
	BaseDir string `mapstructure:"base_dir"`
}

// SnapshotsDir is where dated snapshots live.
func (s StorageConfig) SnapshotsDir() string {
	return filepath.Join(s.BaseDir, "snapshots")
}

// ReportsDir is where rendered change reports live.
func (s StorageConfig) ReportsDir() string {
	return filepath.Join(s.BaseDir, "reports")
}

// RetentionConfig controls the snapshot sweep.
type RetentionConfig struct {
	Days int `mapstructure:"days"`
}

// CollectorConfig selects the extraction source.
type CollectorConfig struct {
	Source string `mapstructure:"source"`
	// InputPath feeds the file collector on backfill runs.
	InputPath string `mapstructure:"input_path"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Portal: PortalConfig{},
		Email: EmailConfig{
			Enabled:  false,
			SMTPPort: 587,
			FromName: "PBX Audit",
		},
		Storage: StorageConfig{
			BaseDir: filepath.Join(homeDir, ".pbxaudit"),
		},
		Retention: RetentionConfig{
			Days: 30,
		},
		Collector: CollectorConfig{
			Source: "file",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a .env file (credentials), an optional YAML
// config file and PBXAUDIT_* environment variables, on top of the defaults.
func Load(cfgFile string) (*Config, error) {
	// Credentials first so viper's env binding can pick them up. A missing
	// .env is normal.
	_ = godotenv.Load()

	cfg := Default()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".pbxaudit"))
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("PBXAUDIT")
	viper.AutomaticEnv()

	viper.BindEnv("portal.username", "PBXAUDIT_PORTAL_USERNAME", "PBX_USERNAME")
	viper.BindEnv("portal.password", "PBXAUDIT_PORTAL_PASSWORD", "PBX_PASSWORD")
	viper.BindEnv("email.username", "PBXAUDIT_EMAIL_USERNAME", "SMTP_USERNAME")
	viper.BindEnv("email.password", "PBXAUDIT_EMAIL_PASSWORD", "SMTP_PASSWORD")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; defaults plus env carry a full run.
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for a runnable audit.
func (c *Config) Validate() error {
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage base_dir is required")
	}
	if c.Retention.Days < 0 {
		return fmt.Errorf("retention days must not be negative, got %d", c.Retention.Days)
	}
	if c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("email is enabled but smtp_host is empty")
		}
		if len(c.Email.Recipients) == 0 {
			return fmt.Errorf("email is enabled but no recipients are configured")
		}
		if c.Email.FromAddress == "" {
			return fmt.Errorf("email is enabled but from_address is empty")
		}
	}
	return nil
}

// ExpandPaths expands a leading ~ in configured paths.
func (c *Config) ExpandPaths() error {
	expanded, err := expandPath(c.Storage.BaseDir)
	if err != nil {
		return fmt.Errorf("failed to expand storage base_dir: %w", err)
	}
	c.Storage.BaseDir = expanded

	expanded, err = expandPath(c.Collector.InputPath)
	if err != nil {
		return fmt.Errorf("failed to expand collector input_path: %w", err)
	}
	c.Collector.InputPath = expanded

	return nil
}

func expandPath(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path, err
	}

	if len(path) == 1 {
		return home, nil
	}
	return filepath.Join(home, path[1:]), nil
}
