package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds gateway configuration.
type Config struct {
	// APIKey is the process-wide secret gating administrative calls.
	APIKey string `mapstructure:"api_key"`
	// Port the HTTP server listens on.
	Port int `mapstructure:"port"`
	// SessionsDir holds one checkpoint file per session.
	SessionsDir string `mapstructure:"sessions_dir"`
	// StoreDir holds the per-session device credential databases.
	StoreDir string `mapstructure:"store_dir"`
	Verbose  bool   `mapstructure:"verbose"`

	QR QRConfig `mapstructure:"qr"`
}

// QRConfig bounds the QR availability poll on /getQrCode.
type QRConfig struct {
	MaxAttempts int    `mapstructure:"max_attempts"`
	Interval    string `mapstructure:"interval"`
}

// PollInterval parses the configured interval, falling back to one
// second when unset or malformed.
func (q QRConfig) PollInterval() time.Duration {
	d, err := time.ParseDuration(q.Interval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// Default returns a Config with default values.
func Default() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".wagate")
	return &Config{
		Port:        3333,
		SessionsDir: filepath.Join(base, "sessions"),
		StoreDir:    filepath.Join(base, "devices"),
		QR: QRConfig{
			MaxAttempts: 5,
			Interval:    "1s",
		},
	}
}

// Load loads configuration from files and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("wagate")
	v.SetConfigType("yaml")

	// Config paths, lowest precedence first.
	v.AddConfigPath("/etc/wagate/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "wagate"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".wagate")
	}
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("WAGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.BindEnv("api_key", "WAGATE_API_KEY")
	v.BindEnv("port", "WAGATE_PORT")
	v.BindEnv("sessions_dir", "WAGATE_SESSIONS_DIR")
	v.BindEnv("store_dir", "WAGATE_STORE_DIR")
	v.BindEnv("verbose", "WAGATE_VERBOSE")

	cfg := Default()
	v.SetDefault("port", cfg.Port)
	v.SetDefault("sessions_dir", cfg.SessionsDir)
	v.SetDefault("store_dir", cfg.StoreDir)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("qr.max_attempts", cfg.QR.MaxAttempts)
	v.SetDefault("qr.interval", cfg.QR.Interval)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found; defaults and environment apply.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
