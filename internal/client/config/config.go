package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "KENALA"

// Config holds runtime settings for the Kenala CLI and daemon.
type Config struct {
	ServerURL           string        `mapstructure:"server_url"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	OnlineCheckInterval time.Duration `mapstructure:"online_check_interval"`

	DatabaseDriver string `mapstructure:"database_driver"`
	DatabaseDSN    string `mapstructure:"database_dsn"`

	LogLevel      string `mapstructure:"log_level"`
	LogFormat     string `mapstructure:"log_format"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`

	MetricsAddr string `mapstructure:"metrics_addr"`
	NATSURL     string `mapstructure:"nats_url"`
	NATSSubject string `mapstructure:"nats_subject"`
	TrackingURL string `mapstructure:"tracking_url"`

	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3Region    string `mapstructure:"s3_region"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3PublicURL string `mapstructure:"s3_public_url"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3000"
	c.RequestTimeout = 15 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = filepath.Join(DataDir(), "kenala.db")
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.LogMaxSizeMB = 10
	c.LogMaxBackups = 3
	c.LogMaxAgeDays = 28
	c.MetricsAddr = "127.0.0.1:9464"
	c.NATSSubject = "kenala.push"
	c.S3Region = "us-east-1"
}

// DataDir is where the client keeps its database when no DSN is configured.
func DataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "kenala")
}

// RegisterFlags adds the configuration flags to fs. The flag defaults are
// informational; LoadDefaults is the source of default values.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP("config", "c", "", "path to a config file (json, yaml or toml)")
	fs.StringP("server-url", "a", d.ServerURL, "base URL of the Kenala API")
	fs.Duration("request-timeout", d.RequestTimeout, "timeout of a single API request")
	fs.DurationP("online-check-interval", "i", d.OnlineCheckInterval, "how often the daemon probes the server")
	fs.String("database-driver", d.DatabaseDriver, "local store backend: sqlite or postgres")
	fs.String("database-dsn", d.DatabaseDSN, "local store DSN (file path for sqlite)")
	fs.String("log-level", d.LogLevel, "debug, info, warn or error")
	fs.String("log-format", d.LogFormat, "text or json")
	fs.String("log-file", "", "write logs to a rotated file instead of stderr")
	fs.String("metrics-addr", d.MetricsAddr, "daemon metrics and health listen address")
	fs.String("nats-url", "", "NATS server that delivers push messages")
	fs.String("nats-subject", d.NATSSubject, "NATS subject carrying push messages")
	fs.String("tracking-url", "", "websocket URL for live location tracking")
}

func defaults(v *viper.Viper) {
	var d Config
	d.LoadDefaults()

	v.SetDefault("server_url", d.ServerURL)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("online_check_interval", d.OnlineCheckInterval)
	v.SetDefault("database_driver", d.DatabaseDriver)
	v.SetDefault("database_dsn", d.DatabaseDSN)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("log_max_size_mb", d.LogMaxSizeMB)
	v.SetDefault("log_max_backups", d.LogMaxBackups)
	v.SetDefault("log_max_age_days", d.LogMaxAgeDays)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("nats_url", d.NATSURL)
	v.SetDefault("nats_subject", d.NATSSubject)
	v.SetDefault("tracking_url", d.TrackingURL)
	v.SetDefault("s3_endpoint", d.S3Endpoint)
	v.SetDefault("s3_region", d.S3Region)
	v.SetDefault("s3_bucket", d.S3Bucket)
	v.SetDefault("s3_access_key", d.S3AccessKey)
	v.SetDefault("s3_secret_key", d.S3SecretKey)
	v.SetDefault("s3_public_url", d.S3PublicURL)
}

// LoadConfig builds a Config from defaults, the optional --config file, the
// environment and the flags in fs. fs may be nil.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		var bindErr error
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" {
				return
			}
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil {
				bindErr = errors.Join(bindErr, err)
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}

		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database_driver must be sqlite or postgres, got %q", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return errors.New("database_dsn must not be empty")
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server_url must be an http(s) URL, got %q", c.ServerURL)
	}
	if c.RequestTimeout <= 0 || c.OnlineCheckInterval <= 0 {
		return errors.New("request_timeout and online_check_interval must be positive")
	}
	return nil
}
