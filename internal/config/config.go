package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Status   StatusConfig
	Confirm  ConfirmConfig
	Import   ImportConfig
	Notify   NotifyConfig
	Log      LogConfig
}

type AppConfig struct {
	Version string
}

type ServerConfig struct {
	Host            string
	Port            int
	Mode            string // debug, release, test
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	SQLitePath string
}

// StatusConfig selects where import job records live. They are kept apart
// from the ledger tables so a restore never touches them.
type StatusConfig struct {
	Backend    string // sqlite, badger
	SQLitePath string
	BadgerPath string
}

type ConfirmConfig struct {
	Secret string
	TTL    time.Duration
}

type ImportConfig struct {
	Exclusive     bool // reject a new import while another is pending
	Workers       int
	QueueSize     int
	MaxUploadMB   int64
	RatePerMinute int
	RateBurst     int
	Retention     time.Duration
	SweepInterval time.Duration
	HistoryWindow time.Duration
}

type NotifyConfig struct {
	WebhookURL       string
	Timeout          time.Duration
	BreakerFailures  uint32
	BreakerOpenDelay time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json, console
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	// Environment variables: LEDGER_SERVER_PORT, LEDGER_IMPORT_WORKERS, ...
	viper.SetEnvPrefix("ledger")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return fromViper(), nil
}

func setDefaults() {
	viper.SetDefault("app.version", "dev")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.shutdown_timeout_seconds", 15)

	viper.SetDefault("database.sqlite_path", "./ledger.db")

	viper.SetDefault("status.backend", "sqlite")
	viper.SetDefault("status.sqlite_path", "./import_status.db")
	viper.SetDefault("status.badger_path", "./import_status")

	viper.SetDefault("confirm.secret", "change-this-secret-in-production")
	viper.SetDefault("confirm.ttl_minutes", 5)

	viper.SetDefault("import.exclusive", true)
	viper.SetDefault("import.workers", 2)
	viper.SetDefault("import.queue_size", 8)
	viper.SetDefault("import.max_upload_mb", 64)
	viper.SetDefault("import.rate_per_minute", 6)
	viper.SetDefault("import.rate_burst", 2)
	viper.SetDefault("import.retention_hours", 7*24)
	viper.SetDefault("import.sweep_interval_hours", 7*24)
	viper.SetDefault("import.history_window_hours", 24)

	viper.SetDefault("notify.webhook_url", "")
	viper.SetDefault("notify.timeout_seconds", 10)
	viper.SetDefault("notify.breaker_failures", 3)
	viper.SetDefault("notify.breaker_open_seconds", 60)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

func fromViper() *Config {
	return &Config{
		App: AppConfig{
			Version: viper.GetString("app.version"),
		},
		Server: ServerConfig{
			Host:            viper.GetString("server.host"),
			Port:            viper.GetInt("server.port"),
			Mode:            viper.GetString("server.mode"),
			ShutdownTimeout: time.Duration(viper.GetInt("server.shutdown_timeout_seconds")) * time.Second,
		},
		Database: DatabaseConfig{
			SQLitePath: viper.GetString("database.sqlite_path"),
		},
		Status: StatusConfig{
			Backend:    strings.ToLower(viper.GetString("status.backend")),
			SQLitePath: viper.GetString("status.sqlite_path"),
			BadgerPath: viper.GetString("status.badger_path"),
		},
		Confirm: ConfirmConfig{
			Secret: viper.GetString("confirm.secret"),
			TTL:    time.Duration(viper.GetInt("confirm.ttl_minutes")) * time.Minute,
		},
		Import: ImportConfig{
			Exclusive:     viper.GetBool("import.exclusive"),
			Workers:       viper.GetInt("import.workers"),
			QueueSize:     viper.GetInt("import.queue_size"),
			MaxUploadMB:   viper.GetInt64("import.max_upload_mb"),
			RatePerMinute: viper.GetInt("import.rate_per_minute"),
			RateBurst:     viper.GetInt("import.rate_burst"),
			Retention:     time.Duration(viper.GetInt("import.retention_hours")) * time.Hour,
			SweepInterval: time.Duration(viper.GetInt("import.sweep_interval_hours")) * time.Hour,
			HistoryWindow: time.Duration(viper.GetInt("import.history_window_hours")) * time.Hour,
		},
		Notify: NotifyConfig{
			WebhookURL:       viper.GetString("notify.webhook_url"),
			Timeout:          time.Duration(viper.GetInt("notify.timeout_seconds")) * time.Second,
			BreakerFailures:  viper.GetUint32("notify.breaker_failures"),
			BreakerOpenDelay: time.Duration(viper.GetInt("notify.breaker_open_seconds")) * time.Second,
		},
		Log: LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
	}
}
