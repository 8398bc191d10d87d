package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fitsched/internal/database"
)

type Config struct {
	Server struct {
		Port   int    `yaml:"port"`
		APIKey string `yaml:"api_key"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`

	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	GoogleCalendar struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsFile string `yaml:"credentials_file"`
		CalendarID      string `yaml:"calendar_id"`
	} `yaml:"google_calendar"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Booking struct {
		AllowedDurations []int  `yaml:"allowed_durations"`
		DefaultTimezone  string `yaml:"default_timezone"`
	} `yaml:"booking"`

	Notifications struct {
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
		QueueSize     int     `yaml:"queue_size"`
	} `yaml:"notifications"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/fitsched.db"
	}
	if len(c.Booking.AllowedDurations) == 0 {
		c.Booking.AllowedDurations = []int{45, 60}
	}
	if c.Booking.DefaultTimezone == "" {
		c.Booking.DefaultTimezone = "UTC"
	}
	if c.Notifications.RatePerSecond <= 0 {
		c.Notifications.RatePerSecond = 5
	}
	if c.Notifications.Burst <= 0 {
		c.Notifications.Burst = 10
	}
	if c.Notifications.QueueSize <= 0 {
		c.Notifications.QueueSize = 256
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "fitsched:events"
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8081
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}

// BackupConfig converts the backup section for the database backup service.
func (c *Config) BackupConfig() database.BackupConfig {
	return database.BackupConfig{
		Enabled:       c.Backup.Enabled,
		IntervalHours: c.Backup.IntervalHours,
		Path:          c.Backup.Path,
		RetentionDays: c.Backup.RetentionDays,
	}
}
