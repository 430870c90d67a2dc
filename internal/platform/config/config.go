package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "SACREDSOUND"

type Config struct {
	DataDir        string
	DBPath         string
	AppEnv         string
	APIBaseURL     string
	APITimeout     time.Duration
	Offline        bool
	MaxSyncAttempt int
	DrainInterval  time.Duration
	ProbeInterval  time.Duration
	LogMode        string
	RedisAddr      string
	RedisChannel   string
	Timezone       string
	Backup         BackupConfig
}

// BackupConfig points at an optional S3-compatible bucket for off-device
// backups. An empty bucket disables the archive.
type BackupConfig struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PathStyle bool
}

// New returns the built-in defaults rooted at dataDir.
func New(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	return Config{
		DataDir:        dataDir,
		DBPath:         filepath.Join(dataDir, ".sacredsound", "sacredsound.db"),
		AppEnv:         "development",
		APITimeout:     10 * time.Second,
		MaxSyncAttempt: 25,
		DrainInterval:  time.Minute,
		ProbeInterval:  30 * time.Second,
		LogMode:        "quiet",
		RedisChannel:   "sacredsound-events",
		Timezone:       "Local",
	}, nil
}

// Load layers a .env file, SACREDSOUND_* environment variables and an optional
// config.yaml in the data dir over the defaults.
func Load(dataDir string) (Config, error) {
	cfg, err := New(dataDir)
	if err != nil {
		return Config{}, err
	}
	_ = godotenv.Load(filepath.Join(dataDir, ".env"))

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)
	v.AddConfigPath(filepath.Join(dataDir, ".sacredsound"))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("app.env", cfg.AppEnv)
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout", cfg.APITimeout)
	v.SetDefault("sync.offline", false)
	v.SetDefault("sync.max_attempts", cfg.MaxSyncAttempt)
	v.SetDefault("sync.drain_interval", cfg.DrainInterval)
	v.SetDefault("sync.probe_interval", cfg.ProbeInterval)
	v.SetDefault("log.mode", cfg.LogMode)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.channel", cfg.RedisChannel)
	v.SetDefault("timezone", cfg.Timezone)
	v.SetDefault("backup.bucket", "")
	v.SetDefault("backup.prefix", "")
	v.SetDefault("backup.region", "")
	v.SetDefault("backup.endpoint", "")
	v.SetDefault("backup.access_key", "")
	v.SetDefault("backup.secret_key", "")
	v.SetDefault("backup.path_style", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.DBPath = v.GetString("db_path")
	cfg.AppEnv = v.GetString("app.env")
	cfg.APIBaseURL = v.GetString("api.base_url")
	cfg.APITimeout = v.GetDuration("api.timeout")
	cfg.Offline = v.GetBool("sync.offline")
	cfg.MaxSyncAttempt = v.GetInt("sync.max_attempts")
	cfg.DrainInterval = v.GetDuration("sync.drain_interval")
	cfg.ProbeInterval = v.GetDuration("sync.probe_interval")
	cfg.LogMode = v.GetString("log.mode")
	cfg.RedisAddr = v.GetString("redis.addr")
	cfg.RedisChannel = v.GetString("redis.channel")
	cfg.Timezone = v.GetString("timezone")
	cfg.Backup = BackupConfig{
		Bucket:    v.GetString("backup.bucket"),
		Prefix:    v.GetString("backup.prefix"),
		Region:    v.GetString("backup.region"),
		Endpoint:  v.GetString("backup.endpoint"),
		AccessKey: v.GetString("backup.access_key"),
		SecretKey: v.GetString("backup.secret_key"),
		PathStyle: v.GetBool("backup.path_style"),
	}

	if cfg.MaxSyncAttempt < 0 {
		return Config{}, fmt.Errorf("sync.max_attempts must be >= 0")
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves the configured time zone used for calendar-day math.
func (c Config) Location() (*time.Location, error) {
	switch strings.TrimSpace(c.Timezone) {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
