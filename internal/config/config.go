package config

import (
	"fmt"
	"strings"

	"coffeetour/internal/constants"
	"coffeetour/internal/logger"

	"github.com/spf13/viper"
)

// Config is the application configuration loaded from config.yml.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Posts    PostsConfig    `mapstructure:"posts"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Github   GithubConfig   `mapstructure:"github"`
}

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Mode     string `mapstructure:"mode"` // debug / release
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions converts the log section into logger options.
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type PostsConfig struct {
	Dir string `mapstructure:"dir"`
}

type SyncConfig struct {
	// AutoIntervalHours > 0 enables the periodic sync task in the server.
	AutoIntervalHours int `mapstructure:"auto_interval_hours"`
}

type BackupConfig struct {
	Dir string `mapstructure:"dir"`
}

// GithubConfig points at the published site repository used for backfill.
type GithubConfig struct {
	Repo     string `mapstructure:"repo"`   // owner/name
	Branch   string `mapstructure:"branch"` // usually main
	Token    string `mapstructure:"token"`
	PostsDir string `mapstructure:"posts_dir"`
}

// Load reads config.yml plus environment variables.
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("./etc")

	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", "8081")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.password", "admin")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "coffeetour.log")
	viper.SetDefault("log.max_size_mb", 50)
	viper.SetDefault("log.max_backups", 5)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("database.path", constants.DefaultDatabasePath)
	viper.SetDefault("posts.dir", constants.DefaultPostsDir)
	viper.SetDefault("sync.auto_interval_hours", 0)
	viper.SetDefault("backup.dir", constants.DefaultBackupDir)
	viper.SetDefault("github.repo", "")
	viper.SetDefault("github.branch", "main")
	viper.SetDefault("github.token", "")
	viper.SetDefault("github.posts_dir", constants.DefaultPostsDir)

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("parse config failed: %w", err))
	}

	return &cfg
}
