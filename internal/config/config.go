package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

// Config struct is the top-level configuration structure.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Docstore DocstoreConfig `mapstructure:"docstore"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Progress ProgressConfig `mapstructure:"progress"`
}

type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// DocstoreConfig selects the document-store backend: "memory" keeps
// everything in process, "postgres" uses the documents table.
type DocstoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// WebhookConfig points at the external automation endpoint.
type WebhookConfig struct {
	URL    string `mapstructure:"url"`
	Source string `mapstructure:"source"`
}

type ProgressConfig struct {
	// Window is the number of most recent contributing measurements the
	// rolling average covers.
	Window int `mapstructure:"window"`
	// AbandonAfter is how long an active session may sit idle before the
	// janitor marks it abandoned.
	AbandonAfter time.Duration `mapstructure:"abandon_after"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "change-me")

	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "kneebraced-db")

	v.SetDefault("docstore.driver", "memory")

	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	v.SetDefault("webhook.url", "http://localhost:5678/webhook/knee-braced")
	v.SetDefault("webhook.source", "knee-braced")

	v.SetDefault("progress.window", 10)
	v.SetDefault("progress.abandon_after", 30*time.Minute)
}

// Init initializes the configuration with Viper.
func Init(projectRoot string, log *zap.Logger) error {
	v := viper.New()

	setDefaults(v)

	v.AddConfigPath(filepath.Join(projectRoot, "config"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// e.g. KNEEBRACED_WEBHOOK_URL
	v.SetEnvPrefix("KNEEBRACED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(&Conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	// Set up a watch for configuration changes for hot-reloading
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		if err := v.Unmarshal(&Conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
		}
	})

	log.Info("Configuration loaded successfully")
	return nil
}
