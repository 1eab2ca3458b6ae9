package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Storage
		Fulltext
		Tasks
		Reindex
		Citations
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Storage struct {
		// Dir is the root under which imported attachment files are kept,
		// one subdirectory per attachment key.
		Dir string
	}
	Fulltext struct {
		Enabled bool
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Reindex struct {
		Enabled  bool
		Schedule string // Cron format: "*/30 * * * *" = every 30 minutes
	}
	Citations struct {
		DefaultStyle  string
		DefaultLocale string
		// ClipboardCommand receives the plain flavor on stdin ("pbcopy",
		// "xclip -selection clipboard"). Empty disables the command sink.
		ClipboardCommand string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

const DefaultDatabasePath = "./refbase.db"

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("storage_dir", "./storage")
	v.SetDefault("fulltext_enabled", true)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Reindex sweep defaults
	v.SetDefault("reindex_enabled", true)
	v.SetDefault("reindex_schedule", "*/30 * * * *")

	// Citation defaults
	v.SetDefault("citation_style", "author-date")
	v.SetDefault("citation_locale", "en-US")
	v.SetDefault("clipboard_command", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Storage: Storage{
			Dir: v.GetString("STORAGE_DIR"),
		},
		Fulltext: Fulltext{
			Enabled: v.GetBool("FULLTEXT_ENABLED"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Reindex: Reindex{
			Enabled:  v.GetBool("REINDEX_ENABLED"),
			Schedule: v.GetString("REINDEX_SCHEDULE"),
		},
		Citations: Citations{
			DefaultStyle:     v.GetString("CITATION_STYLE"),
			DefaultLocale:    v.GetString("CITATION_LOCALE"),
			ClipboardCommand: v.GetString("CLIPBOARD_COMMAND"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
