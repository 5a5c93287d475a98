package common

import "time"

type StorageBackend string

const (
	StorageMemory   = StorageBackend("memory")
	StoragePostgres = StorageBackend("postgres")
	StorageCosmos   = StorageBackend("cosmos")
)

type Config struct {
	AppPrefix      string         `env:"APP_PREFIX" envDefault:"spending-dashboard"`
	StorageBackend StorageBackend `env:"STORAGE_BACKEND" envDefault:"memory"`

	PostgresConnectionString string `env:"POSTGRES_CONNECTION_STRING"`
	CosmoConnectionString    string `env:"COSMO_DB_CONNECTION_STRING"`
	CosmoEndpoint            string `env:"COSMO_DB_ENDPOINT"`
	CosmoDbName              string `env:"COSMO_DB_NAME" envDefault:"spending_dashboard"`

	FilterFlushInterval time.Duration `env:"FILTER_FLUSH_INTERVAL" envDefault:"300ms"`
	SessionMaxAgeDays   int           `env:"SESSION_MAX_AGE_DAYS" envDefault:"30"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`

	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	ApiKey     string `env:"API_KEY"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}
