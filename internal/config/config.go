package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Judge    JudgeConfig
	Sync     SyncConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Для 'single' берётся первый адрес.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig содержит настройки проверки токенов
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// JudgeConfig содержит настройки клиентов внешних судей
type JudgeConfig struct {
	// CodeforcesBaseURL: базовый адрес API Codeforces.
	CodeforcesBaseURL string `mapstructure:"codeforces_base_url"`

	// AtcoderAPIBaseURL: базовый адрес kenkoooo AtCoder API.
	AtcoderAPIBaseURL string `mapstructure:"atcoder_api_base_url"`

	// VjudgeBaseURL: базовый адрес VJudge.
	VjudgeBaseURL string `mapstructure:"vjudge_base_url"`

	// RequestTimeout: таймаут одного HTTP-запроса к судье (в секундах).
	RequestTimeout int `mapstructure:"request_timeout"`

	// ContestListTTL: время жизни кеша списка контестов AtCoder.
	ContestListTTL time.Duration `mapstructure:"contest_list_ttl"`
}

// SyncConfig содержит настройки синхронизации результатов
type SyncConfig struct {
	// BatchSize: размер пакета при массовой записи solve-статистики.
	BatchSize int `mapstructure:"batch_size"`

	// TxTimeoutSec: лимит длительности одной транзакции пакетной записи.
	TxTimeoutSec int `mapstructure:"tx_timeout_sec"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния

	// Значения по умолчанию для внешних судей и синхронизации
	vip.SetDefault("judge.codeforces_base_url", "https://codeforces.com/api")
	vip.SetDefault("judge.atcoder_api_base_url", "https://kenkoooo.com/atcoder")
	vip.SetDefault("judge.vjudge_base_url", "https://vjudge.net")
	vip.SetDefault("judge.request_timeout", 15)
	vip.SetDefault("judge.contest_list_ttl", time.Hour)
	vip.SetDefault("sync.batch_size", 10)
	vip.SetDefault("sync.tx_timeout_sec", 10)

	// Привязываем переменные окружения ЯВНО
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	vip.BindEnv("judge.codeforces_base_url", "JUDGE_CODEFORCES_BASE_URL")
	vip.BindEnv("judge.atcoder_api_base_url", "JUDGE_ATCODER_API_BASE_URL")
	vip.BindEnv("judge.vjudge_base_url", "JUDGE_VJUDGE_BASE_URL")

	vip.BindEnv("server.port", "SERVER_PORT")

	// Путь к файлу конфигурации (не страшно, если его нет, т.к. есть BindEnv)
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("Codeforces API: %s", cfg.Judge.CodeforcesBaseURL)
		log.Printf("AtCoder API: %s", cfg.Judge.AtcoderAPIBaseURL)
		log.Printf("VJudge: %s", cfg.Judge.VjudgeBaseURL)
		log.Printf("Sync batch size: %d, tx timeout: %ds", cfg.Sync.BatchSize, cfg.Sync.TxTimeoutSec)
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("-----------------------------------------")
	}

	// Проверка обязательных параметров
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if os.Getenv("GIN_MODE") == "release" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("database password is required in production mode (check DATABASE_PASSWORD env var)")
	}

	return &cfg, nil
}
