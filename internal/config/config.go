package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// History drivers.
const (
	HistoryMemory   = "memory"
	HistorySQLite   = "sqlite"
	HistoryPostgres = "postgres"
	HistoryRedis    = "redis"
)

var historyDrivers = []string{HistoryMemory, HistorySQLite, HistoryPostgres, HistoryRedis}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Quiz     QuizConfig     `yaml:"quiz"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	History  HistoryConfig  `yaml:"history"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
	AllowedOrigins  []string      `yaml:"allowed_origins"  env:"SERVER_ALLOWED_ORIGINS"  env-default:"*"`
}

// QuizConfig tunes rounds and selects the question bank.
type QuizConfig struct {
	TimeLimit     time.Duration `yaml:"time_limit"     env:"QUIZ_TIME_LIMIT"     env-default:"60s"`
	QuestionCount int           `yaml:"question_count" env:"QUIZ_QUESTION_COUNT" env-default:"10"`
	BankID        string        `yaml:"bank_id"        env:"QUIZ_BANK_ID"        env-default:"arithmetic"`
	// BankFile, when set, is a YAML/JSON bank document used instead of the built-in bank.
	BankFile string        `yaml:"bank_file" env:"QUIZ_BANK_FILE"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"QUIZ_CACHE_TTL" env-default:"10m"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"     env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"       env:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl"      env:"REDIS_TTL"      env-default:"10m"`
}

type PostgresConfig struct {
	URL string `yaml:"url" env:"POSTGRES_URL"`
}

type HistoryConfig struct {
	Driver     string `yaml:"driver"      env:"HISTORY_DRIVER"      env-default:"memory"`
	SQLitePath string `yaml:"sqlite_path" env:"HISTORY_SQLITE_PATH" env-default:"quiz-history.db"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// Load reads YAML config from path with environment overrides. A missing file
// falls back to environment and defaults.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints the tags cannot express.
func (c Config) Validate() error {
	var errs []error
	driver := strings.ToLower(c.History.Driver)
	if !slices.Contains(historyDrivers, driver) {
		errs = append(errs, fmt.Errorf("history.driver %q must be one of %s", c.History.Driver, strings.Join(historyDrivers, ", ")))
	}
	if driver == HistoryPostgres && c.Postgres.URL == "" {
		errs = append(errs, errors.New("history.driver postgres needs postgres.url"))
	}
	if driver == HistoryRedis && c.Redis.Addr == "" {
		errs = append(errs, errors.New("history.driver redis needs redis.addr"))
	}
	if c.Quiz.TimeLimit <= 0 {
		errs = append(errs, errors.New("quiz.time_limit must be positive"))
	}
	if c.Quiz.QuestionCount <= 0 {
		errs = append(errs, errors.New("quiz.question_count must be positive"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	return errors.Join(errs...)
}
