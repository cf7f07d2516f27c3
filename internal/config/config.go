package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DefaultRunAddress        = "localhost:8080"
	DefaultMigrationsDir     = "internal/db/migrations"
	DefaultAMQPExchange      = "cafe.ledger"
	DefaultReconcileInterval = 30 * time.Second
	DefaultReconcileGrace    = 2 * time.Minute
)

type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseDSN   string `env:"DATABASE_URI"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`
	JWTSecret     string `env:"JWT_SECRET"`
	RedisAddr     string `env:"REDIS_ADDR"`
	AMQPURL       string `env:"AMQP_URL"`

	AMQPExchange string `env:"AMQP_EXCHANGE"`

	ShopkeeperUsername string `env:"SHOPKEEPER_USERNAME"`
	ShopkeeperPassword string `env:"SHOPKEEPER_PASSWORD"`
	AdminUsername      string `env:"ADMIN_USERNAME"`
	AdminPassword      string `env:"ADMIN_PASSWORD"`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL"`
	ReconcileGrace    time.Duration `env:"RECONCILE_GRACE"`
}

// String скрывает секреты при выводе конфигурации в лог.
func (c Config) String() string {
	return fmt.Sprintf(
		"{RunAddress:%s MigrationsDir:%s RedisEnabled:%t AMQPEnabled:%t AMQPExchange:%s "+
			"ReconcileInterval:%s ReconcileGrace:%s}",
		c.RunAddress, c.MigrationsDir, c.RedisAddr != "", c.AMQPURL != "", c.AMQPExchange,
		c.ReconcileInterval, c.ReconcileGrace,
	)
}

// LoadConfig читает конфигурацию из .env (если есть), переменных окружения и флагов командной строки.
// Непустая переменная окружения важнее флага.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %s", err.Error())
	}
	return loadConfig(os.Args[1:])
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadConfig(args []string) (*Config, error) {
	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	if flagsErr := loadFlags(&flagsConfig, args); flagsErr != nil {
		return nil, fmt.Errorf("parse flags: %s", flagsErr.Error())
	}

	conf := mergeConfig(&envConfig, &flagsConfig)
	if conf.DatabaseDSN == "" {
		return nil, errors.New("database DSN is not set")
	}
	if conf.JWTSecret == "" {
		return nil, errors.New("jwt secret is not set")
	}
	return conf, nil
}

func loadFlags(flagConfig *Config, args []string) error {
	fs := flag.NewFlagSet("cafepos", flag.ContinueOnError)
	fs.StringVar(&flagConfig.RunAddress, "a", DefaultRunAddress, "Run address in format host:port")
	fs.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	fs.StringVar(&flagConfig.MigrationsDir, "m", DefaultMigrationsDir, "Database migrations directory")
	fs.StringVar(&flagConfig.JWTSecret, "j", "", "Secret for staff session tokens")
	fs.StringVar(&flagConfig.RedisAddr, "r", "", "Redis address for the member lock, empty - in-process lock")
	fs.StringVar(&flagConfig.AMQPURL, "q", "", "AMQP url for ledger events, empty - events are not published")

	return fs.Parse(args) //nolint:wrapcheck
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	return &Config{
		RunAddress:         defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress),
		DatabaseDSN:        defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		MigrationsDir:      defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir),
		JWTSecret:          defaultIfBlank(envConfig.JWTSecret, flagsConfig.JWTSecret),
		RedisAddr:          defaultIfBlank(envConfig.RedisAddr, flagsConfig.RedisAddr),
		AMQPURL:            defaultIfBlank(envConfig.AMQPURL, flagsConfig.AMQPURL),
		AMQPExchange:       defaultIfBlank(envConfig.AMQPExchange, DefaultAMQPExchange),
		ShopkeeperUsername: envConfig.ShopkeeperUsername,
		ShopkeeperPassword: envConfig.ShopkeeperPassword,
		AdminUsername:      envConfig.AdminUsername,
		AdminPassword:      envConfig.AdminPassword,
		ReconcileInterval:  defaultIfZero(envConfig.ReconcileInterval, DefaultReconcileInterval),
		ReconcileGrace:     defaultIfZero(envConfig.ReconcileGrace, DefaultReconcileGrace),
	}
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func defaultIfZero(value, defaultValue time.Duration) time.Duration {
	if value <= 0 {
		return defaultValue
	}
	return value
}
