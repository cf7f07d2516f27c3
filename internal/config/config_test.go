package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

// SetupTest очищает окружение, чтобы переменные машины не влияли на результат.
func (s *ConfigTestSuite) SetupTest() {
	for _, key := range []string{
		"RUN_ADDRESS", "DATABASE_URI", "MIGRATIONS_DIR", "JWT_SECRET", "REDIS_ADDR", "AMQP_URL",
		"AMQP_EXCHANGE", "ADMIN_USERNAME", "RECONCILE_INTERVAL", "RECONCILE_GRACE",
	} {
		s.T().Setenv(key, "")
	}
}

func (s *ConfigTestSuite) TestFlagsAndDefaults() {
	conf, err := loadConfig([]string{"-d", "postgres://flag", "-j", "flag-secret"})
	s.Require().NoError(err)

	s.Equal("postgres://flag", conf.DatabaseDSN)
	s.Equal("flag-secret", conf.JWTSecret)
	s.Equal(DefaultRunAddress, conf.RunAddress)
	s.Equal(DefaultMigrationsDir, conf.MigrationsDir)
	s.Equal(DefaultAMQPExchange, conf.AMQPExchange)
	s.Equal(DefaultReconcileInterval, conf.ReconcileInterval)
	s.Equal(DefaultReconcileGrace, conf.ReconcileGrace)
	s.Empty(conf.RedisAddr)
}

func (s *ConfigTestSuite) TestEnvWinsOverFlags() {
	s.T().Setenv("DATABASE_URI", "postgres://env")
	s.T().Setenv("JWT_SECRET", "env-secret")
	s.T().Setenv("REDIS_ADDR", "redis:6379")
	s.T().Setenv("RECONCILE_GRACE", "5m")
	s.T().Setenv("ADMIN_USERNAME", "owner")

	conf, err := loadConfig([]string{"-d", "postgres://flag", "-r", "localhost:6379"})
	s.Require().NoError(err)

	s.Equal("postgres://env", conf.DatabaseDSN)
	s.Equal("env-secret", conf.JWTSecret)
	s.Equal("redis:6379", conf.RedisAddr)
	s.Equal(5*time.Minute, conf.ReconcileGrace)
	s.Equal("owner", conf.AdminUsername)
}

func (s *ConfigTestSuite) TestRequiredValues() {
	_, err := loadConfig([]string{"-j", "secret"})
	s.Require().ErrorContains(err, "database DSN")

	_, err = loadConfig([]string{"-d", "postgres://flag"})
	s.Require().ErrorContains(err, "jwt secret")
}

func (s *ConfigTestSuite) TestSecretsAreHidden() {
	conf, err := loadConfig([]string{"-d", "postgres://user:pass@db", "-j", "top-secret"})
	s.Require().NoError(err)

	s.NotContains(conf.String(), "top-secret")
	s.NotContains(conf.String(), "pass@db")
}
