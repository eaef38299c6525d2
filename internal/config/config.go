package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// The services run as pods with connection settings injected as environment
// variables. A local .env file is honored for development and never
// overrides variables that are already set.

type Config struct {
	DBHost             string `mapstructure:"DB_HOST"`
	DBPort             string `mapstructure:"DB_PORT"`
	DBUser             string `mapstructure:"DB_USER"`
	DBPassword         string `mapstructure:"DB_PASSWORD"`
	DBName             string `mapstructure:"DB_NAME"`
	ServerPort         string `mapstructure:"SERVER_PORT"`
	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSEndpoint        string `mapstructure:"AWS_ENDPOINT"`
	ImportSQSQueueURL  string `mapstructure:"IMPORT_SQS_QUEUE_URL"`
	PayrollSQSQueueURL string `mapstructure:"PAYROLL_SQS_QUEUE_URL"`
	LegacyPayrollURL   string `mapstructure:"LEGACY_PAYROLL_API_URL"`
	OTelEndpoint       string `mapstructure:"OTEL_EXPORTER_ENDPOINT"`
	IsLocalDev         bool   `mapstructure:"IS_LOCAL_DEV"`
	WorkerConcurrency  int    `mapstructure:"WORKER_CONCURRENCY"`
	ImportChunkSize    int    `mapstructure:"IMPORT_CHUNK_SIZE"`
	GridConcurrency    int    `mapstructure:"GRID_CONCURRENCY"`
}

var defaults = map[string]any{
	"DB_HOST":                "db",
	"DB_PORT":                "5432",
	"DB_USER":                "user",
	"DB_PASSWORD":            "password",
	"DB_NAME":                "attendance_db",
	"SERVER_PORT":            "8080",
	"AWS_REGION":             "us-east-1",
	"AWS_ENDPOINT":           "http://localstack:4566",
	"IMPORT_SQS_QUEUE_URL":   "http://localstack:4566/000000000000/punch-import-queue",
	"PAYROLL_SQS_QUEUE_URL":  "http://localstack:4566/000000000000/payroll-sync-queue",
	"LEGACY_PAYROLL_API_URL": "http://localhost:8081/",
	"OTEL_EXPORTER_ENDPOINT": "jaeger:4317",
	"IS_LOCAL_DEV":           false,
	"WORKER_CONCURRENCY":     10,
	"IMPORT_CHUNK_SIZE":      500,
	"GRID_CONCURRENCY":       8,
}

// LoadConfig reads configuration from a .env file (if any) and the environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment only")
	}
	return load()
}

func load() (config Config, err error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Read in environment variables that match the keys. A variable set to
	// the empty string counts as set, which is how tracing falls back to
	// stdout.
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return config, config.Validate()
}

// Validate rejects settings the services cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.DBHost == "" || c.DBName == "" {
		errs = append(errs, errors.New("DB_HOST and DB_NAME are required"))
	}
	if c.ServerPort == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	for _, setting := range [][2]string{
		{"IMPORT_SQS_QUEUE_URL", c.ImportSQSQueueURL},
		{"PAYROLL_SQS_QUEUE_URL", c.PayrollSQSQueueURL},
		{"LEGACY_PAYROLL_API_URL", c.LegacyPayrollURL},
	} {
		if u, err := url.Parse(setting[1]); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", setting[0], setting[1]))
		}
	}
	if c.WorkerConcurrency < 1 {
		errs = append(errs, errors.New("WORKER_CONCURRENCY must be positive"))
	}
	if c.ImportChunkSize < 1 {
		errs = append(errs, errors.New("IMPORT_CHUNK_SIZE must be positive"))
	}
	if c.GridConcurrency < 1 {
		errs = append(errs, errors.New("GRID_CONCURRENCY must be positive"))
	}
	return errors.Join(errs...)
}

// DSN is the Postgres connection URL.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
