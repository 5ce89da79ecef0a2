package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultDSN  = "./dev.db"
	defaultPort = "8080"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	DBDriver       string
	DBDSN          string
	Port           string
	LogLevel       string
	MetricsEnabled bool
	MigrateOnStart bool
}

// Load reads .env from the working directory, then the environment.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom reads the given dotenv file, then the environment. A missing file
// is not an error and variables already set in the environment win.
func LoadFrom(envFile string) (Config, error) {
	_ = godotenv.Load(envFile)

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("app_env", "dev")
	v.SetDefault("db_driver", DriverSQLite)
	v.SetDefault("db_dsn", defaultDSN)
	v.SetDefault("port", defaultPort)
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_enabled", true)
	_ = v.BindEnv("db_dsn", "DB_DSN", "DB_PATH")
	_ = v.BindEnv("migrate_on_start", "MIGRATE_ON_START")

	cfg := Config{
		Env:            v.GetString("app_env"),
		DBDriver:       v.GetString("db_driver"),
		DBDSN:          v.GetString("db_dsn"),
		Port:           v.GetString("port"),
		LogLevel:       v.GetString("log_level"),
		MetricsEnabled: v.GetBool("metrics_enabled"),
	}
	cfg.MigrateOnStart = cfg.IsDev()
	if v.IsSet("migrate_on_start") {
		cfg.MigrateOnStart = v.GetBool("migrate_on_start")
	}

	if cfg.DBDriver != DriverSQLite && cfg.DBDriver != DriverPostgres {
		return cfg, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

// IsDev reports whether the application runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}
