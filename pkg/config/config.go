package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Matching     MatchingConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Matching.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MESA_APP_ENV" required:"true"`
	Port         string `envconfig:"MESA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MESA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MESA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MESA_DB_DSN"`
	Driver string `envconfig:"MESA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MESA_DB_HOST"`
	LegacyPort     int    `envconfig:"MESA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MESA_DB_USER"`
	LegacyPassword string `envconfig:"MESA_DB_PASSWORD"`
	LegacyName     string `envconfig:"MESA_DB_NAME"`
	LegacySSLMode  string `envconfig:"MESA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MESA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MESA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MESA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MESA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// MatchingConfig tunes the receipt line auto-match pipeline. The search threshold is
// deliberately permissive: candidate search optimizes for recall and the decision step
// filters afterwards.
type MatchingConfig struct {
	SearchThreshold      float64 `envconfig:"MESA_MATCH_SEARCH_THRESHOLD" default:"0.2"`
	SearchLimit          int     `envconfig:"MESA_MATCH_SEARCH_LIMIT" default:"10"`
	AcceptScore          float64 `envconfig:"MESA_MATCH_ACCEPT_SCORE" default:"0.75"`
	VerySimilarThreshold float64 `envconfig:"MESA_MATCH_VERY_SIMILAR_THRESHOLD" default:"0.85"`
}

func (m MatchingConfig) validate() error {
	if m.SearchThreshold < 0 || m.SearchThreshold > 1 {
		return fmt.Errorf("%s must be between 0 and 1", EnvMatchSearchThreshold)
	}
	if m.AcceptScore < 0 || m.AcceptScore > 1 {
		return fmt.Errorf("%s must be between 0 and 1", EnvMatchAcceptScore)
	}
	if m.VerySimilarThreshold < 0 || m.VerySimilarThreshold > 1 {
		return fmt.Errorf("%s must be between 0 and 1", EnvMatchVerySimilarThreshold)
	}
	if m.SearchLimit <= 0 {
		return fmt.Errorf("%s must be positive", EnvMatchSearchLimit)
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MESA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
