package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/sqldelete/database"
	"github.com/ridoystarlord/sqldelete/dialect"
)

const DefaultFile = "sqldelete.yaml"

type Config struct {
	Connection database.Config `yaml:"connection"`
	// MaxDepth bounds nested blockers; 0 means unbounded.
	MaxDepth int    `yaml:"max_depth,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`
}

func Default() Config {
	return Config{
		Connection: database.DefaultConfig(),
		LogLevel:   "info",
	}
}

// LoadEnv reads .env into the process environment if present. A missing file
// is not an error.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "reading .env")
	}
	return nil
}

// Load layers defaults, the YAML file at path (when it exists) and the
// environment, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, errors.Wrapf(err, "parsing %s", path)
			}
		case os.IsNotExist(err):
		default:
			return Config{}, errors.Wrapf(err, "reading %s", path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookup("SQLDELETE_DIALECT"); ok {
		d, err := dialect.Parse(v)
		if err != nil {
			return errors.Wrap(err, "SQLDELETE_DIALECT")
		}
		c.Connection.Dialect = d
	}
	if v, ok := lookup("SQLDELETE_SERVER"); ok {
		c.Connection.Server = v
	}
	if v, ok := lookup("SQLDELETE_USER"); ok {
		c.Connection.User = v
	}
	if v, ok := lookup("SQLDELETE_PASSWORD"); ok {
		c.Connection.Password = v
	}
	if v, ok := lookup("SQLDELETE_URL"); ok {
		c.Connection.URL = v
	} else if v, ok := lookup("DATABASE_URL"); ok && c.Connection.URL == "" {
		c.Connection.URL = v
	}
	if v, ok := lookup("SQLDELETE_LOG_LEVEL"); ok {
		c.LogLevel = v
	}

	var err error
	if v, ok := lookup("SQLDELETE_PORT"); ok {
		if c.Connection.Port, err = strconv.Atoi(v); err != nil {
			return errors.Wrap(err, "SQLDELETE_PORT")
		}
	}
	if v, ok := lookup("SQLDELETE_MAX_DEPTH"); ok {
		if c.MaxDepth, err = strconv.Atoi(v); err != nil {
			return errors.Wrap(err, "SQLDELETE_MAX_DEPTH")
		}
	}
	if v, ok := lookup("SQLDELETE_ALLOW_REMOTE"); ok {
		if c.Connection.AllowRemote, err = strconv.ParseBool(v); err != nil {
			return errors.Wrap(err, "SQLDELETE_ALLOW_REMOTE")
		}
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Level maps LogLevel onto slog.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Write saves c as YAML, refusing to overwrite an existing file.
func Write(path string, c Config) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("%s already exists", path)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o600), "writing %s", path)
}
