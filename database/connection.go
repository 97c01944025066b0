package database

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/ridoystarlord/sqldelete/dialect"
)

// ErrRemoteServer guards against running destructive deletes on a shared
// server by accident.
var ErrRemoteServer = errors.New("refusing to run against a non-local server")

// Config addresses a single database server. The database itself is chosen
// per statement.
type Config struct {
	Dialect dialect.Dialect `yaml:"dialect"`
	// Server is host[\instance] for SQL Server or host for PostgreSQL.
	Server   string `yaml:"server"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	// URL overrides Server/Port/User/Password. Its database is replaced by
	// the target database.
	URL         string `yaml:"url,omitempty"`
	AllowRemote bool   `yaml:"allow_remote,omitempty"`
}

const appName = "sqldelete"

// DefaultConfig is the local SQL Server Express instance with integrated
// security.
func DefaultConfig() Config {
	return Config{
		Dialect: dialect.MSSQL,
		Server:  `localhost\sqlexpress`,
	}
}

// Host is the network host the config points at.
func (c Config) Host() string {
	if c.URL != "" {
		if u, err := url.Parse(c.URL); err == nil {
			return u.Hostname()
		}
	}
	host, _, _ := strings.Cut(c.Server, `\`)
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// Validate rejects configs that would reach a non-local server unless
// AllowRemote is set.
func (c Config) Validate() error {
	if c.Server == "" && c.URL == "" {
		return errors.New("no server configured")
	}
	if c.URL != "" {
		if _, err := url.Parse(c.URL); err != nil {
			return errors.Wrap(err, "parsing connection url")
		}
	}
	if c.AllowRemote || isLocal(c.Host()) {
		return nil
	}
	return errors.Wrapf(ErrRemoteServer, "host %q (set allow_remote to override)", c.Host())
}

func isLocal(host string) bool {
	switch strings.ToLower(host) {
	case "", ".", "(local)", "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// DSN builds the connection string for database.
func (c Config) DSN(database string) (string, error) {
	if c.URL != "" {
		return c.urlDSN(database)
	}

	switch c.Dialect {
	case dialect.Postgres:
		u := &url.URL{Scheme: "postgres", Host: c.hostPort(5432), Path: "/" + database}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		q := url.Values{}
		q.Set("application_name", appName)
		q.Set("statement_timeout", "0")
		u.RawQuery = q.Encode()
		return u.String(), nil
	default:
		host, instance, _ := strings.Cut(c.Server, `\`)
		if c.Port != 0 {
			host = net.JoinHostPort(host, strconv.Itoa(c.Port))
		}
		u := &url.URL{Scheme: "sqlserver", Host: host, Path: instance}
		if c.User != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		q := url.Values{}
		q.Set("database", database)
		q.Set("app name", appName)
		u.RawQuery = q.Encode()
		return u.String(), nil
	}
}

// hostPort ignores a SQL Server instance name left over from the default
// server.
func (c Config) hostPort(defaultPort int) string {
	host, _, _ := strings.Cut(c.Server, `\`)
	port := c.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (c Config) urlDSN(database string) (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", errors.Wrap(err, "parsing connection url")
	}
	switch c.Dialect {
	case dialect.Postgres:
		u.Path = "/" + database
	default:
		q := u.Query()
		q.Set("database", database)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
