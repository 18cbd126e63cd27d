// Package pg contains the shared postgres plumbing of the data stores.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
	"github.com/pkg/errors"

	"github.com/valhalla-so/valhalla-server/pkg/retry"
	"github.com/valhalla-so/valhalla-server/pkg/retry/backoff"
)

// DriverName is the database/sql driver used for all connections. It wraps
// pgx with New Relic datastore segments.
const DriverName = "nrpgx"

type Config struct {
	User               string `mapstructure:"user"`
	Host               string `mapstructure:"host"`
	Password           string `mapstructure:"password"`
	Port               int    `mapstructure:"port"`
	DbName             string `mapstructure:"db_name"`
	SslMode            string `mapstructure:"ssl_mode"`
	MaxOpenConnections int    `mapstructure:"max_open_connections"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections"`
}

// DSN returns the connection string for the config
func (c *Config) DSN() string {
	sslMode := c.SslMode
	if len(sslMode) == 0 {
		sslMode = "disable"
	}

	port := c.Port
	if port == 0 {
		port = 5432
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, port),
		Path:     c.DbName,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// New opens a connection pool for the config and waits for the database to
// accept connections.
func New(ctx context.Context, config *Config) (*sql.DB, error) {
	db, err := sql.Open(DriverName, config.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "error opening db")
	}

	if config.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(config.MaxOpenConnections)
	}
	if config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(config.MaxIdleConnections)
	}

	_, err = retry.Retry(
		func() error {
			return db.PingContext(ctx)
		},
		retry.UntilDone(ctx),
		retry.Limit(10),
		retry.Backoff(backoff.BinaryExponential(100*time.Millisecond), 5*time.Second),
	)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "error connecting to db")
	}

	return db, nil
}

// NewWithUsernameAndPassword opens a connection pool with password based
// authentication and default pool sizes.
func NewWithUsernameAndPassword(username, password, hostname string, port int, dbname string) (*sql.DB, error) {
	return New(context.Background(), &Config{
		User:     username,
		Password: password,
		Host:     hostname,
		Port:     port,
		DbName:   dbname,
	})
}
