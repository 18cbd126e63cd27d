// Package test starts throwaway postgres containers for store tests.
package test

import (
	"database/sql"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	pg "github.com/valhalla-so/valhalla-server/pkg/database/postgres"
	"github.com/valhalla-so/valhalla-server/pkg/retry"
	"github.com/valhalla-so/valhalla-server/pkg/retry/backoff"
)

const (
	containerName     = "postgres"
	containerVersion  = "15-alpine"
	containerAutoKill = 120 * time.Second

	user     = "localtest"
	password = "localpassword"
	dbname   = "testdb"
)

// StartPostgresDB starts a Docker container using the postgres image and
// returns a client connected to it. closeFunc purges the container.
func StartPostgresDB(pool *dockertest.Pool) (db *sql.DB, closeFunc func(), err error) {
	closeFunc = func() {}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: containerName,
		Tag:        containerVersion,
		Env: []string{
			"listen_addresses = '*'",
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, closeFunc, errors.Wrapf(err, "failed to start resource")
	}

	closeFunc = func() {
		if err := pool.Purge(resource); err != nil {
			logrus.StandardLogger().WithError(err).Warn("failure purging postgres container")
		}
	}

	// Expire never returns an error
	_ = resource.Expire(uint(containerAutoKill.Seconds()))

	port, err := strconv.Atoi(resource.GetPort("5432/tcp"))
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "invalid container port")
	}

	config := &pg.Config{
		User:     user,
		Password: password,
		Host:     "localhost",
		Port:     port,
		DbName:   dbname,
	}

	_, err = retry.Retry(
		func() error {
			db, err = sql.Open("pgx", config.DSN())
			if err != nil {
				return err
			}
			return db.Ping()
		},
		retry.Limit(50),
		retry.Backoff(backoff.Constant(500*time.Millisecond), 500*time.Millisecond),
	)
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for postgres container to become available")
	}

	return db, closeFunc, nil
}
