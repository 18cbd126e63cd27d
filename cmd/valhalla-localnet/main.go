// Command valhalla-localnet runs the vault program on an in-process ledger,
// together with the vault indexer and the autopay scheduler.
package main

import (
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.StandardLogger().WithError(err).Debug(".env file not loaded")
	}

	if err := app.Run(newLocalnetApp(clockwork.NewRealClock())); err != nil {
		logrus.StandardLogger().WithError(err).Fatal("error running service")
	}
}
