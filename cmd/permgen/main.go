package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"pkg.jsn.cam/permgen/internal/command"
)

/*generates end-to-end input fixtures for the permutation tree: k <key>, s k <key> and r commands*/

func main() {
	app := command.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Error("permgen failed")
		os.Exit(1)
	}
}
