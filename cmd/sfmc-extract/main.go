package main

import (
	"errors"
	"os"

	"github.com/custodia-labs/sfmc-extract/internal/adapters/driving/cli"
	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/logger"
)

var version = "dev"

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	defer logger.Sync()

	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		if errors.Is(err, domain.ErrInvalidConfig) {
			return exitConfig
		}
		return exitFailed
	}
	return exitOK
}
