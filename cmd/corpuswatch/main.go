// Command corpuswatch keeps a derived knowledge corpus in sync with
// directories of documents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/cli"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	configDir, err := file.DefaultDir()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(newBootstrap(configDir))
	return cli.ExecuteContext(ctx)
}
