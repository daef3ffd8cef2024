package main

import (
	"fmt"
	"os"

	"github.com/himakhaitan/redislens/cli"
	"github.com/himakhaitan/redislens/pkg/config"
	"go.uber.org/fx"
)

func main() {
	var cliInstance *cli.CLI

	app := fx.New(
		fx.NopLogger, // Disable fx logs
		config.Module(),
		cli.Module,
		fx.Populate(&cliInstance),
	)

	// A broken config file or environment fails here, before any command runs
	if err := app.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cliInstance.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
