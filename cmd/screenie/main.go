package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fdecunta/screenie/internal/cli"
	"github.com/fdecunta/screenie/internal/cli/app"
)

var version = "dev"

func main() {
	rootCmd := app.NewRootCmd(version)

	if handled, err := cli.HelpJSON(rootCmd, os.Args[1:]); handled {
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.ErrorLine(err))
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorLine(err))
		os.Exit(1)
	}
}
