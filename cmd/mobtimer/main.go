// Command mobtimer runs the mob programming turn timer.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/roach88/mobtimer/internal/cli"
)

func main() {
	// Load .env file if it exists (e.g. MOBTIMER_CONFIG)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env file: %v\n", err)
	}

	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
