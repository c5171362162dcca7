package main

import (
	"fmt"
	"os"

	"github.com/wardenhq/warden/internal/auth/app"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "auth:", err)
		os.Exit(1)
	}
}

func run() error {
	a, err := app.New(app.LoadConfig())
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	return a.Run()
}
