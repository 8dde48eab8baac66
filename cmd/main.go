package main

import (
	"log/slog"
	"os"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if err := newRootCmd(log).Execute(); err != nil {
		os.Exit(1)
	}
}
