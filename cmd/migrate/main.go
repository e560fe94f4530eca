// cmd/migrate applies or rolls back the embedded SQL migrations.
// Usage: migrate [up|down|version]
package main

import (
	"fmt"
	"os"
	"time"

	"nexogym/internal/config"
	"nexogym/internal/infra"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	mg, err := infra.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init migrator")
	}
	defer mg.Close()

	switch cmd {
	case "up":
		err = mg.Up()
	case "down":
		err = mg.Down()
	case "version":
		var v uint
		var dirty bool
		v, dirty, err = mg.Version()
		if err == nil {
			fmt.Printf("version=%d dirty=%t\n", v, dirty)
		}
	default:
		fmt.Fprintf(os.Stderr, "usage: migrate [up|down|version]\n")
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("command", cmd).Msg("migration failed")
	}
}
