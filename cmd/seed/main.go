package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/seed"
)

func main() {
	cfg, help, err := config.Parse()
	if err != nil {
		if errors.Is(err, config.ErrHelpWanted) {
			fmt.Println(help)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithField("cmd", "seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN, log)
	if err != nil {
		log.WithError(err).Fatal("connect db")
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool, log); err != nil {
		log.WithError(err).Fatal("seed apply")
	}

	log.WithField("items", len(seed.CatalogItems())).Info("seed applied")
}
