package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/stake-plus/govproposals/src/actions"
	"github.com/stake-plus/govproposals/src/config"
	shareddata "github.com/stake-plus/govproposals/src/data"
)

func main() {
	configPath := pflag.StringP("config", "c", config.DefaultPath(), "path to the YAML configuration file")
	migrateOnly := pflag.Bool("migrate-only", false, "create or update the database tables and exit")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if errors.Is(err, config.ErrDefaultWritten) {
		log.Printf("%v", err)
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Use a single DB connection for all modules
	db, err := shareddata.Connect(cfg.Database.Type, cfg.DatabaseSource())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := actions.Migrate(db); err != nil {
		log.Fatalf("db: %v", err)
	}
	if *migrateOnly {
		log.Printf("db: migrations applied")
		return
	}

	if err := shareddata.LoadSettings(db); err != nil {
		log.Fatalf("settings: %v", err)
	}
	cfg.ApplySettings()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	rdb, err := shareddata.NewRedis(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager, err := actions.StartAll(ctx, cfg, db, rdb)
	if err != nil {
		log.Fatalf("actions start: %v", err)
	}

	// Wait for termination
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	manager.Stop(ctx)
}
