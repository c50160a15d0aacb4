package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"sudosos.org/internal/config"
	"sudosos.org/internal/migrate"
	"sudosos.org/internal/store/pg"
)

func main() {
	var (
		up     = flag.Bool("up", false, "apply pending migrations")
		down   = flag.Bool("down", false, "roll back the last migration")
		seed   = flag.Bool("seed", false, "apply seed files")
		status = flag.Bool("status", false, "print applied migrations")
	)
	flag.Parse()

	if !*up && !*down && !*seed && !*status {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.PostgresDSN == "" {
		fatal("SUDOSOS_PG_DSN is required")
	}
	store, err := pg.Open(cfg.PostgresDSN)
	if err != nil {
		fatal("open postgres: " + err.Error())
	}
	defer store.Close()

	mgr := migrate.NewManager(store.DB().DB, cfg.MigrationsDir, cfg.SeedsDir)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch {
	case *up:
		if err := mgr.Up(ctx); err != nil {
			fatal(err.Error())
		}
		fmt.Println("migrations applied")
	case *down:
		if err := mgr.Down(ctx); err != nil {
			fatal(err.Error())
		}
		fmt.Println("rolled back one migration")
	case *seed:
		if err := mgr.Seed(ctx); err != nil {
			fatal(err.Error())
		}
		fmt.Println("seeds applied")
	case *status:
		applied, err := mgr.Status(ctx)
		if err != nil {
			fatal(err.Error())
		}
		if len(applied) == 0 {
			fmt.Println("no migrations applied")
			return
		}
		for _, name := range applied {
			fmt.Println(name)
		}
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "migrate: "+msg)
	os.Exit(1)
}
