package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sudosos.org/internal/balance"
	"sudosos.org/internal/config"
	"sudosos.org/internal/httpapi"
	"sudosos.org/internal/obs"
	"sudosos.org/internal/report"
	"sudosos.org/internal/store/pg"
	"sudosos.org/internal/transaction"
	"sudosos.org/internal/transfer"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfg := config.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	if cfg.PostgresDSN == "" {
		obs.LogRequest(map[string]any{
			"level": "fatal",
			"msg":   "SUDOSOS_PG_DSN is required",
		})
		os.Exit(1)
	}
	store, err := pg.Open(cfg.PostgresDSN)
	if err != nil {
		obs.LogRequest(map[string]any{
			"level": "fatal",
			"msg":   "open postgres",
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer store.Close()

	cache := balance.NewCache()
	balances := balance.NewService(cache, store)
	verifier := transaction.NewVerifier(store, store, balances)
	transactions := transaction.NewService(store, store, cache)
	transfers := transfer.NewService(store, cache)
	reports := report.NewBuilder(store)

	api := httpapi.New(httpapi.Deps{
		Ready:         httpapi.ReadyProbe{DB: store.DB().DB},
		Version:       version,
		Verifier:      verifier,
		Transactions:  transactions,
		Repo:          store,
		Balances:      balances,
		Transfers:     transfers,
		Reports:       reports,
		JWTSecret:     cfg.JWTSecret,
		RateBurst:     cfg.RateBurst,
		RatePerSecond: cfg.RatePerSecond,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		obs.LogRequest(map[string]any{
			"level":   "info",
			"msg":     "listening",
			"addr":    cfg.Addr,
			"version": version,
		})
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			obs.LogRequest(map[string]any{
				"level": "fatal",
				"msg":   "server error",
				"error": err.Error(),
			})
			os.Exit(1)
		}
	case sig := <-stop:
		obs.LogRequest(map[string]any{
			"level":  "info",
			"msg":    "shutting down",
			"signal": sig.String(),
		})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			obs.LogRequest(map[string]any{
				"level": "error",
				"msg":   "graceful shutdown failed",
				"error": err.Error(),
			})
		}
	}
}
