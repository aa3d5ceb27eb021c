package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/mind-engage/mindengage-results/internal/api/http"
	auth "github.com/mind-engage/mindengage-results/internal/auth/middleware"
	"github.com/mind-engage/mindengage-results/internal/config"
	"github.com/mind-engage/mindengage-results/internal/db"
	"github.com/mind-engage/mindengage-results/internal/ledger"
	storage "github.com/mind-engage/mindengage-results/internal/storage"
)

func main() {
	cfg, err := config.Load()
	logger := cfg.Logger("resultsd")
	if err != nil {
		logger.Fatalf("%v", err)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	driver := db.NormalizeDriver(cfg.DBDriver)
	dbh, err := db.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		logger.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		logger.Fatalf("blob store: %v", err)
	}

	opts := []ledger.Option{ledger.WithLogger(cfg.Logger("ledger")), ledger.WithArchive(bs)}
	if cfg.LedgerStrictColumns {
		opts = append(opts, ledger.WithStrictCompulsoryColumns())
	}

	r := api.NewRouter(api.Deps{
		DB:             dbh,
		Auth:           auth.NewAuthService(cfg.AuthHMACSecret),
		Importer:       ledger.NewImporter(dbh, driver, opts...),
		Log:            cfg.Logger("http"),
		CORSOrigins:    cfg.CORSOrigins,
		ImportMaxBytes: cfg.ImportMaxBytes,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	stop, release := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer release()
	go func() {
		<-stop.Done()
		shutdown, done := context.WithTimeout(context.Background(), 15*time.Second)
		defer done()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Infof("listening on %s (db=%s, strict_columns=%t)", cfg.HTTPAddr, driver, cfg.LedgerStrictColumns)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("serve: %v", err)
	}
	logger.Infof("stopped")
}
