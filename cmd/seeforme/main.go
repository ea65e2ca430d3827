package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/leekHotline/seeforme/internal/api"
	"github.com/leekHotline/seeforme/internal/config"
	"github.com/leekHotline/seeforme/internal/demo"
	"github.com/leekHotline/seeforme/internal/helpdesk"
	"github.com/leekHotline/seeforme/internal/keystore"
	"github.com/leekHotline/seeforme/internal/notify"
	"github.com/leekHotline/seeforme/internal/session"
	"github.com/leekHotline/seeforme/internal/ui"
	"github.com/leekHotline/seeforme/internal/upload"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := keystore.NewFileStore(cfg.CredentialDir)
	if err != nil {
		log.Fatalf("keystore init failed: %v", err)
	}

	client := api.New(cfg.APIBaseURL, cfg.RequestTimeout, store)
	router := ui.NewRouter()
	sess := session.New(client, store, router)
	if err := sess.Boot(ctx); err != nil {
		log.Fatalf("session boot failed: %v", err)
	}

	desk := helpdesk.New(client, sess, demo.NewCatalog())
	uploader := upload.New(client)
	tracker := notify.NewTracker(store)

	if err := ui.Run(ctx, cfg, sess, desk, uploader, tracker, router); err != nil {
		log.Fatalf("ui error: %v", err)
	}
}
