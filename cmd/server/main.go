package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stitchpay/internal/config"
	"stitchpay/internal/db"
	"stitchpay/internal/handlers"
	"stitchpay/internal/ledger"
	"stitchpay/internal/metrics"
	"stitchpay/internal/middleware"
	"stitchpay/internal/presence"
	"stitchpay/internal/services"
	"stitchpay/internal/store"
	"stitchpay/internal/websocket"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	accounts := store.NewAccountStore(database)
	transactions := store.NewTransactionStore(database)
	txRunner := db.NewTxRunner(database)
	tracker := presence.NewTracker()
	hub := websocket.NewHub()
	collector := metrics.NewCollector()
	ledgerLog := ledger.NewLog(accounts)
	service := services.NewTransferService(txRunner, accounts, ledgerLog, transactions, tracker, collector, hub)
	reconciler := services.NewReconciler(txRunner, accounts, ledgerLog, transactions, collector, cfg.ReconcileInterval)
	loginLimiter := middleware.NewLoginLimiter(cfg.LoginRatePerMinute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reconciler.Run(ctx)

	handler := handlers.New(txRunner, cfg, accounts, transactions, tracker, service, hub, loginLimiter, collector.Handler())
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("stitchpay API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
