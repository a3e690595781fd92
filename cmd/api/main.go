package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ariefcatur/go-dropship-orders/internal/config"
	"github.com/ariefcatur/go-dropship-orders/internal/httpx"
	kafkax "github.com/ariefcatur/go-dropship-orders/internal/kafka"
	"github.com/ariefcatur/go-dropship-orders/internal/orders"
	"github.com/ariefcatur/go-dropship-orders/internal/paypal"
	"github.com/ariefcatur/go-dropship-orders/internal/postgres"
	"github.com/ariefcatur/go-dropship-orders/internal/redisx"
	"github.com/ariefcatur/go-dropship-orders/internal/supplier"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.ServiceName)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outbound := &http.Client{Timeout: cfg.OutboundTimeout}
	ctrl := &orders.Controller{
		Catalog:   orders.NewFileCatalog(filepath.Join(cfg.DataDir, "products.json")),
		Gateway:   paypal.New(cfg.PayPal, outbound),
		Forwarder: supplier.New(cfg.Supplier, outbound, log),
		Service:   cfg.ServiceName,
		Log:       log,
	}

	// Ledger
	switch cfg.LedgerDriver {
	case "postgres":
		if cfg.RunMigrations {
			if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
				fatal(log, "db migrate", err)
			}
		}
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
		if err != nil {
			fatal(log, "db connect", err)
		}
		defer db.Close()
		ctrl.Ledger = orders.NewPgLedger(db)
	case "file":
		ctrl.Ledger = orders.NewFileLedger(filepath.Join(cfg.DataDir, "orders.json"))
	default:
		fatal(log, "config", errors.New("unknown LEDGER_DRIVER "+cfg.LedgerDriver))
	}

	// Redis status cache
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		ctrl.Cache = &redisx.StatusCache{RDB: rdb}
	}

	// Kafka order events
	var producers []*kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		newProducer := func(topic string) *kafkax.Producer {
			p := kafkax.NewProducer(cfg.KafkaBrokers, topic, 1024, log)
			p.Start(ctx)
			producers = append(producers, p)
			return p
		}
		ctrl.CreatedEvents = newProducer(orders.TopicOrderCreated)
		ctrl.PaidEvents = newProducer(orders.TopicOrderPaid)
		ctrl.FulfillmentEvents = newProducer(orders.TopicOrderFulfillment)
	}

	router := httpx.NewRouter(log, cfg.PublicDir)
	oh := &httpx.OrdersHandler{
		Orders: ctrl,
		Public: httpx.PublicConfig{PayPalClientID: cfg.PayPal.ClientID, Currency: cfg.PayPal.Currency.String()},
		Log:    log,
	}
	oh.Register(router)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("dropship server listening", "addr", cfg.HTTPAddr, "ledger", cfg.LedgerDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.Info("shutdown signal", "signal", s.String())
	case err := <-errCh:
		log.Error("listen", "err", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	for _, p := range producers {
		p.Close() // flush queued events
	}
	for _, p := range producers {
		p.WaitClosed()
	}
	log.Info("shutdown complete")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}
