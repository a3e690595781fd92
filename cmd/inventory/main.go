package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ariefcatur/go-dropship-orders/internal/config"
	"github.com/ariefcatur/go-dropship-orders/internal/inventory"
	kafkax "github.com/ariefcatur/go-dropship-orders/internal/kafka"
	"github.com/ariefcatur/go-dropship-orders/internal/orders"
	"github.com/ariefcatur/go-dropship-orders/internal/redisx"
	"github.com/ariefcatur/go-dropship-orders/internal/supplier"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.ServiceName+"-inventory")
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := &inventory.Service{
		Catalog:  orders.NewFileCatalog(filepath.Join(cfg.DataDir, "products.json")),
		Supplier: supplier.New(cfg.Supplier, &http.Client{Timeout: cfg.OutboundTimeout}, log),
		Log:      log,
	}
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		svc.Dedup = &redisx.Dedup{RDB: rdb, Service: "inventory"}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Run(gctx, cfg.InventorySyncInterval)
	})

	// sold quantities only matter while the process keeps running
	if len(cfg.KafkaBrokers) > 0 && cfg.InventorySyncInterval > 0 {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.InventoryGroup, orders.TopicOrderPaid, cfg.InventoryWorkers, log)
		g.Go(func() error {
			log.Info("order.paid consumer started", "group", cfg.InventoryGroup, "workers", cfg.InventoryWorkers)
			return cons.Start(gctx, svc.HandleOrderPaid)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("inventory worker exit", "err", err)
		os.Exit(1)
	}
	log.Info("inventory worker stopped")
}
