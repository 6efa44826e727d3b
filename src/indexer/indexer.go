package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finitestate/dao-indexer/src/indexer/config"
	"github.com/finitestate/dao-indexer/src/indexer/data"
	"github.com/finitestate/dao-indexer/src/indexer/feed"
	"github.com/finitestate/dao-indexer/src/indexer/metadata"
	"github.com/finitestate/dao-indexer/src/indexer/projections"
	"github.com/finitestate/dao-indexer/src/indexer/webserver"
)

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	rdb := data.MustRedis(cfg.RedisURL)

	meta := metadata.NewClient(cfg.IPFSGateway, time.Duration(cfg.FetchTimeout)*time.Second, cfg.FetchRetries, rdb)
	proj := projections.New(db, meta)

	ctx, cancel := context.WithCancel(context.Background())

	go feed.New(db, proj).Run(ctx, cfg.RPCURL, time.Duration(cfg.PollInterval)*time.Second, cfg.StartHeight)
	go data.NewReconciler(db, proj, cfg.RPCURL).Run(ctx, 15*time.Minute)

	router := webserver.New(db)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	log.Printf("DAO indexer listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
