package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm-console/internal/config"
	"crm-console/internal/db"
	"crm-console/internal/httpapi"
	"crm-console/internal/hub"
)

func main() {
	cfgPath := flag.String("config", "/etc/consoled.yaml", "config file path")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pool, err := db.NewPool(cfg.DBDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	broadcast := hub.New(cfg.Stream.BufferSize, time.Duration(cfg.Stream.HeartbeatSeconds)*time.Second)
	defer broadcast.Close()

	router := httpapi.NewRouter(cfg, pool, broadcast)

	srv := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     router,
		ReadTimeout: 5 * time.Second,
		// No WriteTimeout: the operator stream stays open for the lifetime
		// of a browser tab. Non-stream handlers finish in milliseconds.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("CRM Console Realtime Service listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	broadcast.Close()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}
