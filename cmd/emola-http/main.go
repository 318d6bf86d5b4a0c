package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rphilander/emola"
	"github.com/rphilander/emola/internal/httpgw"
)

func main() {
	cfg, err := emola.LoadConfig(os.Getenv("EMOLA_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	gw := httpgw.New(cfg.SockPath)
	defer gw.Close()

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: gw.Handler(),
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Println("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	log.Printf("emola http gateway on %s -> %s", cfg.HTTPAddr, cfg.SockPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("http server: %v", err)
	}
}
