package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rphilander/emola"
	"github.com/rphilander/emola/internal/boot"
)

func main() {
	cfg, err := emola.LoadConfig(os.Getenv("EMOLA_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	session, err := boot.OpenSession(cfg)
	if err != nil {
		log.Fatalf("failed to open session: %v", err)
	}

	srv, err := emola.NewServer(session, cfg.SockPath)
	if err != nil {
		log.Fatalf("failed to start server: %v", err)
	}

	// Handle shutdown signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Println("shutting down...")
		srv.Shutdown()
		session.Close()
		os.Exit(0)
	}()

	log.Printf("emola server listening on %s (%d global bindings replayed)", cfg.SockPath, session.Global().Len())
	srv.Run()
}
