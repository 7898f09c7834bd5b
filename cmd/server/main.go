package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"cyberarena/internal/game"
	"cyberarena/internal/report"
	"cyberarena/internal/server"
)

type config struct {
	Addr       string        `env:"CYBERARENA_ADDR" envDefault:":8080"`
	DBPath     string        `env:"CYBERARENA_DB" envDefault:"cyberarena.db"`
	ThinkDelay time.Duration `env:"CYBERARENA_THINK_DELAY" envDefault:"1200ms"`
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse config: %v", err)
	}

	store, err := report.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open mission log: %v", err)
	}
	defer store.Close()

	engine := game.NewEngine(game.WithThinkDelay(cfg.ThinkDelay))
	arena := server.NewArena(engine, store)
	defer arena.Shutdown()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/game", server.HandleWebSocket(arena))

	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Printf("arena listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Printf("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
