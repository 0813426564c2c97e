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

	"golang.org/x/sync/errgroup"

	"battlefield/internal/auth"
	"battlefield/internal/battle"
	"battlefield/internal/config"
	"battlefield/internal/data"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Match registry. Bad arena or stat tables stop the process here.
	manager, err := battle.NewManager(ctx, cfg.Settings())
	if err != nil {
		log.Fatalf("invalid match settings: %v", err)
	}

	mux := http.NewServeMux()

	// 2. Accounts and player progress are optional; without a database results are only logged.
	if cfg.DatabaseURL != "" {
		store, err := data.NewStoreFromDB(cfg.DatabaseURL, cfg.MedalsPath)
		if err != nil {
			log.Fatalf("failed to open data store: %v", err)
		}
		defer store.Close()
		record := store.Recorder(5 * time.Second)
		manager.OnResult = func(res battle.Result) {
			record(res.MatchID, userIDs(res.Winners), userIDs(res.Losers))
		}

		accounts := auth.NewAccounts(store)
		mux.HandleFunc("POST /players", accounts.RegisterHandler)
		mux.HandleFunc("POST /players/login", accounts.LoginHandler)
		mux.HandleFunc("GET /players/me", accounts.ProfileHandler)
	} else {
		log.Println("DATABASE_URL not set, match results will not be recorded")
		manager.OnResult = func(res battle.Result) {
			log.Printf("[MATCH %s] side %d won", res.MatchID, res.Winner)
		}
	}

	// 3. Match routes
	mux.HandleFunc("POST /matches", battle.NewCreateHandler(manager))
	mux.HandleFunc("GET /matches/{id}", battle.NewStatusHandler(manager))
	mux.HandleFunc("/ws", battle.NewWebsocketHandler(manager, cfg.ClientBuffer))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Println("Server starting on port " + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		manager.Shutdown()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server: ", err)
	}
	log.Println("Server stopped")
}

func userIDs(players []*battle.Player) []string {
	var ids []string
	for _, p := range players {
		if p.SignedIn() {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}
