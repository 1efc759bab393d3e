package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizhub/internal/auth"
	"quizhub/internal/config"
	"quizhub/internal/httpapi"
	"quizhub/internal/logger"
	"quizhub/internal/metrics"
	"quizhub/internal/opentdb"
	"quizhub/internal/quiz"
	"quizhub/internal/quiz/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (default $"+config.EnvConfigFile+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: init logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("quiz-service stopped", "error", err)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	store, err := sqlite.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	trivia := opentdb.NewClient(nil)
	if cfg.OpenTDB.URL != "" {
		trivia = trivia.WithBaseURL(cfg.OpenTDB.URL)
	}

	m := metrics.New()
	users := auth.NewService(store, auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))
	quizzes := quiz.NewService(store, store, trivia.FetchQuestions, m)

	api := httpapi.NewAPI(httpapi.Deps{
		Quizzes:       quizzes,
		Users:         users,
		Metrics:       m,
		Logger:        log,
		Health:        store.Ping,
		SecureCookies: cfg.Server.SecureCookies,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewRouter(api),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("quiz-service listening", "addr", cfg.Server.Addr, "db", cfg.Database.Path)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
