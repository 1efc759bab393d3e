package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"quizhub/internal/auth"
	"quizhub/internal/cli"
	"quizhub/internal/config"
	"quizhub/internal/logger"
	"quizhub/internal/opentdb"
	"quizhub/internal/quiz"
	"quizhub/internal/quiz/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (default $"+config.EnvConfigFile+")")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: quiz-admin [-config file] <command> [args]\n\n")
		flag.PrintDefaults()
	}
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

	store, err := sqlite.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: open store:", err)
		os.Exit(1)
	}
	defer store.Close()

	trivia := opentdb.NewClient(nil)
	if cfg.OpenTDB.URL != "" {
		trivia = trivia.WithBaseURL(cfg.OpenTDB.URL)
	}

	err = cli.Run(context.Background(), flag.Args(), os.Stdout, cli.Deps{
		Quizzes: quiz.NewService(store, store, trivia.FetchQuestions, nil),
		Users:   auth.NewService(store, auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)),
		Log:     log,
	})
	if err != nil {
		if !errors.Is(err, cli.ErrUsage) {
			log.Error("admin command failed", "args", flag.Args(), "error", err)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		store.Close()
		os.Exit(1)
	}
}
