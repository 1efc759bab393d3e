package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"quizhub/internal/userclient"
)

func main() {
	email := flag.String("email", os.Getenv("QUIZ_EMAIL"), "account email (default $QUIZ_EMAIL)")
	server := flag.String("server", "http://127.0.0.1:8080", "quiz service base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP timeout")
	leaderboard := flag.Int("leaderboard", 10, "leaderboard rows to show (negative for all)")
	flag.Parse()

	password := os.Getenv("QUIZ_PASSWORD")
	if *email == "" || password == "" {
		fmt.Fprintln(os.Stderr, "error: --email (or QUIZ_EMAIL) and QUIZ_PASSWORD are required")
		os.Exit(1)
	}

	err := userclient.Run(context.Background(), os.Stdin, os.Stdout, userclient.Config{
		Email:            *email,
		Password:         password,
		ServerURL:        *server,
		LeaderboardLimit: *leaderboard,
		HTTPTimeout:      *timeout,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
