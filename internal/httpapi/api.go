package httpapi

import (
	"context"

	"quizhub/internal/auth"
	"quizhub/internal/logger"
	"quizhub/internal/metrics"
	"quizhub/internal/quiz"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Quizzes *quiz.Service
	Users   *auth.Service
	Metrics *metrics.Metrics
	Logger  *logger.Logger
	// Health reports whether the backing store is reachable.
	Health func(ctx context.Context) error
	// SecureCookies marks the session cookie Secure; off for plain-HTTP dev.
	SecureCookies bool
}

type API struct {
	quizzes       *quiz.Service
	users         *auth.Service
	gate          *auth.Gate
	metrics       *metrics.Metrics
	log           *logger.Logger
	health        func(ctx context.Context) error
	secureCookies bool
}

func NewAPI(deps Deps) *API {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &API{
		quizzes:       deps.Quizzes,
		users:         deps.Users,
		gate:          auth.NewGate(deps.Users),
		metrics:       deps.Metrics,
		log:           log,
		health:        deps.Health,
		secureCookies: deps.SecureCookies,
	}
}
