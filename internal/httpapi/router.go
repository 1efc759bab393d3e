package httpapi

import (
	"net/http"
)

func NewRouter(api *API) http.Handler {
	authed := func(h http.HandlerFunc) http.Handler {
		return api.gate.RequireAuthenticated(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return api.gate.RequirePrivileged(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", api.HandleHealth)
	if api.metrics != nil {
		mux.Handle("GET /metrics", api.metrics.Handler())
	}

	mux.HandleFunc("POST /register", api.HandleRegister)
	mux.HandleFunc("POST /login", api.HandleLogin)
	mux.HandleFunc("POST /logout", api.HandleLogout)
	mux.Handle("GET /profile", authed(api.HandleProfile))

	mux.HandleFunc("GET /quizzes", api.HandleListQuizzes)
	mux.Handle("GET /quizzes/{quiz_id}", authed(api.HandleTakeQuiz))
	mux.Handle("POST /quizzes/{quiz_id}/submissions", authed(api.HandleSubmitQuiz))
	mux.Handle("GET /quizzes/{quiz_id}/leaderboard", authed(api.HandleLeaderboard))
	mux.Handle("GET /results/{result_id}", authed(api.HandleGetResult))
	mux.Handle("DELETE /results/{result_id}", authed(api.HandleDeleteResult))

	mux.Handle("GET /admin/categories", admin(api.HandleAdminListCategories))
	mux.Handle("POST /admin/categories", admin(api.HandleAdminCreateCategory))
	mux.Handle("PUT /admin/categories/{category_id}", admin(api.HandleAdminRenameCategory))
	mux.Handle("DELETE /admin/categories/{category_id}", admin(api.HandleAdminDeleteCategory))

	mux.Handle("GET /admin/quizzes", admin(api.HandleListQuizzes))
	mux.Handle("POST /admin/quizzes", admin(api.HandleAdminCreateQuiz))
	mux.Handle("PUT /admin/quizzes/{quiz_id}", admin(api.HandleAdminUpdateQuiz))
	mux.Handle("DELETE /admin/quizzes/{quiz_id}", admin(api.HandleAdminDeleteQuiz))
	mux.Handle("POST /admin/quizzes/{quiz_id}/import", admin(api.HandleAdminImportQuestions))

	mux.Handle("GET /admin/questions", admin(api.HandleAdminListQuestions))
	mux.Handle("POST /admin/questions", admin(api.HandleAdminCreateQuestion))
	mux.Handle("GET /admin/questions/{question_id}", admin(api.HandleAdminGetQuestion))
	mux.Handle("PUT /admin/questions/{question_id}", admin(api.HandleAdminUpdateQuestion))
	mux.Handle("DELETE /admin/questions/{question_id}", admin(api.HandleAdminDeleteQuestion))

	return api.instrument(mux)
}
