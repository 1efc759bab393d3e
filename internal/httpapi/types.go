package httpapi

import (
	"quizhub/internal/auth"
	"quizhub/internal/quiz"
)

type errorResponse struct {
	Error              string            `json:"error"`
	Fields             map[string]string `json:"fields,omitempty"`
	MissingQuestionIDs []int64           `json:"missing_question_ids,omitempty"`
}

type profileResponse struct {
	User    auth.User            `json:"user"`
	Results []quiz.ResultSummary `json:"results"`
}

type quizzesResponse struct {
	Quizzes []quiz.Quiz `json:"quizzes"`
}

type takeQuizResponse struct {
	quiz.QuizView
	Error string `json:"error,omitempty"`
}

type submitRequest struct {
	Answers []quiz.Selection `json:"answers"`
}

type submitResponse struct {
	Result         quiz.QuizResult `json:"result"`
	TotalQuestions int             `json:"total_questions"`
	ResultURL      string          `json:"result_url"`
}

type leaderboardResponse struct {
	QuizID      int64                   `json:"quiz_id"`
	Leaderboard []quiz.LeaderboardEntry `json:"leaderboard"`
}

type categoriesResponse struct {
	Categories []quiz.Category `json:"categories"`
}

type questionsResponse struct {
	QuizID    int64           `json:"quiz_id"`
	Questions []quiz.Question `json:"questions"`
}

type importRequest struct {
	Amount int `json:"amount"`
}

type healthResponse struct {
	Status string `json:"status"`
}
