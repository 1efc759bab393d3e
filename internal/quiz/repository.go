package quiz

import (
	"context"
)

// GradeFunc grades a submission against the quiz's questions as loaded inside
// the recording transaction. It returns one Response per question (ids and
// result linkage are filled in by the store) and the score.
type GradeFunc func(questions []Question) ([]Response, int, error)

type CatalogRepository interface {
	CreateCategory(ctx context.Context, name string) (Category, error)
	GetCategory(ctx context.Context, categoryID int64) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	RenameCategory(ctx context.Context, categoryID int64, name string) (Category, error)
	DeleteCategory(ctx context.Context, categoryID int64) error

	CreateQuiz(ctx context.Context, quiz Quiz) (Quiz, error)
	GetQuiz(ctx context.Context, quizID int64) (Quiz, error)
	ListQuizzes(ctx context.Context, categoryID int64) ([]Quiz, error)
	UpdateQuiz(ctx context.Context, quiz Quiz) (Quiz, error)
	DeleteQuiz(ctx context.Context, quizID int64) error

	CreateQuestion(ctx context.Context, question Question) (Question, error)
	GetQuestion(ctx context.Context, questionID int64) (Question, error)
	ListQuestions(ctx context.Context, quizID int64) ([]Question, error)
	UpdateQuestion(ctx context.Context, question Question) (Question, error)
	DeleteQuestion(ctx context.Context, questionID int64) error
}

type AttemptRepository interface {
	// RecordAttempt replaces the user's responses for the quiz and upserts the
	// single result row, all in one transaction.
	RecordAttempt(ctx context.Context, quizID, userID int64, grade GradeFunc) (QuizResult, error)
	FindResult(ctx context.Context, quizID, userID int64) (QuizResult, error)
	GetResult(ctx context.Context, resultID int64) (QuizResult, error)
	ListResponses(ctx context.Context, resultID int64) ([]Response, error)
	ListResultsByUser(ctx context.Context, userID int64) ([]QuizResult, error)
	DeleteResult(ctx context.Context, resultID, userID int64) error
	GetLeaderboard(ctx context.Context, quizID int64, limit int) ([]LeaderboardEntry, error)
}
