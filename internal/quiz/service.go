package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quizhub/internal/opentdb"
	"quizhub/internal/validation"
)

const defaultImportAmount = 10

type QuestionsFetcher func(ctx context.Context, amount int) ([]opentdb.RawQuestion, error)

// SubmissionObserver is notified once per graded or rejected submission.
type SubmissionObserver interface {
	ObserveSubmission(outcome string, score, total int)
}

type Service struct {
	catalog  CatalogRepository
	attempts AttemptRepository
	fetcher  QuestionsFetcher
	observer SubmissionObserver
	locks    *attemptLocks
}

func NewService(catalog CatalogRepository, attempts AttemptRepository, fetcher QuestionsFetcher, observer SubmissionObserver) *Service {
	return &Service{
		catalog:  catalog,
		attempts: attempts,
		fetcher:  fetcher,
		observer: observer,
		locks:    newAttemptLocks(),
	}
}

type CategoryInput struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type QuizInput struct {
	CategoryID  int64  `json:"category_id" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"required,min=10,max=500"`
}

type QuestionInput struct {
	QuizID        int64    `json:"quiz_id" validate:"required,gt=0"`
	Text          string   `json:"text" validate:"required,min=5,max=500"`
	Options       []string `json:"options" validate:"len=4,dive,required,max=200"`
	CorrectOption int      `json:"correct_option" validate:"min=1,max=4"`
}

type ImportReport struct {
	QuizID   int64 `json:"quiz_id"`
	Fetched  int   `json:"fetched"`
	Imported int   `json:"imported"`
	Skipped  int   `json:"skipped"`
}

func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (Category, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return Category{}, err
	}
	return s.catalog.CreateCategory(ctx, input.Name)
}

func (s *Service) GetCategory(ctx context.Context, categoryID int64) (Category, error) {
	if categoryID <= 0 {
		return Category{}, ErrNotFound
	}
	return s.catalog.GetCategory(ctx, categoryID)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.catalog.ListCategories(ctx)
}

func (s *Service) RenameCategory(ctx context.Context, categoryID int64, input CategoryInput) (Category, error) {
	if categoryID <= 0 {
		return Category{}, ErrNotFound
	}
	input.Name = strings.TrimSpace(input.Name)
	if err := validation.Struct(input); err != nil {
		return Category{}, err
	}
	return s.catalog.RenameCategory(ctx, categoryID, input.Name)
}

// DeleteCategory removes the category with all of its quizzes, their
// questions, results and responses.
func (s *Service) DeleteCategory(ctx context.Context, categoryID int64) error {
	if categoryID <= 0 {
		return ErrNotFound
	}
	return s.catalog.DeleteCategory(ctx, categoryID)
}

func (s *Service) CreateQuiz(ctx context.Context, input QuizInput) (Quiz, error) {
	input = normalizeQuizInput(input)
	if err := validation.Struct(input); err != nil {
		return Quiz{}, err
	}
	return s.catalog.CreateQuiz(ctx, Quiz{
		CategoryID:  input.CategoryID,
		Title:       input.Title,
		Description: input.Description,
	})
}

func (s *Service) GetQuiz(ctx context.Context, quizID int64) (Quiz, error) {
	if quizID <= 0 {
		return Quiz{}, ErrNotFound
	}
	return s.catalog.GetQuiz(ctx, quizID)
}

// ListQuizzes lists every quiz, or only those of categoryID when it is set.
func (s *Service) ListQuizzes(ctx context.Context, categoryID int64) ([]Quiz, error) {
	if categoryID < 0 {
		return nil, ErrNotFound
	}
	return s.catalog.ListQuizzes(ctx, categoryID)
}

func (s *Service) UpdateQuiz(ctx context.Context, quizID int64, input QuizInput) (Quiz, error) {
	if quizID <= 0 {
		return Quiz{}, ErrNotFound
	}
	input = normalizeQuizInput(input)
	if err := validation.Struct(input); err != nil {
		return Quiz{}, err
	}
	return s.catalog.UpdateQuiz(ctx, Quiz{
		ID:          quizID,
		CategoryID:  input.CategoryID,
		Title:       input.Title,
		Description: input.Description,
	})
}

func (s *Service) DeleteQuiz(ctx context.Context, quizID int64) error {
	if quizID <= 0 {
		return ErrNotFound
	}
	return s.catalog.DeleteQuiz(ctx, quizID)
}

func (s *Service) CreateQuestion(ctx context.Context, input QuestionInput) (Question, error) {
	input = normalizeQuestionInput(input)
	if err := validation.Struct(input); err != nil {
		return Question{}, err
	}
	return s.catalog.CreateQuestion(ctx, questionFromInput(0, input))
}

func (s *Service) GetQuestion(ctx context.Context, questionID int64) (Question, error) {
	if questionID <= 0 {
		return Question{}, ErrNotFound
	}
	return s.catalog.GetQuestion(ctx, questionID)
}

func (s *Service) ListQuestions(ctx context.Context, quizID int64) ([]Question, error) {
	if quizID <= 0 {
		return nil, ErrNotFound
	}
	if _, err := s.catalog.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.catalog.ListQuestions(ctx, quizID)
}

func (s *Service) UpdateQuestion(ctx context.Context, questionID int64, input QuestionInput) (Question, error) {
	if questionID <= 0 {
		return Question{}, ErrNotFound
	}
	input = normalizeQuestionInput(input)
	if err := validation.Struct(input); err != nil {
		return Question{}, err
	}
	return s.catalog.UpdateQuestion(ctx, questionFromInput(questionID, input))
}

func (s *Service) DeleteQuestion(ctx context.Context, questionID int64) error {
	if questionID <= 0 {
		return ErrNotFound
	}
	return s.catalog.DeleteQuestion(ctx, questionID)
}

// ImportQuestions pulls multiple-choice questions from the configured fetcher
// into quizID. Questions whose text the quiz already has are skipped.
func (s *Service) ImportQuestions(ctx context.Context, quizID int64, amount int) (ImportReport, error) {
	if s.fetcher == nil {
		return ImportReport{}, fmt.Errorf("%w: no fetcher configured", ErrUpstream)
	}
	if quizID <= 0 {
		return ImportReport{}, ErrNotFound
	}
	if amount <= 0 {
		amount = defaultImportAmount
	}

	if _, err := s.catalog.GetQuiz(ctx, quizID); err != nil {
		return ImportReport{}, err
	}

	raw, err := s.fetcher(ctx, amount)
	if err != nil {
		return ImportReport{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	report := ImportReport{QuizID: quizID, Fetched: len(raw)}
	for _, question := range BuildQuestions(quizID, raw) {
		input := normalizeQuestionInput(QuestionInput{
			QuizID:        quizID,
			Text:          question.Text,
			Options:       question.Options,
			CorrectOption: question.CorrectOption,
		})
		if err := validation.Struct(input); err != nil {
			continue
		}

		_, err := s.catalog.CreateQuestion(ctx, questionFromInput(0, input))
		if errors.Is(err, ErrDuplicateName) {
			continue
		}
		if err != nil {
			report.Skipped = report.Fetched - report.Imported
			return report, err
		}
		report.Imported++
	}
	report.Skipped = report.Fetched - report.Imported

	return report, nil
}

func normalizeQuizInput(input QuizInput) QuizInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	return input
}

func normalizeQuestionInput(input QuestionInput) QuestionInput {
	input.Text = strings.TrimSpace(input.Text)
	options := make([]string, len(input.Options))
	for idx, option := range input.Options {
		options[idx] = strings.TrimSpace(option)
	}
	input.Options = options
	return input
}

func questionFromInput(questionID int64, input QuestionInput) Question {
	return Question{
		PublicQuestion: PublicQuestion{
			ID:      questionID,
			QuizID:  input.QuizID,
			Text:    input.Text,
			Options: input.Options,
		},
		CorrectOption: input.CorrectOption,
	}
}
