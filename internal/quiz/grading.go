package quiz

import (
	"context"
	"errors"
	"fmt"
)

const (
	OutcomeGraded     = "graded"
	OutcomeEmptyQuiz  = "empty_quiz"
	OutcomeRejected   = "rejected"
	OutcomeConflict   = "conflict"
	OutcomeStoreError = "error"
)

// Status is a user's standing on one quiz. Completed means a perfect score;
// a result that exists with a lower score is InProgress.
type Status struct {
	Attempted  bool  `json:"attempted"`
	Completed  bool  `json:"completed"`
	InProgress bool  `json:"in_progress"`
	Score      int   `json:"score"`
	Total      int   `json:"total"`
	ResultID   int64 `json:"result_id,omitempty"`
}

type QuizView struct {
	Quiz      Quiz             `json:"quiz"`
	Questions []PublicQuestion `json:"questions"`
	Status    Status           `json:"status"`
}

type ResultDetail struct {
	QuizResult
	QuizTitle      string     `json:"quiz_title"`
	TotalQuestions int        `json:"total_questions"`
	Responses      []Response `json:"responses"`
}

type ResultSummary struct {
	QuizResult
	QuizTitle      string `json:"quiz_title"`
	TotalQuestions int    `json:"total_questions"`
}

// SubmitQuiz grades one submission and records it as the user's only result
// for the quiz, replacing any earlier responses. Either every question is
// answered and everything is written, or nothing is.
func (s *Service) SubmitQuiz(ctx context.Context, quizID, userID int64, selections []Selection) (QuizResult, error) {
	if quizID <= 0 || userID <= 0 {
		return QuizResult{}, ErrNotFound
	}

	answers, err := indexSelections(selections)
	if err != nil {
		s.observe(OutcomeRejected, 0, 0)
		return QuizResult{}, err
	}

	unlock := s.locks.lock(attemptKey{quizID: quizID, userID: userID})
	defer unlock()

	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizResult{}, err
	}
	if quiz.TotalQuestions == 0 {
		s.observe(OutcomeEmptyQuiz, 0, 0)
		return QuizResult{}, ErrEmptyQuiz
	}

	grade := func(questions []Question) ([]Response, int, error) {
		if len(questions) == 0 {
			return nil, 0, ErrEmptyQuiz
		}
		return Grade(questions, answers)
	}

	result, err := s.attempts.RecordAttempt(ctx, quizID, userID, grade)
	if errors.Is(err, ErrConstraintViolation) {
		// One retry: the competing writer has committed by now.
		result, err = s.attempts.RecordAttempt(ctx, quizID, userID, grade)
	}
	if err != nil {
		s.observe(outcomeFor(err), 0, quiz.TotalQuestions)
		return QuizResult{}, err
	}

	s.observe(OutcomeGraded, result.Score, quiz.TotalQuestions)
	return result, nil
}

// Grade marks each question against answers (question id to 1-based option).
// Answers for questions outside the set are rejected, as is any unanswered
// question.
func Grade(questions []Question, answers map[int64]int) ([]Response, int, error) {
	known := make(map[int64]struct{}, len(questions))
	for _, question := range questions {
		known[question.ID] = struct{}{}
	}
	for questionID := range answers {
		if _, ok := known[questionID]; !ok {
			return nil, 0, fmt.Errorf("%w: question %d is not part of this quiz", ErrInvalidSelection, questionID)
		}
	}

	var missing []int64
	responses := make([]Response, 0, len(questions))
	score := 0
	for _, question := range questions {
		selected, ok := answers[question.ID]
		if !ok {
			missing = append(missing, question.ID)
			continue
		}

		isCorrect := selected == question.CorrectOption
		if isCorrect {
			score++
		}
		responses = append(responses, Response{
			QuizID:         question.QuizID,
			QuestionID:     question.ID,
			SelectedOption: selected,
			IsCorrect:      isCorrect,
		})
	}
	if len(missing) > 0 {
		return nil, 0, &MissingAnswerError{QuestionIDs: missing}
	}

	return responses, score, nil
}

// GetScore returns the recorded score, or 0 when the user has no result.
func (s *Service) GetScore(ctx context.Context, quizID, userID int64) (int, error) {
	result, err := s.findResult(ctx, quizID, userID)
	if err != nil {
		return 0, err
	}
	if result == nil {
		return 0, nil
	}
	return result.Score, nil
}

// IsCompleted reports a perfect score: a result exists and every question was
// answered correctly.
func (s *Service) IsCompleted(ctx context.Context, quizID, userID int64) (bool, error) {
	status, err := s.QuizStatus(ctx, quizID, userID)
	if err != nil {
		return false, err
	}
	return status.Completed, nil
}

func (s *Service) IsInProgress(ctx context.Context, quizID, userID int64) (bool, error) {
	status, err := s.QuizStatus(ctx, quizID, userID)
	if err != nil {
		return false, err
	}
	return status.InProgress, nil
}

func (s *Service) HasAttempted(ctx context.Context, quizID, userID int64) (bool, error) {
	result, err := s.findResult(ctx, quizID, userID)
	if err != nil {
		return false, err
	}
	return result != nil, nil
}

func (s *Service) QuizStatus(ctx context.Context, quizID, userID int64) (Status, error) {
	if quizID <= 0 {
		return Status{}, ErrNotFound
	}
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return Status{}, err
	}
	result, err := s.findResult(ctx, quizID, userID)
	if err != nil {
		return Status{}, err
	}
	return statusFor(quiz, result), nil
}

// GetQuizForTaking returns the quiz with its questions stripped of answers and
// the caller's current standing.
func (s *Service) GetQuizForTaking(ctx context.Context, quizID, userID int64) (QuizView, error) {
	if quizID <= 0 {
		return QuizView{}, ErrNotFound
	}
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizView{}, err
	}
	questions, err := s.catalog.ListQuestions(ctx, quizID)
	if err != nil {
		return QuizView{}, err
	}
	result, err := s.findResult(ctx, quizID, userID)
	if err != nil {
		return QuizView{}, err
	}

	return QuizView{
		Quiz:      quiz,
		Questions: ToPublicQuestions(questions),
		Status:    statusFor(quiz, result),
	}, nil
}

// GetResult returns a result owned by userID. Results of other users are
// reported as ErrNotFound so their existence is not revealed.
func (s *Service) GetResult(ctx context.Context, resultID, userID int64) (ResultDetail, error) {
	if resultID <= 0 {
		return ResultDetail{}, ErrNotFound
	}
	result, err := s.attempts.GetResult(ctx, resultID)
	if err != nil {
		return ResultDetail{}, err
	}
	if result.UserID != userID {
		return ResultDetail{}, ErrNotFound
	}

	quiz, err := s.catalog.GetQuiz(ctx, result.QuizID)
	if err != nil {
		return ResultDetail{}, err
	}
	responses, err := s.attempts.ListResponses(ctx, resultID)
	if err != nil {
		return ResultDetail{}, err
	}

	return ResultDetail{
		QuizResult:     result,
		QuizTitle:      quiz.Title,
		TotalQuestions: quiz.TotalQuestions,
		Responses:      responses,
	}, nil
}

func (s *Service) ListResults(ctx context.Context, userID int64) ([]ResultSummary, error) {
	results, err := s.attempts.ListResultsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ResultSummary, 0, len(results))
	for _, result := range results {
		quiz, err := s.catalog.GetQuiz(ctx, result.QuizID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ResultSummary{
			QuizResult:     result,
			QuizTitle:      quiz.Title,
			TotalQuestions: quiz.TotalQuestions,
		})
	}
	return summaries, nil
}

func (s *Service) DeleteResult(ctx context.Context, resultID, userID int64) error {
	if resultID <= 0 {
		return ErrNotFound
	}
	return s.attempts.DeleteResult(ctx, resultID, userID)
}

func (s *Service) GetLeaderboard(ctx context.Context, quizID int64, limit int) ([]LeaderboardEntry, error) {
	if quizID <= 0 {
		return nil, ErrNotFound
	}
	if _, err := s.catalog.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.attempts.GetLeaderboard(ctx, quizID, limit)
}

func (s *Service) findResult(ctx context.Context, quizID, userID int64) (*QuizResult, error) {
	result, err := s.attempts.FindResult(ctx, quizID, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) observe(outcome string, score, total int) {
	if s.observer != nil {
		s.observer.ObserveSubmission(outcome, score, total)
	}
}

func statusFor(quiz Quiz, result *QuizResult) Status {
	status := Status{Total: quiz.TotalQuestions}
	if result == nil {
		return status
	}
	status.Attempted = true
	status.Score = result.Score
	status.ResultID = result.ID
	// A quiz whose questions were all deleted has nothing left to complete.
	status.Completed = quiz.TotalQuestions > 0 && result.Score == quiz.TotalQuestions
	status.InProgress = result.Score < quiz.TotalQuestions
	return status
}

func indexSelections(selections []Selection) (map[int64]int, error) {
	answers := make(map[int64]int, len(selections))
	for _, selection := range selections {
		if selection.QuestionID <= 0 {
			return nil, fmt.Errorf("%w: question id %d", ErrInvalidSelection, selection.QuestionID)
		}
		if selection.SelectedOption < 1 || selection.SelectedOption > OptionCount {
			return nil, fmt.Errorf("%w: option %d for question %d is outside 1-%d",
				ErrInvalidSelection, selection.SelectedOption, selection.QuestionID, OptionCount)
		}
		if _, dup := answers[selection.QuestionID]; dup {
			return nil, fmt.Errorf("%w: question %d answered more than once", ErrInvalidSelection, selection.QuestionID)
		}
		answers[selection.QuestionID] = selection.SelectedOption
	}
	return answers, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrEmptyQuiz):
		return OutcomeEmptyQuiz
	case errors.Is(err, ErrMissingAnswer), errors.Is(err, ErrInvalidSelection):
		return OutcomeRejected
	case errors.Is(err, ErrConstraintViolation):
		return OutcomeConflict
	default:
		return OutcomeStoreError
	}
}
