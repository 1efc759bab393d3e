package quiz

import (
	"errors"
	"fmt"
	"strings"

	"quizhub/internal/validation"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrEmptyQuiz           = errors.New("no questions available for this quiz")
	ErrMissingAnswer       = errors.New("missing answer")
	ErrInvalidSelection    = errors.New("invalid selection")
	ErrDuplicateName       = errors.New("already exists")
	ErrConstraintViolation = errors.New("conflicting concurrent update, please retry")
	ErrUpstream            = errors.New("question source unavailable")
	ErrValidation          = validation.ErrInvalid
)

// MissingAnswerError lists the questions a submission left unanswered.
type MissingAnswerError struct {
	QuestionIDs []int64
}

func (e *MissingAnswerError) Error() string {
	ids := make([]string, 0, len(e.QuestionIDs))
	for _, id := range e.QuestionIDs {
		ids = append(ids, fmt.Sprint(id))
	}
	return fmt.Sprintf("missing answer for question(s) %s", strings.Join(ids, ", "))
}

func (e *MissingAnswerError) Is(target error) bool {
	return target == ErrMissingAnswer
}
