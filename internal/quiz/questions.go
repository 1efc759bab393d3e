package quiz

import (
	"html"
	"math/rand/v2"
	"strings"
	"time"

	"quizhub/internal/opentdb"
)

// OptionCount is the fixed number of choices on every question. Option
// indexes are 1-based.
const OptionCount = 4

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Quiz struct {
	ID             int64     `json:"id"`
	CategoryID     int64     `json:"category_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	TotalQuestions int       `json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
}

type Question struct {
	PublicQuestion
	CorrectOption int `json:"correct_option"`
}

// PublicQuestion is what a quiz taker may see.
type PublicQuestion struct {
	ID      int64    `json:"id"`
	QuizID  int64    `json:"quiz_id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

type QuizResult struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	QuizID      int64     `json:"quiz_id"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type Response struct {
	ID             int64 `json:"id"`
	QuizResultID   int64 `json:"quiz_result_id"`
	UserID         int64 `json:"user_id"`
	QuizID         int64 `json:"quiz_id"`
	QuestionID     int64 `json:"question_id"`
	SelectedOption int   `json:"selected_option"`
	IsCorrect      bool  `json:"is_correct"`
}

// Selection is one answer in a submission.
type Selection struct {
	QuestionID     int64 `json:"question_id"`
	SelectedOption int   `json:"selected_option"`
}

type LeaderboardEntry struct {
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func ToPublicQuestions(questions []Question) []PublicQuestion {
	public := make([]PublicQuestion, 0, len(questions))
	for _, question := range questions {
		public = append(public, question.PublicQuestion)
	}
	return public
}

// BuildQuestions turns Open Trivia DB items into four-option questions for
// quizID. Items that do not carry exactly three incorrect answers are skipped.
func BuildQuestions(quizID int64, raw []opentdb.RawQuestion) []Question {
	questions := make([]Question, 0, len(raw))
	for _, item := range raw {
		if len(item.IncorrectAnswers) != OptionCount-1 {
			continue
		}
		question := buildQuestion(item)
		question.QuizID = quizID
		questions = append(questions, question)
	}
	return questions
}

func buildQuestion(raw opentdb.RawQuestion) Question {
	type choice struct {
		text      string
		isCorrect bool
	}

	choices := make([]choice, 0, len(raw.IncorrectAnswers)+1)
	for _, incorrect := range raw.IncorrectAnswers {
		choices = append(choices, choice{
			text:      strings.TrimSpace(html.UnescapeString(incorrect)),
			isCorrect: false,
		})
	}

	choices = append(choices, choice{
		text:      strings.TrimSpace(html.UnescapeString(raw.CorrectAnswer)),
		isCorrect: true,
	})

	rand.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	options := make([]string, len(choices))
	correctOption := 0
	for idx, candidate := range choices {
		options[idx] = candidate.text
		if candidate.isCorrect {
			correctOption = idx + 1
		}
	}

	return Question{
		PublicQuestion: PublicQuestion{
			Text:    strings.TrimSpace(html.UnescapeString(raw.Question)),
			Options: options,
		},
		CorrectOption: correctOption,
	}
}
