package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"golang.org/x/sync/errgroup"

	"quizhub/internal/auth"
	"quizhub/internal/quiz"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

type capitalsFixture struct {
	quiz      quiz.Quiz
	questions []quiz.Question
	user      auth.User
}

// seedCapitals creates the "Capitals" quiz with three questions whose correct
// options are 2, 3 and 1.
func seedCapitals(t *testing.T, store *SQLiteStore) capitalsFixture {
	t.Helper()
	ctx := context.Background()

	category, err := store.CreateCategory(ctx, "Geography")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	created, err := store.CreateQuiz(ctx, quiz.Quiz{
		CategoryID:  category.ID,
		Title:       "Capitals",
		Description: "Name the capital city.",
	})
	if err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	fixture := capitalsFixture{quiz: created}
	rows := []struct {
		text    string
		options []string
		correct int
	}{
		{"Capital of France?", []string{"Lyon", "Paris", "Nice", "Lille"}, 2},
		{"Capital of Japan?", []string{"Osaka", "Kyoto", "Tokyo", "Nara"}, 3},
		{"Capital of Italy?", []string{"Rome", "Milan", "Turin", "Genoa"}, 1},
	}
	for _, row := range rows {
		question, err := store.CreateQuestion(ctx, quiz.Question{
			PublicQuestion: quiz.PublicQuestion{
				QuizID:  created.ID,
				Text:    row.text,
				Options: row.options,
			},
			CorrectOption: row.correct,
		})
		if err != nil {
			t.Fatalf("CreateQuestion failed: %v", err)
		}
		fixture.questions = append(fixture.questions, question)
	}

	fixture.user = createUser(t, store, "alice")
	return fixture
}

func createUser(t *testing.T, store *SQLiteStore, username string) auth.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), auth.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

func gradeWith(selected ...int) quiz.GradeFunc {
	return func(questions []quiz.Question) ([]quiz.Response, int, error) {
		answers := make(map[int64]int, len(questions))
		for idx, question := range questions {
			answers[question.ID] = selected[idx]
		}
		return quiz.Grade(questions, answers)
	}
}

func TestSQLiteStoreCountersFollowQuestions(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	fixture := seedCapitals(t, store)

	got, err := store.GetQuiz(ctx, fixture.quiz.ID)
	if err != nil {
		t.Fatalf("GetQuiz failed: %v", err)
	}
	if got.TotalQuestions != 3 {
		t.Fatalf("expected total_questions 3, got %d", got.TotalQuestions)
	}

	if err := store.DeleteQuestion(ctx, fixture.questions[0].ID); err != nil {
		t.Fatalf("DeleteQuestion failed: %v", err)
	}
	got, err = store.GetQuiz(ctx, fixture.quiz.ID)
	if err != nil {
		t.Fatalf("GetQuiz failed: %v", err)
	}
	if got.TotalQuestions != 2 {
		t.Fatalf("expected total_questions 2 after delete, got %d", got.TotalQuestions)
	}

	questions, err := store.ListQuestions(ctx, fixture.quiz.ID)
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	if len(questions) != 2 || questions[0].Options[2] != "Tokyo" {
		t.Fatalf("unexpected questions: %+v", questions)
	}
}

func TestSQLiteStoreDeleteQuestionRescoresResult(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	fixture := seedCapitals(t, store)

	result, err := store.RecordAttempt(ctx, fixture.quiz.ID, fixture.user.ID, gradeWith(2, 3, 1))
	if err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if result.Score != 3 {
		t.Fatalf("expected score 3, got %d", result.Score)
	}

	if err := store.DeleteQuestion(ctx, fixture.questions[0].ID); err != nil {
		t.Fatalf("DeleteQuestion failed: %v", err)
	}

	got, err := store.GetQuiz(ctx, fixture.quiz.ID)
	if err != nil {
		t.Fatalf("GetQuiz failed: %v", err)
	}
	if got.TotalQuestions != 2 {
		t.Fatalf("expected total_questions 2, got %d", got.TotalQuestions)
	}

	rescored, err := store.GetResult(ctx, result.ID)
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if rescored.Score != 2 {
		t.Fatalf("expected score 2 after delete, got %d", rescored.Score)
	}

	responses, err := store.ListResponses(ctx, result.ID)
	if err != nil {
		t.Fatalf("ListResponses failed: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses after delete, got %d", len(responses))
	}
	for _, response := range responses {
		if response.QuestionID == fixture.questions[0].ID {
			t.Fatalf("response for deleted question survived: %+v", response)
		}
	}
}

func TestSQLiteStoreRecordAttemptCapitals(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	fixture := seedCapitals(t, store)

	result, err := store.RecordAttempt(ctx, fixture.quiz.ID, fixture.user.ID, gradeWith(2, 3, 4))
	if err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if result.Score != 2 {
		t.Fatalf("expected score 2, got %d", result.Score)
	}

	responses, err := store.ListResponses(ctx, result.ID)
	if err != nil {
		t.Fatalf("ListResponses failed: %v", err)
	}
	if len(responses) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(responses))
	}
	wantCorrect := []bool{true, true, false}
	for idx, response := range responses {
		if response.IsCorrect != wantCorrect[idx] {
			t.Fatalf("response %d: expected is_correct=%v, got %+v", idx, wantCorrect[idx], response)
		}
		if response.UserID != fixture.user.ID || response.QuizID != fixture.quiz.ID || response.QuizResultID != result.ID {
			t.Fatalf("response %d has wrong owner: %+v", idx, response)
		}
	}
}

func TestSQLiteStoreResubmitReplacesResponses(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	fixture := seedCapitals(t, store)

	first, err := store.RecordAttempt(ctx, fixture.quiz.ID, fixture.user.ID, gradeWith(2, 3, 1))
	if err != nil {
		t.Fatalf("first RecordAttempt failed: %v", err)
	}
	if first.Score != 3 {
		t.Fatalf("expected perfect first score, got %d", first.Score)
	}

	second, err := store.RecordAttempt(ctx, fixture.quiz.ID, fixture.user.ID, gradeWith(1, 3, 1))
	if err != nil {
		t.Fatalf("second RecordAttempt failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected result %d to be reused, got %d", first.ID, second.ID)
	}
	if second.Score != 2 {
		t.Fatalf("expected score 2 after resubmit, got %d", second.Score)
	}

	stored, err := store.FindResult(ctx, fixture.quiz.ID, fixture.user.ID)
	if err != nil {
		t.Fatalf("FindResult failed: %v", err)
	}
	if stored.Score != 2 {
		t.Fatalf("expected stored score 2, got %d", stored.Score)
	}

	responses, err := store.ListResponses(ctx, first.ID)
	if err != nil {
		t.Fatalf("ListResponses failed: %v", err)
	}
	if len(responses) != 3 {
		t.Fatalf("expected exactly 3 responses after resubmit, got %d", len(responses))
	}

	var count int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quiz_results`).Scan(&count); err != nil {
		t.Fatalf("count results: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one result row, got %d", count)
	}
}

func TestSQLiteStoreRecordAttemptGradeErrorWritesNothing(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	fixture := seedCapitals(t, store)

	_, err := store.RecordAttempt(ctx, fixture.quiz.ID, fixture.user.ID, func([]quiz.Question) ([]quiz.Response, int, error) {
		return nil, 0, quiz.ErrMissingAnswer
	})
	if !errors.Is(err, quiz.ErrMissingAnswer) {
		t.Fatalf("expected ErrMissingAnswer, got %v", err)
	}

	if _, err := store.FindResult(ctx, fixture.quiz.ID, fixture.user.ID); !errors.Is(err, quiz.ErrNotFound) {
		t.Fatalf("expected no result, got %v", err)
	}
}

func TestSQLiteStoreRecordAttemptUnknownQuiz(t *testing.T) {
	store := newTestSQLiteStore(t)
	user := createUser(t, store, "bob")

	_, err := store.RecordAttempt(context.Background(), 999, user.ID, gradeWith())
	if !errors.Is(err, quiz.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStoreConcurrentFirstSubmissions(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	fixture := seedCapitals(t, store)

	var group errgroup.Group
	for attempt := 0; attempt < 8; attempt++ {
		group.Go(func() error {
			_, err := store.RecordAttempt(ctx, fixture.quiz.ID, fixture.user.ID, gradeWith(2, 3, 1))
			return err
		})
	}
	if err := group.Wait(); err != nil {
		t.Fatalf("concurrent RecordAttempt failed: %v", err)
	}

	var results, responses int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quiz_results`).Scan(&results); err != nil {
		t.Fatalf("count results: %v", err)
	}
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM responses`).Scan(&responses); err != nil {
		t.Fatalf("count responses: %v", err)
	}
	if results != 1 || responses != 3 {
		t.Fatalf("expected 1 result and 3 responses, got %d and %d", results, responses)
	}
}

func TestSQLiteStoreUpdateQuestionRemarksResponses(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	fixture := seedCapitals(t, store)

	result, err := store.RecordAttempt(ctx, fixture.quiz.ID, fixture.user.ID, gradeWith(2, 3, 4))
	if err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if result.Score != 2 {
		t.Fatalf("expected score 2, got %d", result.Score)
	}

	italy := fixture.questions[2]
	italy.CorrectOption = 4
	if _, err := store.UpdateQuestion(ctx, italy); err != nil {
		t.Fatalf("UpdateQuestion failed: %v", err)
	}

	stored, err := store.GetResult(ctx, result.ID)
	if err != nil {
		t.Fatalf("GetResult failed: %v", err)
	}
	if stored.Score != 3 {
		t.Fatalf("expected score 3 after re-marking, got %d", stored.Score)
	}
}

func TestSQLiteStoreMoveQuestionResyncsBothQuizzes(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	fixture := seedCapitals(t, store)

	if _, err := store.RecordAttempt(ctx, fixture.quiz.ID, fixture.user.ID, gradeWith(2, 3, 1)); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}

	other, err := store.CreateQuiz(ctx, quiz.Quiz{
		CategoryID:  fixture.quiz.CategoryID,
		Title:       "European Capitals",
		Description: "Only European cities.",
	})
	if err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	moved := fixture.questions[0]
	moved.QuizID = other.ID
	if _, err := store.UpdateQuestion(ctx, moved); err != nil {
		t.Fatalf("UpdateQuestion failed: %v", err)
	}

	source, err := store.GetQuiz(ctx, fixture.quiz.ID)
	if err != nil {
		t.Fatalf("GetQuiz failed: %v", err)
	}
	target, err := store.GetQuiz(ctx, other.ID)
	if err != nil {
		t.Fatalf("GetQuiz failed: %v", err)
	}
	if source.TotalQuestions != 2 || target.TotalQuestions != 1 {
		t.Fatalf("unexpected counters: source=%d target=%d", source.TotalQuestions, target.TotalQuestions)
	}

	result, err := store.FindResult(ctx, fixture.quiz.ID, fixture.user.ID)
	if err != nil {
		t.Fatalf("FindResult failed: %v", err)
	}
	if result.Score != 2 {
		t.Fatalf("expected score 2 after move, got %d", result.Score)
	}
}

func TestSQLiteStoreDeleteCategoryCascades(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	category, err := store.CreateCategory(ctx, "Science")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	user := createUser(t, store, "carol")

	for quizIdx := 0; quizIdx < 2; quizIdx++ {
		created, err := store.CreateQuiz(ctx, quiz.Quiz{
			CategoryID:  category.ID,
			Title:       fmt.Sprintf("Science %d", quizIdx),
			Description: "General science questions.",
		})
		if err != nil {
			t.Fatalf("CreateQuiz failed: %v", err)
		}
		for questionIdx := 0; questionIdx < 3; questionIdx++ {
			if _, err := store.CreateQuestion(ctx, quiz.Question{
				PublicQuestion: quiz.PublicQuestion{
					QuizID:  created.ID,
					Text:    fmt.Sprintf("Question %d?", questionIdx),
					Options: []string{"a", "b", "c", "d"},
				},
				CorrectOption: 1,
			}); err != nil {
				t.Fatalf("CreateQuestion failed: %v", err)
			}
		}
		if _, err := store.RecordAttempt(ctx, created.ID, user.ID, gradeWith(1, 2, 1)); err != nil {
			t.Fatalf("RecordAttempt failed: %v", err)
		}
	}

	if err := store.DeleteCategory(ctx, category.ID); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}

	for _, table := range []string{"quizzes", "questions", "quiz_results", "responses"} {
		var count int
		if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Fatalf("expected %s to be empty, got %d rows", table, count)
		}
	}

	if err := store.DeleteCategory(ctx, category.ID); !errors.Is(err, quiz.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSQLiteStoreDuplicateNames(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	fixture := seedCapitals(t, store)

	if _, err := store.CreateCategory(ctx, "Geography"); !errors.Is(err, quiz.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName for category, got %v", err)
	}
	if _, err := store.CreateQuiz(ctx, quiz.Quiz{
		CategoryID:  fixture.quiz.CategoryID,
		Title:       "Capitals",
		Description: "Duplicate title.",
	}); !errors.Is(err, quiz.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName for quiz, got %v", err)
	}
	if _, err := store.CreateQuestion(ctx, quiz.Question{
		PublicQuestion: quiz.PublicQuestion{
			QuizID:  fixture.quiz.ID,
			Text:    "Capital of France?",
			Options: []string{"a", "b", "c", "d"},
		},
		CorrectOption: 1,
	}); !errors.Is(err, quiz.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName for question, got %v", err)
	}
	if _, err := store.CreateQuiz(ctx, quiz.Quiz{
		CategoryID:  999,
		Title:       "Orphan",
		Description: "No such category.",
	}); !errors.Is(err, quiz.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing category, got %v", err)
	}
}

func TestSQLiteStoreResultsAreUserScoped(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	fixture := seedCapitals(t, store)
	mallory := createUser(t, store, "mallory")

	result, err := store.RecordAttempt(ctx, fixture.quiz.ID, fixture.user.ID, gradeWith(2, 3, 1))
	if err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}

	if err := store.DeleteResult(ctx, result.ID, mallory.ID); !errors.Is(err, quiz.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign delete, got %v", err)
	}
	if _, err := store.FindResult(ctx, fixture.quiz.ID, mallory.ID); !errors.Is(err, quiz.ErrNotFound) {
		t.Fatalf("expected no result for mallory, got %v", err)
	}

	results, err := store.ListResultsByUser(ctx, fixture.user.ID)
	if err != nil {
		t.Fatalf("ListResultsByUser failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != result.ID {
		t.Fatalf("unexpected results: %+v", results)
	}

	if err := store.DeleteResult(ctx, result.ID, fixture.user.ID); err != nil {
		t.Fatalf("DeleteResult failed: %v", err)
	}
	responses, err := store.ListResponses(ctx, result.ID)
	if err != nil {
		t.Fatalf("ListResponses failed: %v", err)
	}
	if len(responses) != 0 {
		t.Fatalf("expected responses to cascade, got %d", len(responses))
	}
}

func TestSQLiteStoreLeaderboardOrder(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	fixture := seedCapitals(t, store)
	bob := createUser(t, store, "bob")
	carol := createUser(t, store, "carol")

	if _, err := store.RecordAttempt(ctx, fixture.quiz.ID, fixture.user.ID, gradeWith(2, 1, 1)); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if _, err := store.RecordAttempt(ctx, fixture.quiz.ID, bob.ID, gradeWith(2, 3, 1)); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	if _, err := store.RecordAttempt(ctx, fixture.quiz.ID, carol.ID, gradeWith(1, 1, 2)); err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}

	board, err := store.GetLeaderboard(ctx, fixture.quiz.ID, 2)
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board))
	}
	if board[0].Username != "bob" || board[0].Score != 3 || board[1].Username != "alice" || board[1].Score != 2 {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}

	all, err := store.GetLeaderboard(ctx, fixture.quiz.ID, 0)
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected unbounded leaderboard of 3, got %d", len(all))
	}
}

func TestSQLiteStoreUsers(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	user := createUser(t, store, "dave")

	if _, err := store.CreateUser(ctx, auth.User{
		Username:     "dave",
		Email:        "other@example.com",
		PasswordHash: "hash",
	}); !errors.Is(err, auth.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}

	if err := store.SetAdmin(ctx, user.ID, true); err != nil {
		t.Fatalf("SetAdmin failed: %v", err)
	}
	got, err := store.GetUserByEmail(ctx, "dave@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if !got.IsAdmin || got.Username != "dave" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := store.GetUserByUsername(ctx, "nobody"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := store.SetAdmin(ctx, 999, true); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound from SetAdmin, got %v", err)
	}
}
