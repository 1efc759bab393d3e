package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"quizhub/internal/quiz"
)

func (s *SQLiteStore) CreateCategory(ctx context.Context, name string) (quiz.Category, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return quiz.Category{}, classify(err, fmt.Errorf("category %q: %w", name, quiz.ErrDuplicateName))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return quiz.Category{}, err
	}
	return quiz.Category{ID: id, Name: name}, nil
}

func (s *SQLiteStore) GetCategory(ctx context.Context, categoryID int64) (quiz.Category, error) {
	var category quiz.Category
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, name FROM categories WHERE id = ?`,
		categoryID,
	).Scan(&category.ID, &category.Name)
	if err != nil {
		return quiz.Category{}, notFound(err, "category", categoryID)
	}
	return category, nil
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]quiz.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]quiz.Category, 0)
	for rows.Next() {
		var category quiz.Category
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (s *SQLiteStore) RenameCategory(ctx context.Context, categoryID int64, name string) (quiz.Category, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, categoryID)
	if err != nil {
		return quiz.Category{}, classify(err, fmt.Errorf("category %q: %w", name, quiz.ErrDuplicateName))
	}
	if err := expectAffected(result, "category", categoryID); err != nil {
		return quiz.Category{}, err
	}
	return quiz.Category{ID: categoryID, Name: name}, nil
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, categoryID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, categoryID)
	if err != nil {
		return classify(err, nil)
	}
	return expectAffected(result, "category", categoryID)
}

func (s *SQLiteStore) CreateQuiz(ctx context.Context, item quiz.Quiz) (quiz.Quiz, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quiz.Quiz{}, err
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, `SELECT 1 FROM categories WHERE id = ?`, "category", item.CategoryID); err != nil {
		return quiz.Quiz{}, err
	}

	item.CreatedAt = s.now()
	item.TotalQuestions = 0
	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO quizzes (category_id, title, description, total_questions, created_at_unix)
		 VALUES (?, ?, ?, 0, ?)`,
		item.CategoryID,
		item.Title,
		item.Description,
		item.CreatedAt.UnixNano(),
	)
	if err != nil {
		return quiz.Quiz{}, classify(err, fmt.Errorf("quiz %q: %w", item.Title, quiz.ErrDuplicateName))
	}
	if item.ID, err = result.LastInsertId(); err != nil {
		return quiz.Quiz{}, err
	}

	if err := tx.Commit(); err != nil {
		return quiz.Quiz{}, classify(err, nil)
	}
	return item, nil
}

func (s *SQLiteStore) GetQuiz(ctx context.Context, quizID int64) (quiz.Quiz, error) {
	return getQuiz(ctx, s.db, quizID)
}

func getQuiz(ctx context.Context, q queryer, quizID int64) (quiz.Quiz, error) {
	var (
		item          quiz.Quiz
		createdAtUnix int64
	)
	err := q.QueryRowContext(
		ctx,
		`SELECT id, category_id, title, description, total_questions, created_at_unix
		 FROM quizzes WHERE id = ?`,
		quizID,
	).Scan(&item.ID, &item.CategoryID, &item.Title, &item.Description, &item.TotalQuestions, &createdAtUnix)
	if err != nil {
		return quiz.Quiz{}, notFound(err, "quiz", quizID)
	}
	item.CreatedAt = fromUnixNano(createdAtUnix)
	return item, nil
}

func (s *SQLiteStore) ListQuizzes(ctx context.Context, categoryID int64) ([]quiz.Quiz, error) {
	query := `SELECT id, category_id, title, description, total_questions, created_at_unix FROM quizzes`
	args := []any{}
	if categoryID > 0 {
		query += ` WHERE category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY created_at_unix DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := make([]quiz.Quiz, 0)
	for rows.Next() {
		var (
			item          quiz.Quiz
			createdAtUnix int64
		)
		if err := rows.Scan(&item.ID, &item.CategoryID, &item.Title, &item.Description, &item.TotalQuestions, &createdAtUnix); err != nil {
			return nil, err
		}
		item.CreatedAt = fromUnixNano(createdAtUnix)
		quizzes = append(quizzes, item)
	}
	return quizzes, rows.Err()
}

func (s *SQLiteStore) UpdateQuiz(ctx context.Context, item quiz.Quiz) (quiz.Quiz, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quiz.Quiz{}, err
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, `SELECT 1 FROM categories WHERE id = ?`, "category", item.CategoryID); err != nil {
		return quiz.Quiz{}, err
	}

	result, err := tx.ExecContext(
		ctx,
		`UPDATE quizzes SET category_id = ?, title = ?, description = ? WHERE id = ?`,
		item.CategoryID,
		item.Title,
		item.Description,
		item.ID,
	)
	if err != nil {
		return quiz.Quiz{}, classify(err, fmt.Errorf("quiz %q: %w", item.Title, quiz.ErrDuplicateName))
	}
	if err := expectAffected(result, "quiz", item.ID); err != nil {
		return quiz.Quiz{}, err
	}

	updated, err := getQuiz(ctx, tx, item.ID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if err := tx.Commit(); err != nil {
		return quiz.Quiz{}, classify(err, nil)
	}
	return updated, nil
}

func (s *SQLiteStore) DeleteQuiz(ctx context.Context, quizID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ?`, quizID)
	if err != nil {
		return classify(err, nil)
	}
	return expectAffected(result, "quiz", quizID)
}

func (s *SQLiteStore) CreateQuestion(ctx context.Context, question quiz.Question) (quiz.Question, error) {
	optionsJSON, err := json.Marshal(question.Options)
	if err != nil {
		return quiz.Question{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quiz.Question{}, err
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, `SELECT 1 FROM quizzes WHERE id = ?`, "quiz", question.QuizID); err != nil {
		return quiz.Question{}, err
	}

	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO questions (quiz_id, text, options_json, correct_option) VALUES (?, ?, ?, ?)`,
		question.QuizID,
		question.Text,
		string(optionsJSON),
		question.CorrectOption,
	)
	if err != nil {
		return quiz.Question{}, classify(err, fmt.Errorf("question %q: %w", question.Text, quiz.ErrDuplicateName))
	}
	if question.ID, err = result.LastInsertId(); err != nil {
		return quiz.Question{}, err
	}

	if err := syncQuiz(ctx, tx, question.QuizID); err != nil {
		return quiz.Question{}, err
	}
	if err := tx.Commit(); err != nil {
		return quiz.Question{}, classify(err, nil)
	}
	return question, nil
}

func (s *SQLiteStore) GetQuestion(ctx context.Context, questionID int64) (quiz.Question, error) {
	return getQuestion(ctx, s.db, questionID)
}

func getQuestion(ctx context.Context, q queryer, questionID int64) (quiz.Question, error) {
	var (
		question    quiz.Question
		optionsJSON string
	)
	err := q.QueryRowContext(
		ctx,
		`SELECT id, quiz_id, text, options_json, correct_option FROM questions WHERE id = ?`,
		questionID,
	).Scan(&question.ID, &question.QuizID, &question.Text, &optionsJSON, &question.CorrectOption)
	if err != nil {
		return quiz.Question{}, notFound(err, "question", questionID)
	}
	if err := json.Unmarshal([]byte(optionsJSON), &question.Options); err != nil {
		return quiz.Question{}, err
	}
	return question, nil
}

func (s *SQLiteStore) ListQuestions(ctx context.Context, quizID int64) ([]quiz.Question, error) {
	return listQuestions(ctx, s.db, quizID)
}

func listQuestions(ctx context.Context, q queryer, quizID int64) ([]quiz.Question, error) {
	rows, err := q.QueryContext(
		ctx,
		`SELECT id, quiz_id, text, options_json, correct_option
		 FROM questions
		 WHERE quiz_id = ?
		 ORDER BY id ASC`,
		quizID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]quiz.Question, 0)
	for rows.Next() {
		var (
			question    quiz.Question
			optionsJSON string
		)
		if err := rows.Scan(&question.ID, &question.QuizID, &question.Text, &optionsJSON, &question.CorrectOption); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(optionsJSON), &question.Options); err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

// UpdateQuestion rewrites a question. Responses already recorded against it
// are re-marked when the correct option changes, and dropped when the
// question moves to another quiz; affected scores and counters are resynced
// in the same transaction.
func (s *SQLiteStore) UpdateQuestion(ctx context.Context, question quiz.Question) (quiz.Question, error) {
	optionsJSON, err := json.Marshal(question.Options)
	if err != nil {
		return quiz.Question{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quiz.Question{}, err
	}
	defer tx.Rollback()

	existing, err := getQuestion(ctx, tx, question.ID)
	if err != nil {
		return quiz.Question{}, err
	}

	moved := existing.QuizID != question.QuizID
	if moved {
		if err := requireRow(ctx, tx, `SELECT 1 FROM quizzes WHERE id = ?`, "quiz", question.QuizID); err != nil {
			return quiz.Question{}, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE question_id = ?`, question.ID); err != nil {
			return quiz.Question{}, err
		}
	} else if existing.CorrectOption != question.CorrectOption {
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE responses SET is_correct = (selected_option = ?) WHERE question_id = ?`,
			question.CorrectOption,
			question.ID,
		); err != nil {
			return quiz.Question{}, err
		}
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE questions SET quiz_id = ?, text = ?, options_json = ?, correct_option = ? WHERE id = ?`,
		question.QuizID,
		question.Text,
		string(optionsJSON),
		question.CorrectOption,
		question.ID,
	); err != nil {
		return quiz.Question{}, classify(err, fmt.Errorf("question %q: %w", question.Text, quiz.ErrDuplicateName))
	}

	if err := syncQuiz(ctx, tx, question.QuizID); err != nil {
		return quiz.Question{}, err
	}
	if moved {
		if err := syncQuiz(ctx, tx, existing.QuizID); err != nil {
			return quiz.Question{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return quiz.Question{}, classify(err, nil)
	}
	return question, nil
}

// DeleteQuestion removes the question; its responses cascade and the quiz's
// counter and result scores are resynced.
func (s *SQLiteStore) DeleteQuestion(ctx context.Context, questionID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	existing, err := getQuestion(ctx, tx, questionID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, questionID); err != nil {
		return classify(err, nil)
	}
	if err := syncQuiz(ctx, tx, existing.QuizID); err != nil {
		return err
	}
	return classify(tx.Commit(), nil)
}

// syncQuiz re-derives total_questions and every result score of the quiz from
// the rows they summarize.
func syncQuiz(ctx context.Context, tx *sql.Tx, quizID int64) error {
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE quizzes
		 SET total_questions = (SELECT COUNT(*) FROM questions WHERE questions.quiz_id = quizzes.id)
		 WHERE id = ?`,
		quizID,
	); err != nil {
		return err
	}

	_, err := tx.ExecContext(
		ctx,
		`UPDATE quiz_results
		 SET score = (
			SELECT COUNT(*) FROM responses
			WHERE responses.quiz_result_id = quiz_results.id AND responses.is_correct = 1
		 )
		 WHERE quiz_id = ?`,
		quizID,
	)
	return err
}

func requireRow(ctx context.Context, q queryer, query, what string, id int64) error {
	var found int
	if err := q.QueryRowContext(ctx, query, id).Scan(&found); err != nil {
		return notFound(err, what, id)
	}
	return nil
}

func expectAffected(result sql.Result, what string, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", what, id, quiz.ErrNotFound)
	}
	return nil
}
