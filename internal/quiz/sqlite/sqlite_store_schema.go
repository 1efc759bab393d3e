package sqlite

import (
	"context"
)

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	// Ownership edges cascade in the schema; one result per (user, quiz) is a
	// unique constraint so concurrent first submissions cannot both insert.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_admin INTEGER NOT NULL DEFAULT 0,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);`,
		`CREATE TABLE IF NOT EXISTS quizzes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			title TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL,
			total_questions INTEGER NOT NULL DEFAULT 0 CHECK (total_questions >= 0),
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			quiz_id INTEGER NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			options_json TEXT NOT NULL,
			correct_option INTEGER NOT NULL CHECK (correct_option BETWEEN 1 AND 4),
			UNIQUE (quiz_id, text)
		);`,
		`CREATE TABLE IF NOT EXISTS quiz_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			quiz_id INTEGER NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
			score INTEGER NOT NULL CHECK (score >= 0),
			submitted_at_unix INTEGER NOT NULL,
			UNIQUE (user_id, quiz_id)
		);`,
		`CREATE TABLE IF NOT EXISTS responses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			quiz_result_id INTEGER NOT NULL REFERENCES quiz_results(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			quiz_id INTEGER NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
			question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			selected_option INTEGER NOT NULL CHECK (selected_option BETWEEN 1 AND 4),
			is_correct INTEGER NOT NULL,
			UNIQUE (quiz_result_id, question_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_quizzes_category ON quizzes(category_id);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_quiz ON questions(quiz_id);`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_results_quiz_score ON quiz_results(quiz_id, score DESC, submitted_at_unix ASC);`,
		`CREATE INDEX IF NOT EXISTS idx_responses_user_quiz ON responses(user_id, quiz_id);`,
		`CREATE INDEX IF NOT EXISTS idx_responses_question ON responses(question_id);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
