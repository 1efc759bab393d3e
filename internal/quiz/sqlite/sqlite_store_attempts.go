package sqlite

import (
	"context"

	"quizhub/internal/quiz"
)

// RecordAttempt runs the whole submission in one transaction: load the quiz's
// questions, grade, drop the user's previous responses for the quiz, upsert
// the single (user, quiz) result and write one response per question.
//
// The result id comes from the AUTOINCREMENT key. The upsert on the
// (user_id, quiz_id) unique key keeps concurrent first submissions from
// creating two results; whichever commits last wins.
func (s *SQLiteStore) RecordAttempt(ctx context.Context, quizID, userID int64, grade quiz.GradeFunc) (quiz.QuizResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quiz.QuizResult{}, classify(err, nil)
	}
	defer tx.Rollback()

	if err := requireRow(ctx, tx, `SELECT 1 FROM quizzes WHERE id = ?`, "quiz", quizID); err != nil {
		return quiz.QuizResult{}, err
	}

	questions, err := listQuestions(ctx, tx, quizID)
	if err != nil {
		return quiz.QuizResult{}, err
	}

	responses, score, err := grade(questions)
	if err != nil {
		return quiz.QuizResult{}, err
	}

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM responses WHERE user_id = ? AND quiz_id = ?`,
		userID,
		quizID,
	); err != nil {
		return quiz.QuizResult{}, classify(err, nil)
	}

	result := quiz.QuizResult{
		UserID:      userID,
		QuizID:      quizID,
		Score:       score,
		SubmittedAt: s.now(),
	}
	if err := tx.QueryRowContext(
		ctx,
		`INSERT INTO quiz_results (user_id, quiz_id, score, submitted_at_unix)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, quiz_id) DO UPDATE SET
			score = excluded.score,
			submitted_at_unix = excluded.submitted_at_unix
		 RETURNING id`,
		userID,
		quizID,
		score,
		result.SubmittedAt.UnixNano(),
	).Scan(&result.ID); err != nil {
		return quiz.QuizResult{}, classify(err, nil)
	}

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO responses (quiz_result_id, user_id, quiz_id, question_id, selected_option, is_correct)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return quiz.QuizResult{}, err
	}
	defer stmt.Close()

	for _, response := range responses {
		if _, err := stmt.ExecContext(
			ctx,
			result.ID,
			userID,
			quizID,
			response.QuestionID,
			response.SelectedOption,
			response.IsCorrect,
		); err != nil {
			return quiz.QuizResult{}, classify(err, nil)
		}
	}

	if err := tx.Commit(); err != nil {
		return quiz.QuizResult{}, classify(err, nil)
	}
	return result, nil
}

func (s *SQLiteStore) FindResult(ctx context.Context, quizID, userID int64) (quiz.QuizResult, error) {
	var (
		result          quiz.QuizResult
		submittedAtUnix int64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, quiz_id, score, submitted_at_unix
		 FROM quiz_results
		 WHERE user_id = ? AND quiz_id = ?`,
		userID,
		quizID,
	).Scan(&result.ID, &result.UserID, &result.QuizID, &result.Score, &submittedAtUnix)
	if err != nil {
		return quiz.QuizResult{}, notFound(err, "result for quiz", quizID)
	}
	result.SubmittedAt = fromUnixNano(submittedAtUnix)
	return result, nil
}

func (s *SQLiteStore) GetResult(ctx context.Context, resultID int64) (quiz.QuizResult, error) {
	var (
		result          quiz.QuizResult
		submittedAtUnix int64
	)
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, quiz_id, score, submitted_at_unix FROM quiz_results WHERE id = ?`,
		resultID,
	).Scan(&result.ID, &result.UserID, &result.QuizID, &result.Score, &submittedAtUnix)
	if err != nil {
		return quiz.QuizResult{}, notFound(err, "result", resultID)
	}
	result.SubmittedAt = fromUnixNano(submittedAtUnix)
	return result, nil
}

func (s *SQLiteStore) ListResponses(ctx context.Context, resultID int64) ([]quiz.Response, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, quiz_result_id, user_id, quiz_id, question_id, selected_option, is_correct
		 FROM responses
		 WHERE quiz_result_id = ?
		 ORDER BY question_id ASC`,
		resultID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := make([]quiz.Response, 0)
	for rows.Next() {
		var response quiz.Response
		if err := rows.Scan(
			&response.ID,
			&response.QuizResultID,
			&response.UserID,
			&response.QuizID,
			&response.QuestionID,
			&response.SelectedOption,
			&response.IsCorrect,
		); err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, rows.Err()
}

func (s *SQLiteStore) ListResultsByUser(ctx context.Context, userID int64) ([]quiz.QuizResult, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user_id, quiz_id, score, submitted_at_unix
		 FROM quiz_results
		 WHERE user_id = ?
		 ORDER BY submitted_at_unix DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]quiz.QuizResult, 0)
	for rows.Next() {
		var (
			result          quiz.QuizResult
			submittedAtUnix int64
		)
		if err := rows.Scan(&result.ID, &result.UserID, &result.QuizID, &result.Score, &submittedAtUnix); err != nil {
			return nil, err
		}
		result.SubmittedAt = fromUnixNano(submittedAtUnix)
		results = append(results, result)
	}
	return results, rows.Err()
}

// DeleteResult deletes a result only when userID owns it.
func (s *SQLiteStore) DeleteResult(ctx context.Context, resultID, userID int64) error {
	result, err := s.db.ExecContext(
		ctx,
		`DELETE FROM quiz_results WHERE id = ? AND user_id = ?`,
		resultID,
		userID,
	)
	if err != nil {
		return classify(err, nil)
	}
	return expectAffected(result, "result", resultID)
}

func (s *SQLiteStore) GetLeaderboard(ctx context.Context, quizID int64, limit int) ([]quiz.LeaderboardEntry, error) {
	if limit <= 0 {
		// SQLite treats a negative LIMIT as unbounded.
		limit = -1
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT r.user_id, u.username, r.score, r.submitted_at_unix
		 FROM quiz_results r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.quiz_id = ?
		 ORDER BY r.score DESC, r.submitted_at_unix ASC, u.username ASC
		 LIMIT ?`,
		quizID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leaderboard := make([]quiz.LeaderboardEntry, 0)
	for rows.Next() {
		var (
			entry           quiz.LeaderboardEntry
			submittedAtUnix int64
		)
		if err := rows.Scan(&entry.UserID, &entry.Username, &entry.Score, &submittedAtUnix); err != nil {
			return nil, err
		}
		entry.SubmittedAt = fromUnixNano(submittedAtUnix)
		leaderboard = append(leaderboard, entry)
	}
	return leaderboard, rows.Err()
}
