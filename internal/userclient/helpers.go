package userclient

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"quizhub/internal/quiz"
)

// promptAnswer reads one letter and returns the 1-based option it names.
func promptAnswer(reader *bufio.Reader, out io.Writer, optionCount int) (int, bool) {
	if optionCount < 1 {
		return 0, false
	}

	maxLetter := byte('A' + optionCount - 1)
	fmt.Fprintf(out, "Your answer (A-%c): ", maxLetter)

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return 0, false
	}

	answer := strings.ToUpper(strings.TrimSpace(line))
	if len(answer) != 1 {
		return 0, false
	}
	letter := answer[0]
	if letter < 'A' || letter > maxLetter {
		return 0, false
	}

	return int(letter-'A') + 1, true
}

func optionLetter(option int) string {
	if option < 1 || option > 26 {
		return "?"
	}
	return string(rune('A' + option - 1))
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  quizzes [category_id]")
	fmt.Fprintln(out, "  play <quiz_id>")
	fmt.Fprintln(out, "  result <result_id>")
	fmt.Fprintln(out, "  leaderboard <quiz_id> [limit]")
	fmt.Fprintln(out, "  profile")
	fmt.Fprintln(out, "  exit")
}

func printResult(out io.Writer, detail quiz.ResultDetail) {
	fmt.Fprintf(out, "%s: %d/%d\n", detail.QuizTitle, detail.Score, detail.TotalQuestions)
	for idx, response := range detail.Responses {
		verdict := "wrong"
		if response.IsCorrect {
			verdict = "correct"
		}
		fmt.Fprintf(out, "  Q%d answered %s: %s\n", idx+1, optionLetter(response.SelectedOption), verdict)
	}
}

func printLeaderboard(out io.Writer, quizID int64, entries []quiz.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintf(out, "No results for quiz %d yet.\n", quizID)
		return
	}

	fmt.Fprintf(out, "Leaderboard for quiz %d:\n", quizID)
	for idx, entry := range entries {
		fmt.Fprintf(out, "%d. %s score=%d submitted=%s\n",
			idx+1,
			entry.Username,
			entry.Score,
			entry.SubmittedAt.Format(time.RFC3339),
		)
	}
}

func parseRequiredID(args []string, index int) (int64, error) {
	if len(args) <= index {
		return 0, errors.New("id is required")
	}
	value, err := strconv.ParseInt(args[index], 10, 64)
	if err != nil || value <= 0 {
		return 0, errors.New("must be a positive integer")
	}
	return value, nil
}

func parseOptionalID(args []string, index int) (int64, error) {
	if len(args) <= index {
		return 0, nil
	}
	return parseRequiredID(args, index)
}

func parseSignedLimit(args []string, index int, defaultValue int) (int, error) {
	if len(args) <= index {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(args[index])
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	return value, nil
}

func promptYesNo(reader *bufio.Reader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, ErrServiceUnavailable) {
		return fmt.Errorf("quiz service unavailable at %s", serverURL)
	}
	return err
}
