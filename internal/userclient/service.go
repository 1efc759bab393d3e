package userclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"quizhub/internal/quiz"
)

const (
	defaultServer            = "http://127.0.0.1:8080"
	defaultLeaderboardLimit  = 10
	defaultHTTPTimeout       = 5 * time.Second
	defaultMaxInvalidAnswers = 3
)

var errPlayCancelled = errors.New("submission cancelled")

type Config struct {
	Email             string
	Password          string
	ServerURL         string
	LeaderboardLimit  int
	MaxInvalidAnswers int
	HTTPTimeout       time.Duration
}

func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	email := strings.TrimSpace(cfg.Email)
	if email == "" || cfg.Password == "" {
		return errors.New("email and password are required")
	}

	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultServer
	}

	leaderboardLimit := cfg.LeaderboardLimit
	if leaderboardLimit == 0 {
		leaderboardLimit = defaultLeaderboardLimit
	}
	maxInvalidAnswers := cfg.MaxInvalidAnswers
	if maxInvalidAnswers <= 0 {
		maxInvalidAnswers = defaultMaxInvalidAnswers
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := NewHTTPClient(serverURL, &http.Client{Timeout: timeout})
	session, err := client.Login(ctx, email, cfg.Password)
	if err != nil {
		return describeClientError(err, serverURL)
	}

	reader := bufio.NewReader(in)
	fmt.Fprintf(out, "quiz-client\nuser=%s\nserver=%s\n\n", session.User.Username, serverURL)
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])

		switch command {
		case "help":
			printHelp(out)
		case "exit", "quit":
			return nil
		case "quizzes":
			categoryID, parseErr := parseOptionalID(args, 1)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid category id: %v\n", parseErr)
				continue
			}
			if err := runList(ctx, out, client, categoryID, serverURL); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "profile":
			if err := runProfile(ctx, out, client, serverURL); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "result":
			resultID, parseErr := parseRequiredID(args, 1)
			if parseErr != nil {
				fmt.Fprintln(out, "usage: result <result_id>")
				continue
			}
			if err := runResult(ctx, out, client, resultID, serverURL); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "leaderboard":
			quizID, parseErr := parseRequiredID(args, 1)
			if parseErr != nil {
				fmt.Fprintln(out, "usage: leaderboard <quiz_id> [limit]")
				continue
			}
			limit, parseErr := parseSignedLimit(args, 2, leaderboardLimit)
			if parseErr != nil {
				fmt.Fprintf(out, "invalid leaderboard limit: %v\n", parseErr)
				continue
			}
			if err := runLeaderboard(ctx, out, client, quizID, limit, serverURL); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "play":
			quizID, parseErr := parseRequiredID(args, 1)
			if parseErr != nil || len(args) != 2 {
				fmt.Fprintln(out, "usage: play <quiz_id>")
				continue
			}
			err := runPlay(ctx, reader, out, client, quizID, maxInvalidAnswers, leaderboardLimit, session.User.ID)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", describeClientError(err, serverURL))
			}
		default:
			fmt.Fprintln(out, "unknown command. type 'help' for usage.")
		}
	}
}

func runList(ctx context.Context, out io.Writer, client *HTTPClient, categoryID int64, serverURL string) error {
	quizzes, err := client.ListQuizzes(ctx, categoryID)
	if err != nil {
		return describeClientError(err, serverURL)
	}

	if len(quizzes) == 0 {
		fmt.Fprintln(out, "No quizzes.")
		return nil
	}

	fmt.Fprintln(out, "Quizzes:")
	for _, item := range quizzes {
		fmt.Fprintf(out, "%d. %s (%d questions)\n", item.ID, item.Title, item.TotalQuestions)
	}
	return nil
}

func runProfile(ctx context.Context, out io.Writer, client *HTTPClient, serverURL string) error {
	profile, err := client.Profile(ctx)
	if err != nil {
		return describeClientError(err, serverURL)
	}

	fmt.Fprintf(out, "%s <%s>\n", profile.User.Username, profile.User.Email)
	if len(profile.Results) == 0 {
		fmt.Fprintln(out, "No quizzes taken yet.")
		return nil
	}
	for _, result := range profile.Results {
		fmt.Fprintf(out, "result %d: %s %d/%d (%s)\n",
			result.ID,
			result.QuizTitle,
			result.Score,
			result.TotalQuestions,
			result.SubmittedAt.Format(time.RFC3339),
		)
	}
	return nil
}

func runResult(ctx context.Context, out io.Writer, client *HTTPClient, resultID int64, serverURL string) error {
	detail, err := client.GetResult(ctx, resultID)
	if err != nil {
		return describeClientError(err, serverURL)
	}
	printResult(out, detail)
	return nil
}

func runLeaderboard(ctx context.Context, out io.Writer, client *HTTPClient, quizID int64, limit int, serverURL string) error {
	entries, err := client.GetLeaderboard(ctx, quizID, limit)
	if err != nil {
		return describeClientError(err, serverURL)
	}
	printLeaderboard(out, quizID, entries)
	return nil
}

func runPlay(
	ctx context.Context,
	reader *bufio.Reader,
	out io.Writer,
	client *HTTPClient,
	quizID int64,
	maxInvalidAnswers int,
	leaderboardLimit int,
	userID int64,
) error {
	view, err := client.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}

	answers, err := playView(reader, out, view, maxInvalidAnswers)
	if err != nil {
		if errors.Is(err, errPlayCancelled) {
			fmt.Fprintln(out, err)
			return nil
		}
		return err
	}

	submitted, err := client.SubmitQuiz(ctx, quizID, answers)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && len(apiErr.MissingQuestionIDs) > 0 {
			return fmt.Errorf("%s: %v", apiErr.Message, apiErr.MissingQuestionIDs)
		}
		return err
	}
	fmt.Fprintf(out, "Score: %d/%d\n", submitted.Result.Score, submitted.TotalQuestions)

	var (
		detail  quiz.ResultDetail
		entries []quiz.LeaderboardEntry
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		detail, err = client.GetResult(groupCtx, submitted.Result.ID)
		return err
	})
	group.Go(func() error {
		var err error
		entries, err = client.GetLeaderboard(groupCtx, quizID, leaderboardLimit)
		return err
	})
	if err := group.Wait(); err != nil {
		return err
	}

	printResult(out, detail)
	for idx, entry := range entries {
		if entry.UserID == userID {
			fmt.Fprintf(out, "Leaderboard rank: %d\n", idx+1)
			break
		}
	}
	return nil
}

// playView asks every question of the quiz in order. The server rejects
// partial submissions, so running out of valid answers cancels the attempt.
func playView(reader *bufio.Reader, out io.Writer, view quiz.QuizView, maxInvalidAnswers int) ([]quiz.Selection, error) {
	if len(view.Questions) == 0 {
		return nil, fmt.Errorf("quiz %d has no questions yet: %w", view.Quiz.ID, errPlayCancelled)
	}

	fmt.Fprintf(out, "%s\n%s\n", view.Quiz.Title, view.Quiz.Description)
	if view.Status.Attempted {
		fmt.Fprintf(out, "You already scored %d/%d on this quiz.\n", view.Status.Score, view.Status.Total)
		retake, err := promptYesNo(reader, out, "Retake it? (yes/no): ")
		if err != nil {
			return nil, err
		}
		if !retake {
			return nil, errPlayCancelled
		}
	}

	answers := make([]quiz.Selection, 0, len(view.Questions))
	for idx, question := range view.Questions {
		fmt.Fprintf(out, "\nQuestion %d/%d\n%s\n", idx+1, len(view.Questions), question.Text)
		for optionIdx, option := range question.Options {
			fmt.Fprintf(out, "  %c. %s\n", 'A'+optionIdx, option)
		}

		selected := 0
		for attempt := 1; attempt <= maxInvalidAnswers; attempt++ {
			option, ok := promptAnswer(reader, out, len(question.Options))
			if ok {
				selected = option
				break
			}
			if remaining := maxInvalidAnswers - attempt; remaining > 0 {
				fmt.Fprintf(out, "Invalid answer. %d attempt(s) left.\n", remaining)
			}
		}
		if selected == 0 {
			return nil, fmt.Errorf("too many invalid answers: %w", errPlayCancelled)
		}
		answers = append(answers, quiz.Selection{QuestionID: question.ID, SelectedOption: selected})
	}
	return answers, nil
}
