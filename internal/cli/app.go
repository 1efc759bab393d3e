package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"quizhub/internal/auth"
	"quizhub/internal/logger"
	"quizhub/internal/quiz"
)

var ErrUsage = errors.New("usage error")

// Deps are the services the admin commands operate on. They talk to the
// store directly, not through the HTTP API.
type Deps struct {
	Quizzes *quiz.Service
	Users   *auth.Service
	Log     *logger.Logger
}

func Run(ctx context.Context, args []string, out io.Writer, deps Deps) error {
	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}
	if len(args) == 0 {
		printUsage(out)
		return ErrUsage
	}

	command := strings.ToLower(args[0])
	switch command {
	case "help":
		printUsage(out)
		return nil
	case "promote", "demote":
		if len(args) != 2 {
			return usageError("%s <username>", command)
		}
		return runSetAdmin(ctx, out, deps, args[1], command == "promote")
	case "seed":
		if len(args) != 2 {
			return usageError("seed <file.yaml>")
		}
		catalog, err := LoadCatalog(args[1])
		if err != nil {
			return err
		}
		report, err := Seed(ctx, deps.Quizzes, catalog)
		if err != nil {
			return err
		}
		deps.Log.Info("catalog seeded",
			"file", args[1],
			"categories", report.Categories,
			"quizzes", report.Quizzes,
			"questions", report.Questions,
			"skipped", report.SkippedQuestions,
		)
		fmt.Fprintf(out, "seeded %d categories, %d quizzes, %d questions (%d already present)\n",
			report.Categories, report.Quizzes, report.Questions, report.SkippedQuestions)
		return nil
	case "import":
		if len(args) < 2 || len(args) > 3 {
			return usageError("import <quiz_id> [amount]")
		}
		return runImport(ctx, out, deps, args[1:])
	case "categories":
		return runCategories(ctx, out, deps)
	default:
		printUsage(out)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
}

func runSetAdmin(ctx context.Context, out io.Writer, deps Deps, username string, isAdmin bool) error {
	user, err := deps.Users.SetAdmin(ctx, username, isAdmin)
	if err != nil {
		return fmt.Errorf("set admin for %q: %w", username, err)
	}
	deps.Log.Info("admin flag changed", "user_id", user.ID, "username", user.Username, "is_admin", user.IsAdmin)
	fmt.Fprintf(out, "%s is_admin=%t\n", user.Username, user.IsAdmin)
	return nil
}

func runImport(ctx context.Context, out io.Writer, deps Deps, args []string) error {
	quizID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || quizID <= 0 {
		return usageError("import <quiz_id> [amount]")
	}
	amount := 0
	if len(args) == 2 {
		amount, err = strconv.Atoi(args[1])
		if err != nil || amount <= 0 {
			return usageError("import <quiz_id> [amount]")
		}
	}

	report, err := deps.Quizzes.ImportQuestions(ctx, quizID, amount)
	if err != nil {
		return err
	}
	deps.Log.Info("questions imported",
		"quiz_id", report.QuizID,
		"fetched", report.Fetched,
		"imported", report.Imported,
		"skipped", report.Skipped,
	)
	fmt.Fprintf(out, "quiz %d: fetched %d, imported %d, skipped %d\n",
		report.QuizID, report.Fetched, report.Imported, report.Skipped)
	return nil
}

func runCategories(ctx context.Context, out io.Writer, deps Deps) error {
	categories, err := deps.Quizzes.ListCategories(ctx)
	if err != nil {
		return err
	}
	quizzes, err := deps.Quizzes.ListQuizzes(ctx, 0)
	if err != nil {
		return err
	}

	for _, category := range categories {
		fmt.Fprintf(out, "%d. %s\n", category.ID, category.Name)
		for _, item := range quizzes {
			if item.CategoryID == category.ID {
				fmt.Fprintf(out, "   %d. %s (%d questions)\n", item.ID, item.Title, item.TotalQuestions)
			}
		}
	}
	return nil
}

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  promote <username>")
	fmt.Fprintln(out, "  demote <username>")
	fmt.Fprintln(out, "  seed <file.yaml>")
	fmt.Fprintln(out, "  import <quiz_id> [amount]")
	fmt.Fprintln(out, "  categories")
}
