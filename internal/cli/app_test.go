package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"quizhub/internal/auth"
	"quizhub/internal/opentdb"
	"quizhub/internal/quiz"
	"quizhub/internal/quiz/sqlite"
)

const seedYAML = `
categories:
  - name: Geography
    quizzes:
      - title: Capitals
        description: World capitals quiz
        questions:
          - text: Capital of France?
            options: [Lyon, Paris, Nice, Lille]
            correct: 2
          - text: Capital of Japan?
            options: [Osaka, Kyoto, Tokyo, Nara]
            correct: 3
  - name: Science
    quizzes:
      - title: Planets
        description: Solar system basics
        questions:
          - text: Largest planet?
            options: [Mars, Jupiter, Venus, Earth]
            correct: 2
`

func newDeps(t *testing.T) Deps {
	t.Helper()

	store, err := sqlite.NewSQLiteStore(filepath.Join(t.TempDir(), "admin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	fetcher := func(context.Context, int) ([]opentdb.RawQuestion, error) {
		return []opentdb.RawQuestion{
			{Question: "Red planet?", CorrectAnswer: "Mars", IncorrectAnswers: []string{"Venus", "Earth", "Saturn"}},
			{Question: "Largest planet?", CorrectAnswer: "Jupiter", IncorrectAnswers: []string{"Mars", "Venus", "Earth"}},
		}, nil
	}

	return Deps{
		Quizzes: quiz.NewService(store, store, fetcher, nil),
		Users: auth.NewService(store, auth.NewTokenManager("test-secret-0123456789", time.Hour)).
			WithBcryptCost(bcrypt.MinCost),
	}
}

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSeedCreatesCatalogAndIsIdempotent(t *testing.T) {
	deps := newDeps(t)
	path := writeSeedFile(t, seedYAML)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, Run(ctx, []string{"seed", path}, &out, deps))
	assert.Contains(t, out.String(), "seeded 2 categories, 2 quizzes, 3 questions (0 already present)")

	out.Reset()
	require.NoError(t, Run(ctx, []string{"seed", path}, &out, deps))
	assert.Contains(t, out.String(), "seeded 0 categories, 0 quizzes, 0 questions (3 already present)")

	quizzes, err := deps.Quizzes.ListQuizzes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, quizzes, 2)
	for _, item := range quizzes {
		switch item.Title {
		case "Capitals":
			assert.Equal(t, 2, item.TotalQuestions)
		case "Planets":
			assert.Equal(t, 1, item.TotalQuestions)
		default:
			t.Fatalf("unexpected quiz %q", item.Title)
		}
	}

	out.Reset()
	require.NoError(t, Run(ctx, []string{"categories"}, &out, deps))
	assert.Contains(t, out.String(), "Geography")
	assert.Contains(t, out.String(), "Capitals (2 questions)")
}

func TestSeedRejectsInvalidQuestion(t *testing.T) {
	deps := newDeps(t)
	path := writeSeedFile(t, `
categories:
  - name: Geography
    quizzes:
      - title: Capitals
        description: World capitals quiz
        questions:
          - text: Capital of France?
            options: [Lyon, Paris]
            correct: 2
`)

	err := Run(context.Background(), []string{"seed", path}, &bytes.Buffer{}, deps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, quiz.ErrValidation), "got %v", err)
}

func TestSeedRejectsUnknownKeys(t *testing.T) {
	path := writeSeedFile(t, "categories:\n  - name: Geography\n    colour: blue\n")

	_, err := LoadCatalog(path)
	require.Error(t, err)
}

func TestPromoteAndDemote(t *testing.T) {
	deps := newDeps(t)
	ctx := context.Background()
	_, err := deps.Users.Register(ctx, auth.RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Run(ctx, []string{"promote", "alice"}, &out, deps))
	assert.Contains(t, out.String(), "alice is_admin=true")

	session, err := deps.Users.Login(ctx, auth.LoginInput{Email: "alice@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	assert.True(t, session.User.IsAdmin)

	require.NoError(t, Run(ctx, []string{"demote", "alice"}, &out, deps))
	user, err := deps.Users.GetUser(ctx, session.User.ID)
	require.NoError(t, err)
	assert.False(t, user.IsAdmin)

	err = Run(ctx, []string{"promote", "nobody"}, &out, deps)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestImportCommand(t *testing.T) {
	deps := newDeps(t)
	ctx := context.Background()
	require.NoError(t, Run(ctx, []string{"seed", writeSeedFile(t, seedYAML)}, &bytes.Buffer{}, deps))

	quizzes, err := deps.Quizzes.ListQuizzes(ctx, 0)
	require.NoError(t, err)
	var planetsID int64
	for _, item := range quizzes {
		if item.Title == "Planets" {
			planetsID = item.ID
		}
	}
	require.NotZero(t, planetsID)

	var out bytes.Buffer
	require.NoError(t, Run(ctx, []string{"import", strconv.FormatInt(planetsID, 10), "2"}, &out, deps))
	assert.Contains(t, out.String(), "fetched 2, imported 1, skipped 1")
}

func TestRunUsageErrors(t *testing.T) {
	deps := newDeps(t)
	for _, args := range [][]string{
		nil,
		{"promote"},
		{"seed"},
		{"import", "abc"},
		{"import", "1", "-3"},
		{"frobnicate"},
	} {
		var out bytes.Buffer
		err := Run(context.Background(), args, &out, deps)
		if !errors.Is(err, ErrUsage) {
			t.Fatalf("Run(%q) error = %v, want ErrUsage", strings.Join(args, " "), err)
		}
	}
}
