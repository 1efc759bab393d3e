package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"quizhub/internal/quiz"
)

// Catalog is the seed file layout:
//
//	categories:
//	  - name: Geography
//	    quizzes:
//	      - title: Capitals
//	        description: World capitals
//	        questions:
//	          - text: Capital of France?
//	            options: [Lyon, Paris, Nice, Lille]
//	            correct: 2
type Catalog struct {
	Categories []SeedCategory `yaml:"categories"`
}

type SeedCategory struct {
	Name    string     `yaml:"name"`
	Quizzes []SeedQuiz `yaml:"quizzes"`
}

type SeedQuiz struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Questions   []SeedQuestion `yaml:"questions"`
}

type SeedQuestion struct {
	Text    string   `yaml:"text"`
	Options []string `yaml:"options"`
	Correct int      `yaml:"correct"`
}

type SeedReport struct {
	Categories       int
	Quizzes          int
	Questions        int
	SkippedQuestions int
}

func LoadCatalog(path string) (Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open seed file: %w", err)
	}
	defer file.Close()

	var catalog Catalog
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return catalog, nil
}

// Seed creates whatever part of the catalog is missing. Existing categories
// and quizzes are matched by name and title; questions already in a quiz are
// skipped, so seeding the same file twice is a no-op.
func Seed(ctx context.Context, service *quiz.Service, catalog Catalog) (SeedReport, error) {
	var report SeedReport

	for _, seedCategory := range catalog.Categories {
		category, created, err := ensureCategory(ctx, service, seedCategory.Name)
		if err != nil {
			return report, err
		}
		if created {
			report.Categories++
		}

		for _, seedQuiz := range seedCategory.Quizzes {
			item, created, err := ensureQuiz(ctx, service, category.ID, seedQuiz)
			if err != nil {
				return report, err
			}
			if created {
				report.Quizzes++
			}

			for _, seedQuestion := range seedQuiz.Questions {
				_, err := service.CreateQuestion(ctx, quiz.QuestionInput{
					QuizID:        item.ID,
					Text:          seedQuestion.Text,
					Options:       seedQuestion.Options,
					CorrectOption: seedQuestion.Correct,
				})
				switch {
				case errors.Is(err, quiz.ErrDuplicateName):
					report.SkippedQuestions++
				case err != nil:
					return report, fmt.Errorf("seed question %q in %q: %w", seedQuestion.Text, item.Title, err)
				default:
					report.Questions++
				}
			}
		}
	}
	return report, nil
}

func ensureCategory(ctx context.Context, service *quiz.Service, name string) (quiz.Category, bool, error) {
	category, err := service.CreateCategory(ctx, quiz.CategoryInput{Name: name})
	if err == nil {
		return category, true, nil
	}
	if !errors.Is(err, quiz.ErrDuplicateName) {
		return quiz.Category{}, false, fmt.Errorf("seed category %q: %w", name, err)
	}

	categories, err := service.ListCategories(ctx)
	if err != nil {
		return quiz.Category{}, false, err
	}
	for _, existing := range categories {
		if existing.Name == strings.TrimSpace(name) {
			return existing, false, nil
		}
	}
	return quiz.Category{}, false, fmt.Errorf("seed category %q: %w", name, quiz.ErrNotFound)
}

func ensureQuiz(ctx context.Context, service *quiz.Service, categoryID int64, seedQuiz SeedQuiz) (quiz.Quiz, bool, error) {
	item, err := service.CreateQuiz(ctx, quiz.QuizInput{
		CategoryID:  categoryID,
		Title:       seedQuiz.Title,
		Description: seedQuiz.Description,
	})
	if err == nil {
		return item, true, nil
	}
	if !errors.Is(err, quiz.ErrDuplicateName) {
		return quiz.Quiz{}, false, fmt.Errorf("seed quiz %q: %w", seedQuiz.Title, err)
	}

	// Titles are unique across categories.
	quizzes, err := service.ListQuizzes(ctx, 0)
	if err != nil {
		return quiz.Quiz{}, false, err
	}
	for _, existing := range quizzes {
		if existing.Title == strings.TrimSpace(seedQuiz.Title) {
			return existing, false, nil
		}
	}
	return quiz.Quiz{}, false, fmt.Errorf("seed quiz %q: %w", seedQuiz.Title, quiz.ErrNotFound)
}
