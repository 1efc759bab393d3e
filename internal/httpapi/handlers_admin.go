package httpapi

import (
	"net/http"

	"quizhub/internal/quiz"
)

func (a *API) HandleAdminListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.quizzes.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Categories: categories})
}

func (a *API) HandleAdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var input quiz.CategoryInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, err)
		return
	}

	category, err := a.quizzes.CreateCategory(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (a *API) HandleAdminRenameCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parsePathID(r, "category_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var input quiz.CategoryInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, err)
		return
	}

	category, err := a.quizzes.RenameCategory(r.Context(), categoryID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// HandleAdminDeleteCategory cascades to the category's quizzes and everything
// recorded against them.
func (a *API) HandleAdminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parsePathID(r, "category_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := a.quizzes.DeleteCategory(r.Context(), categoryID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleAdminCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var input quiz.QuizInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, err)
		return
	}

	created, err := a.quizzes.CreateQuiz(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/quizzes/"+formatID(created.ID))
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) HandleAdminUpdateQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := parsePathID(r, "quiz_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var input quiz.QuizInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, err)
		return
	}

	updated, err := a.quizzes.UpdateQuiz(r.Context(), quizID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) HandleAdminDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := parsePathID(r, "quiz_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := a.quizzes.DeleteQuiz(r.Context(), quizID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAdminImportQuestions pulls questions from Open Trivia DB into the
// quiz. An empty body imports the default amount.
func (a *API) HandleAdminImportQuestions(w http.ResponseWriter, r *http.Request) {
	quizID, err := parsePathID(r, "quiz_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var request importRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &request); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	report, err := a.quizzes.ImportQuestions(r.Context(), quizID, request.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) HandleAdminListQuestions(w http.ResponseWriter, r *http.Request) {
	quizID, err := parseIntParam(r, "quiz_id", 0)
	if err != nil || quizID == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "quiz_id must be a positive integer"})
		return
	}

	questions, err := a.quizzes.ListQuestions(r.Context(), int64(quizID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questionsResponse{QuizID: int64(quizID), Questions: questions})
}

func (a *API) HandleAdminCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var input quiz.QuestionInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, err)
		return
	}

	question, err := a.quizzes.CreateQuestion(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (a *API) HandleAdminGetQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := parsePathID(r, "question_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	question, err := a.quizzes.GetQuestion(r.Context(), questionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

// HandleAdminUpdateQuestion edits a question in place. Existing results are
// re-scored against the new correct option.
func (a *API) HandleAdminUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := parsePathID(r, "question_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var input quiz.QuestionInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, err)
		return
	}

	question, err := a.quizzes.UpdateQuestion(r.Context(), questionID, input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (a *API) HandleAdminDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID, err := parsePathID(r, "question_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := a.quizzes.DeleteQuestion(r.Context(), questionID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
