package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"quizhub/internal/auth"
	"quizhub/internal/quiz"
)

const (
	defaultLeaderboardLimit = 10
	formQuestionPrefix      = "question_"
)

func (a *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (a *API) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var input auth.RegisterInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, err)
		return
	}

	user, err := a.users.Register(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin issues a session token, returned in the body and as an
// HttpOnly cookie.
func (a *API) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input auth.LoginInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeServiceError(w, err)
		return
	}

	session, err := a.users.Login(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, session)
}

// HandleLogout clears the session cookie. Tokens are stateless, so a bearer
// token stays valid until it expires.
func (a *API) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "login required"})
		return
	}

	results, err := a.quizzes.ListResults(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{User: user, Results: results})
}

func (a *API) HandleListQuizzes(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseIntParam(r, "category_id", 0)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	quizzes, err := a.quizzes.ListQuizzes(r.Context(), int64(categoryID))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzesResponse{Quizzes: quizzes})
}

// HandleTakeQuiz returns the quiz without answers plus the caller's standing.
// An error message left by a rejected form submission is echoed back.
func (a *API) HandleTakeQuiz(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	quizID, err := parsePathID(r, "quiz_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	view, err := a.quizzes.GetQuizForTaking(r.Context(), quizID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, takeQuizResponse{
		QuizView: view,
		Error:    strings.TrimSpace(r.URL.Query().Get("error")),
	})
}

// HandleSubmitQuiz grades a submission. JSON bodies get 201 with the result;
// form posts (fields question_<id>=<option>) are redirected to the result, or
// back to the quiz with the error message.
func (a *API) HandleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	quizID, err := parsePathID(r, "quiz_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if !isJSONRequest(r) {
		a.submitForm(w, r, quizID, user.ID)
		return
	}

	var request submitRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := a.quizzes.SubmitQuiz(r.Context(), quizID, user.ID, request.Answers)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	total := 0
	if status, err := a.quizzes.QuizStatus(r.Context(), quizID, user.ID); err == nil {
		total = status.Total
	}

	location := resultURL(result.ID)
	w.Header().Set("Location", location)
	writeJSON(w, http.StatusCreated, submitResponse{
		Result:         result,
		TotalQuestions: total,
		ResultURL:      location,
	})
}

func (a *API) submitForm(w http.ResponseWriter, r *http.Request, quizID, userID int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid form body"})
		return
	}

	selections, err := selectionsFromForm(r.PostForm)
	if err == nil {
		var result quiz.QuizResult
		result, err = a.quizzes.SubmitQuiz(r.Context(), quizID, userID, selections)
		if err == nil {
			http.Redirect(w, r, resultURL(result.ID), http.StatusSeeOther)
			return
		}
	}

	if errors.Is(err, quiz.ErrEmptyQuiz) || errors.Is(err, quiz.ErrMissingAnswer) || errors.Is(err, quiz.ErrInvalidSelection) {
		target := fmt.Sprintf("/quizzes/%d?error=%s", quizID, url.QueryEscape(err.Error()))
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	writeServiceError(w, err)
}

// selectionsFromForm collects question_<id>=<option> fields in question id
// order. Unrelated fields are ignored; a question posted twice is rejected.
func selectionsFromForm(form url.Values) ([]quiz.Selection, error) {
	selections := make([]quiz.Selection, 0, len(form))
	for key, values := range form {
		if !strings.HasPrefix(key, formQuestionPrefix) || len(values) == 0 {
			continue
		}
		questionID, err := strconv.ParseInt(strings.TrimPrefix(key, formQuestionPrefix), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q", quiz.ErrInvalidSelection, key)
		}
		if len(values) > 1 {
			return nil, fmt.Errorf("%w: question %d answered more than once", quiz.ErrInvalidSelection, questionID)
		}
		option, err := strconv.Atoi(strings.TrimSpace(values[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: option %q for question %d", quiz.ErrInvalidSelection, values[0], questionID)
		}
		selections = append(selections, quiz.Selection{QuestionID: questionID, SelectedOption: option})
	}
	sort.Slice(selections, func(i, j int) bool {
		return selections[i].QuestionID < selections[j].QuestionID
	})
	return selections, nil
}

func (a *API) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	quizID, err := parsePathID(r, "quiz_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	limit, err := parseLeaderboardLimit(r, defaultLeaderboardLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	entries, err := a.quizzes.GetLeaderboard(r.Context(), quizID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{QuizID: quizID, Leaderboard: entries})
}

func (a *API) HandleGetResult(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	resultID, err := parsePathID(r, "result_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	detail, err := a.quizzes.GetResult(r.Context(), resultID, user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *API) HandleDeleteResult(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	resultID, err := parsePathID(r, "result_id")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := a.quizzes.DeleteResult(r.Context(), resultID, user.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func resultURL(resultID int64) string {
	return "/results/" + formatID(resultID)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
