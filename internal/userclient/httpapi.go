package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"quizhub/internal/auth"
	"quizhub/internal/quiz"
)

var ErrServiceUnavailable = errors.New("quiz service unavailable")

type APIError struct {
	StatusCode         int
	Message            string
	MissingQuestionIDs []int64
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// HTTPClient talks to the quiz service JSON API. Login stores the session
// token, which is then sent as a bearer token on every request.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type quizzesResponse struct {
	Quizzes []quiz.Quiz `json:"quizzes"`
}

type takeQuizResponse struct {
	quiz.QuizView
	Error string `json:"error,omitempty"`
}

type submitRequest struct {
	Answers []quiz.Selection `json:"answers"`
}

type SubmitResponse struct {
	Result         quiz.QuizResult `json:"result"`
	TotalQuestions int             `json:"total_questions"`
	ResultURL      string          `json:"result_url"`
}

type leaderboardResponse struct {
	QuizID      int64                   `json:"quiz_id"`
	Leaderboard []quiz.LeaderboardEntry `json:"leaderboard"`
}

type Profile struct {
	User    auth.User            `json:"user"`
	Results []quiz.ResultSummary `json:"results"`
}

type errorResponse struct {
	Error              string  `json:"error"`
	MissingQuestionIDs []int64 `json:"missing_question_ids,omitempty"`
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultServer
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (auth.Session, error) {
	var session auth.Session
	request := auth.LoginInput{Email: strings.TrimSpace(email), Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/login", request, &session); err != nil {
		return auth.Session{}, err
	}
	c.token = session.Token
	return session, nil
}

func (c *HTTPClient) Register(ctx context.Context, input auth.RegisterInput) (auth.User, error) {
	var user auth.User
	if err := c.doJSON(ctx, http.MethodPost, "/register", input, &user); err != nil {
		return auth.User{}, err
	}
	return user, nil
}

func (c *HTTPClient) Profile(ctx context.Context) (Profile, error) {
	var payload Profile
	if err := c.doJSON(ctx, http.MethodGet, "/profile", nil, &payload); err != nil {
		return Profile{}, err
	}
	return payload, nil
}

// ListQuizzes lists every quiz, or only one category's when categoryID > 0.
func (c *HTTPClient) ListQuizzes(ctx context.Context, categoryID int64) ([]quiz.Quiz, error) {
	path := "/quizzes"
	if categoryID > 0 {
		query := url.Values{}
		query.Set("category_id", strconv.FormatInt(categoryID, 10))
		path += "?" + query.Encode()
	}

	var payload quizzesResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Quizzes, nil
}

func (c *HTTPClient) GetQuiz(ctx context.Context, quizID int64) (quiz.QuizView, error) {
	var payload takeQuizResponse
	if err := c.doJSON(ctx, http.MethodGet, quizPath(quizID), nil, &payload); err != nil {
		return quiz.QuizView{}, err
	}
	return payload.QuizView, nil
}

func (c *HTTPClient) SubmitQuiz(ctx context.Context, quizID int64, answers []quiz.Selection) (SubmitResponse, error) {
	var payload SubmitResponse
	request := submitRequest{Answers: answers}
	if err := c.doJSON(ctx, http.MethodPost, quizPath(quizID)+"/submissions", request, &payload); err != nil {
		return SubmitResponse{}, err
	}
	return payload, nil
}

func (c *HTTPClient) GetResult(ctx context.Context, resultID int64) (quiz.ResultDetail, error) {
	var payload quiz.ResultDetail
	path := "/results/" + strconv.FormatInt(resultID, 10)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return quiz.ResultDetail{}, err
	}
	return payload, nil
}

func (c *HTTPClient) DeleteResult(ctx context.Context, resultID int64) error {
	path := "/results/" + strconv.FormatInt(resultID, 10)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// GetLeaderboard returns the top entries for a quiz. A limit <= 0 asks for
// the whole board.
func (c *HTTPClient) GetLeaderboard(ctx context.Context, quizID int64, limit int) ([]quiz.LeaderboardEntry, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	path := quizPath(quizID) + "/leaderboard?" + query.Encode()

	var payload leaderboardResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Leaderboard, nil
}

func quizPath(quizID int64) string {
	return "/quizzes/" + strconv.FormatInt(quizID, 10)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
			apiErr.MissingQuestionIDs = payload.MissingQuestionIDs
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil || response.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}
