package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"classquiz-service/internal/app"
	"classquiz-service/internal/domain"
)

// APIHandler exposes the account, search, authoring, and quiz-taking use
// cases over a small JSON API.
type APIHandler struct {
	accounts  *app.AccountService
	authoring *app.AuthoringService
	attempts  *app.AttemptService
}

func NewAPIHandler(accounts *app.AccountService, authoring *app.AuthoringService, attempts *app.AttemptService) *APIHandler {
	return &APIHandler{accounts: accounts, authoring: authoring, attempts: attempts}
}

// Register mounts the API routes onto mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/register", h.handleRegister)
	mux.HandleFunc("/api/login", h.handleLogin)
	mux.HandleFunc("/api/me", h.handleMe)
	mux.HandleFunc("/api/quizzes", h.handleQuizzes)
	mux.HandleFunc("/api/attempts/start", h.handleStartAttempt)
	mux.HandleFunc("/api/attempts/select", h.handleSelectAnswer)
	mux.HandleFunc("/api/attempts/submit", h.handleSubmitAnswer)
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	IsTeacher bool   `json:"isTeacher"`
}

func (h *APIHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	profile, err := h.accounts.Register(r.Context(), req.Email, req.Password, req.Name, req.IsTeacher)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *APIHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	token, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

func (h *APIHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	profile, err := h.accounts.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type publishQuizRequest struct {
	Title     string            `json:"title"`
	Questions []domain.Question `json:"questions"`
}

func (h *APIHandler) handleQuizzes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := h.authenticate(w, r); !ok {
			return
		}
		quizzes, err := h.authoring.SearchQuizzes(r.Context(), r.URL.Query().Get("teacher"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, quizzes)
	case http.MethodPost:
		userID, ok := h.authenticate(w, r)
		if !ok {
			return
		}
		var req publishQuizRequest
		if !decode(w, r, &req) {
			return
		}
		meta, err := h.authoring.PublishQuiz(r.Context(), userID, req.Title, req.Questions)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, meta)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type startAttemptRequest struct {
	QuizID string `json:"quizId"`
}

func (h *APIHandler) handleStartAttempt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	var req startAttemptRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.attempts.StartAttempt(r.Context(), userID, req.QuizID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

type selectAnswerRequest struct {
	Option string `json:"option"`
}

func (h *APIHandler) handleSelectAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	var req selectAnswerRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.attempts.SelectAnswer(userID, req.Option); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.attempts.Attempt(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *APIHandler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	res, err := h.attempts.SubmitAnswer(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// authenticate resolves the bearer token to a user id, writing a 401 on
// failure.
func (h *APIHandler) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return "", false
	}
	userID, err := h.accounts.VerifyToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNameTaken), errors.Is(err, domain.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotTeacher):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNoAnswerSelected),
		errors.Is(err, domain.ErrAttemptFinished),
		errors.Is(err, domain.ErrInvalidQuiz),
		errors.Is(err, domain.ErrInvalidRegistration),
		errors.Is(err, domain.ErrNoActiveQuestion):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}
