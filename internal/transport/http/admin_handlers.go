package http

import (
	"encoding/json"
	"net/http"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/domain"

	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the quiz curation routes. Authentication for the
// admin surface is handled upstream (gateway); this service only owns the
// quiz semantics.
type AdminHandler struct {
	service *app.QuizService
}

func NewAdminHandler(service *app.QuizService) *AdminHandler {
	return &AdminHandler{service: service}
}

type quizRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Questions   []domain.RawQuestion `json:"questions"`
	IsPublished bool                 `json:"isPublished"`
	IsExpired   bool                 `json:"isExpired"`
}

func (req quizRequest) toRaw(id string) domain.RawQuiz {
	return domain.RawQuiz{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		IsPublished: req.IsPublished,
		IsExpired:   req.IsExpired,
		QuizData:    domain.QuizData{Questions: req.Questions},
	}
}

// CreateQuiz handles POST /api/admin/quizzes.
func (h *AdminHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	quiz, err := h.service.CreateQuiz(r.Context(), req.toRaw(""))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"quiz": quiz})
}

// UpdateQuiz handles PUT /api/admin/quizzes/{id}.
func (h *AdminHandler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}
	quiz, err := h.service.UpdateQuiz(r.Context(), req.toRaw(chi.URLParam(r, "quizID")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"quiz": quiz})
}

// DeleteQuiz handles DELETE /api/admin/quizzes/{id}.
func (h *AdminHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ListQuizzes handles GET /api/admin/quizzes, drafts included.
func (h *AdminHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListQuizzes(r.Context(), false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"quizzes": quizzes})
}

// QuizResults handles GET /api/admin/quiz-results/{id}: every submission
// recorded for a quiz.
func (h *AdminHandler) QuizResults(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.ListSubmissions(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"submissions": subs})
}
