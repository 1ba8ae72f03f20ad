package http

import (
	"encoding/json"
	"net/http"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/domain"

	"github.com/go-chi/chi/v5"
)

// StudentHandler serves the student-facing quiz routes. Identity arrives as
// an X-User-Email header and is resolved against the roster on every
// request; there is no fallback identity when the lookup fails.
type StudentHandler struct {
	service *app.QuizService
}

func NewStudentHandler(service *app.QuizService) *StudentHandler {
	return &StudentHandler{service: service}
}

func (h *StudentHandler) student(r *http.Request) (domain.Student, error) {
	return h.service.ResolveStudent(r.Context(), r.Header.Get("X-User-Email"))
}

type submitRequest struct {
	QuizID         string           `json:"quiz_id"`
	Answers        domain.AnswerSet `json:"answers"`
	Score          *int             `json:"score"`
	TotalQuestions *int             `json:"total_questions"`
}

type submitResponse struct {
	Success    bool              `json:"success"`
	Submission domain.Submission `json:"submission"`
}

// SubmitQuiz handles POST /api/student/quiz-submissions.
func (h *StudentHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	student, err := h.student(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	sub, err := h.service.SubmitAnswers(r.Context(), app.SubmitCommand{
		QuizID:         req.QuizID,
		StudentID:      student.ID,
		Answers:        req.Answers,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{Success: true, Submission: sub})
}

// ListQuizzes handles GET /api/student/quizzes: every published quiz with
// this student's status attached.
func (h *StudentHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	student, err := h.student(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reports, err := h.service.ListQuizStatuses(r.Context(), student.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "quizzes": reports})
}

// GetQuiz handles GET /api/student/quizzes/{id}: a published, unexpired
// quiz plus an already-submitted flag.
func (h *StudentHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	student, err := h.student(r)
	if err != nil {
		writeError(w, err)
		return
	}
	quiz, submitted, err := h.service.GetQuizForStudent(r.Context(), chi.URLParam(r, "quizID"), student.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"quiz":             quiz,
		"alreadySubmitted": submitted,
	})
}

// GetStatus handles GET /api/student/quiz-status/{id}.
func (h *StudentHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	student, err := h.student(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := h.service.GetQuizStatus(r.Context(), chi.URLParam(r, "quizID"), student.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Review handles GET /api/student/quiz-review/{id}: the quiz with the
// student's stored submission for the answer review view.
func (h *StudentHandler) Review(w http.ResponseWriter, r *http.Request) {
	student, err := h.student(r)
	if err != nil {
		writeError(w, err)
		return
	}
	quiz, sub, err := h.service.Review(r.Context(), chi.URLParam(r, "quizID"), student.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"quiz":       quiz,
		"submission": sub,
	})
}
