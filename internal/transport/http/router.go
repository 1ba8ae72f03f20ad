package http

import (
	"net/http"
	"time"

	"eduquiz-service/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires the quiz service into the REST and websocket surface.
func NewRouter(service *app.QuizService, feed *app.ResultsFeed, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-User-Email"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	student := NewStudentHandler(service)
	admin := NewAdminHandler(service)

	r.Route("/api", func(api chi.Router) {
		// The request deadline stays off the websocket route; writing the
		// timeout status to a hijacked connection only produces log noise.
		api.Use(middleware.Timeout(30 * time.Second))
		api.Route("/student", func(sr chi.Router) {
			sr.Post("/quiz-submissions", student.SubmitQuiz)
			sr.Get("/quizzes", student.ListQuizzes)
			sr.Get("/quizzes/{quizID}", student.GetQuiz)
			sr.Get("/quiz-status/{quizID}", student.GetStatus)
			sr.Get("/quiz-review/{quizID}", student.Review)
		})
		api.Route("/admin", func(ar chi.Router) {
			ar.Get("/quizzes", admin.ListQuizzes)
			ar.Post("/quizzes", admin.CreateQuiz)
			ar.Put("/quizzes/{quizID}", admin.UpdateQuiz)
			ar.Delete("/quizzes/{quizID}", admin.DeleteQuiz)
			ar.Get("/quiz-results/{quizID}", admin.QuizResults)
		})
	})

	if feed != nil {
		r.Get("/ws/results", NewWSHandler(feed).ServeWS)
	}

	return r
}
