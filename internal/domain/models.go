package domain

import "time"

// Question is the canonical shape of one multiple-choice item. Historic
// records use either options/answers and either correctAnswerIndex/
// correctAnswer, so the canonical form populates both spellings with the
// same resolved value and consumers read whichever they already know.
type Question struct {
	ID                 string   `json:"id"`
	Text               string   `json:"question"`
	Options            []string `json:"options"`
	Answers            []string `json:"answers"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	CorrectAnswer      int      `json:"correctAnswer"`
	Point              int      `json:"point"` // defaults to 10; aggregate scoring is still 1 per correct answer
}

// Quiz is a named, ordered set of questions with publish/expiry state.
type Quiz struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Questions      []Question `json:"questions"`
	QuestionsCount int        `json:"questions_count"`
	IsPublished    bool       `json:"is_published"`
	IsExpired      bool       `json:"is_expired"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// AnswerSet maps a question id (or its 0-based index rendered as a string,
// for older clients) to the chosen option index.
type AnswerSet map[string]int

// Submission is one student's one-time answer to one quiz. Rows are
// immutable once written; (QuizID, StudentID) is unique in the ledger.
type Submission struct {
	ID             string    `json:"id,omitempty"`
	QuizID         string    `json:"quizId"`
	StudentID      string    `json:"studentId"`
	Answers        AnswerSet `json:"answers"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     int       `json:"percentage"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// Student is a roster entry resolved from a login email.
type Student struct {
	ID       string `json:"studentId"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// QuizStatus is the per-student lifecycle state of a quiz.
type QuizStatus string

const (
	// StatusActive: published, not expired, nothing submitted yet.
	StatusActive QuizStatus = "active"
	// StatusSubmitted: a ledger entry exists. Terminal.
	StatusSubmitted QuizStatus = "submitted"
	// StatusMissed: the quiz expired before the student submitted. Terminal.
	StatusMissed QuizStatus = "missed"
)

// StatusReport is the answer to a quiz-status query. Percentage and
// SubmittedAt are only meaningful when Status is StatusSubmitted.
type StatusReport struct {
	QuizID         string     `json:"quizId"`
	Title          string     `json:"title"`
	QuestionsCount int        `json:"questions_count"`
	Status         QuizStatus `json:"status"`
	Percentage     int        `json:"score,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
}

// SubmissionEvent is the feed/broker payload emitted once a submission is
// persisted. It intentionally omits the answer set.
type SubmissionEvent struct {
	QuizID      string    `json:"quizId"`
	StudentID   string    `json:"studentId"`
	Score       int       `json:"score"`
	Total       int       `json:"totalQuestions"`
	Percentage  int       `json:"percentage"`
	SubmittedAt time.Time `json:"submittedAt"`
}
