package domain

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawQuestion is a question as it exists in storage: field names and types
// drifted across quiz generations, so everything shape-sensitive is kept
// loose here and resolved by NormalizeQuestions.
type RawQuestion struct {
	ID                 string          `json:"id"`
	Text               string          `json:"question"`
	Options            []string        `json:"options"`
	Answers            []string        `json:"answers"`
	CorrectAnswerIndex json.RawMessage `json:"correctAnswerIndex"`
	CorrectAnswer      json.RawMessage `json:"correctAnswer"`
	Point              *int            `json:"point"`
}

// RawQuiz mirrors a stored quiz row before normalization.
type RawQuiz struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	QuestionsCount int       `json:"questions_count"`
	IsPublished    bool      `json:"is_published"`
	IsExpired      bool      `json:"is_expired"`
	QuizData       QuizData  `json:"quiz_data"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// QuizData is the quiz_data JSONB envelope.
type QuizData struct {
	Questions []RawQuestion `json:"questions"`
}

// NormalizeQuiz converts a stored quiz into its canonical form. Pure aside
// from a warning log on unsatisfiable answer keys.
func NormalizeQuiz(raw RawQuiz) Quiz {
	questions := NormalizeQuestions(raw.QuizData.Questions)
	count := raw.QuestionsCount
	if count == 0 {
		count = len(questions)
	}
	return Quiz{
		ID:             raw.ID,
		Title:          raw.Title,
		Description:    raw.Description,
		Questions:      questions,
		QuestionsCount: count,
		IsPublished:    raw.IsPublished,
		IsExpired:      raw.IsExpired,
		CreatedAt:      raw.CreatedAt,
		UpdatedAt:      raw.UpdatedAt,
	}
}

// NormalizeQuestions produces the canonical question list: same order and
// length as the input, ids assigned where missing, options/answers merged,
// and the correct-answer index coerced to an integer (defaulting to 0).
func NormalizeQuestions(raw []RawQuestion) []Question {
	out := make([]Question, len(raw))
	for i, rq := range raw {
		options := rq.Options
		if len(options) == 0 {
			options = rq.Answers
		}
		if options == nil {
			options = []string{}
		}

		correct, ok := coerceIndex(rq.CorrectAnswerIndex)
		if !ok {
			correct, _ = coerceIndex(rq.CorrectAnswer)
		}
		if correct >= len(options) || correct < 0 {
			// Kept as-is rather than rewritten: the scorer will simply never
			// match, and silently moving the answer key is worse than a
			// quiz nobody aces.
			log.Printf("quiz question %d: correct index %d outside options range %d", i, correct, len(options))
		}

		id := rq.ID
		if id == "" {
			id = "q_" + strconv.Itoa(i)
		}

		point := 10
		if rq.Point != nil {
			point = *rq.Point
		}

		out[i] = Question{
			ID:                 id,
			Text:               rq.Text,
			Options:            options,
			Answers:            options,
			CorrectAnswerIndex: correct,
			CorrectAnswer:      correct,
			Point:              point,
		}
	}
	return out
}

// coerceIndex turns a raw JSON value (number, numeric string, null, absent)
// into an answer index. The bool reports whether the field was present at
// all; a present but unparseable value coerces to 0.
func coerceIndex(raw json.RawMessage) (int, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int(n), true
		}
		return 0, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if v, err := strconv.Atoi(s); err == nil {
			return v, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return int(f), true
		}
		return 0, true
	}

	return 0, true
}
