package app

import (
	"context"
	"fmt"

	"eduquiz-service/internal/domain"
)

// CreateQuiz stores a new quiz and returns its canonical form. The raw
// questions are persisted as-is; normalization stays a read-side concern so
// older records and new ones flow through the same boundary.
func (s *QuizService) CreateQuiz(ctx context.Context, raw domain.RawQuiz) (domain.Quiz, error) {
	if raw.Title == "" {
		return domain.Quiz{}, fmt.Errorf("%w: title", domain.ErrMissingField)
	}
	if len(raw.QuizData.Questions) == 0 {
		return domain.Quiz{}, fmt.Errorf("%w: questions", domain.ErrMissingField)
	}
	raw.QuestionsCount = len(raw.QuizData.Questions)

	stored, err := s.catalog.CreateQuiz(ctx, raw)
	if err != nil {
		return domain.Quiz{}, err
	}
	return domain.NormalizeQuiz(stored), nil
}

// UpdateQuiz replaces a quiz's editable fields. Submissions already in the
// ledger are never touched.
func (s *QuizService) UpdateQuiz(ctx context.Context, raw domain.RawQuiz) (domain.Quiz, error) {
	if raw.ID == "" {
		return domain.Quiz{}, fmt.Errorf("%w: id", domain.ErrMissingField)
	}
	raw.QuestionsCount = len(raw.QuizData.Questions)

	stored, err := s.catalog.UpdateQuiz(ctx, raw)
	if err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(stored.ID)
	return domain.NormalizeQuiz(stored), nil
}

// DeleteQuiz removes a quiz from the catalog.
func (s *QuizService) DeleteQuiz(ctx context.Context, quizID string) error {
	if quizID == "" {
		return fmt.Errorf("%w: id", domain.ErrMissingField)
	}
	if err := s.catalog.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.invalidate(quizID)
	return nil
}

func (s *QuizService) invalidate(quizID string) {
	if inv, ok := s.quizzes.(CacheInvalidator); ok {
		inv.Invalidate(quizID)
	}
}

// ListQuizzes returns catalog quizzes in canonical form, newest first.
func (s *QuizService) ListQuizzes(ctx context.Context, publishedOnly bool) ([]domain.Quiz, error) {
	raws, err := s.catalog.ListQuizzes(ctx, publishedOnly)
	if err != nil {
		return nil, err
	}
	quizzes := make([]domain.Quiz, 0, len(raws))
	for _, raw := range raws {
		quizzes = append(quizzes, domain.NormalizeQuiz(raw))
	}
	return quizzes, nil
}
