package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"eduquiz-service/internal/domain"
	"github.com/google/uuid"
)

// QuizLoader fetches canonical quiz content from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizStore keeps raw quiz records in memory. It serves both as the admin
// catalog and as a QuizLoader for the cache layers (useful for tests/demos).
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.RawQuiz
	clock   func() time.Time
}

func NewQuizStore(seed map[string]domain.RawQuiz) *QuizStore {
	quizzes := make(map[string]domain.RawQuiz, len(seed))
	for id, quiz := range seed {
		quiz.ID = id
		quizzes[id] = quiz
	}
	return &QuizStore{quizzes: quizzes, clock: time.Now}
}

func (s *QuizStore) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return domain.NormalizeQuiz(raw), nil
}

func (s *QuizStore) CreateQuiz(_ context.Context, quiz domain.RawQuiz) (domain.RawQuiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	now := s.clock().UTC()
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	s.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (s *QuizStore) UpdateQuiz(_ context.Context, quiz domain.RawQuiz) (domain.RawQuiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.RawQuiz{}, domain.ErrQuizNotFound
	}
	quiz.CreatedAt = existing.CreatedAt
	quiz.UpdatedAt = s.clock().UTC()
	s.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (s *QuizStore) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return nil
}

func (s *QuizStore) ListQuizzes(_ context.Context, publishedOnly bool) ([]domain.RawQuiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.RawQuiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		if publishedOnly && !quiz.IsPublished {
			continue
		}
		out = append(out, quiz)
	}
	// Newest first, id as tie-breaker for stable test output.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
