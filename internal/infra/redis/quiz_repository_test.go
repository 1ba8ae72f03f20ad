package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuizLoader: memory.NewQuizStore(map[string]domain.RawQuiz{
			"quiz-1": sampleRawQuiz(),
		}),
	}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if quiz.Questions[0].CorrectAnswerIndex != 1 {
		t.Fatalf("expected canonical index 1, got %d", quiz.Questions[0].CorrectAnswerIndex)
	}
	if !mr.Exists("quiz:quiz-1:canonical") {
		t.Fatalf("expected canonical quiz cached in redis")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Questions[0].ID != quiz.Questions[0].ID {
		t.Fatalf("cache returned a different quiz: %+v", cached.Questions[0])
	}
}

func TestQuizRepositoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{
		QuizLoader: memory.NewQuizStore(map[string]domain.RawQuiz{
			"quiz-1": sampleRawQuiz(),
		}),
	}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)

	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	repo.Invalidate("quiz-1")
	if mr.Exists("quiz:quiz-1:canonical") {
		t.Fatalf("expected cache key removed")
	}
	_, _ = repo.GetQuiz(context.Background(), "quiz-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestQuizRepositoryRecoversFromCorruptEntry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{
		QuizLoader: memory.NewQuizStore(map[string]domain.RawQuiz{
			"quiz-1": sampleRawQuiz(),
		}),
	}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)

	if err := mr.Set("quiz:quiz-1:canonical", "{not json"); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.ID != "quiz-1" || loader.calls != 1 {
		t.Fatalf("expected reload past corrupt entry, quiz=%+v calls=%d", quiz, loader.calls)
	}
}

type countingLoader struct {
	memory.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleRawQuiz() domain.RawQuiz {
	return domain.RawQuiz{
		ID:          "quiz-1",
		Title:       "Weekly current affairs",
		IsPublished: true,
		QuizData: domain.QuizData{Questions: []domain.RawQuestion{
			{
				Text:          "What is 2 + 2?",
				Options:       []string{"3", "4", "5"},
				CorrectAnswer: json.RawMessage(`"1"`),
			},
		}},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
