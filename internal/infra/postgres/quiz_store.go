package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"eduquiz-service/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// invalidTextRepresentation is raised when a quiz id does not parse as a
// UUID; callers handed an arbitrary id get not-found, not a server error.
const invalidTextRepresentation = "22P02"

func isNoQuizRow(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

// QuizStore persists raw quiz rows in Postgres. It implements both the
// admin catalog and the QuizLoader side consumed by the cache layers;
// LoadQuiz is where stored rows cross the normalization boundary.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

func (s *QuizStore) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	raw, err := s.scanQuiz(s.pool.QueryRow(ctx,
		`SELECT id, title, description, quiz_data, questions_count, is_published, is_expired, created_at, updated_at
		 FROM quizzes WHERE id=$1`, quizID))
	if err != nil {
		if isNoQuizRow(err) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return domain.NormalizeQuiz(raw), nil
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.RawQuiz) (domain.RawQuiz, error) {
	data, err := json.Marshal(quiz.QuizData)
	if err != nil {
		return domain.RawQuiz{}, fmt.Errorf("marshal quiz data: %w", err)
	}
	raw, err := s.scanQuiz(s.pool.QueryRow(ctx,
		`INSERT INTO quizzes (title, description, quiz_data, questions_count, is_published, is_expired)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, title, description, quiz_data, questions_count, is_published, is_expired, created_at, updated_at`,
		quiz.Title, quiz.Description, data, quiz.QuestionsCount, quiz.IsPublished, quiz.IsExpired))
	if err != nil {
		return domain.RawQuiz{}, fmt.Errorf("create quiz: %w", err)
	}
	return raw, nil
}

func (s *QuizStore) UpdateQuiz(ctx context.Context, quiz domain.RawQuiz) (domain.RawQuiz, error) {
	data, err := json.Marshal(quiz.QuizData)
	if err != nil {
		return domain.RawQuiz{}, fmt.Errorf("marshal quiz data: %w", err)
	}
	raw, err := s.scanQuiz(s.pool.QueryRow(ctx,
		`UPDATE quizzes
		 SET title=$2, description=$3, quiz_data=$4, questions_count=$5, is_published=$6, is_expired=$7, updated_at=now()
		 WHERE id=$1
		 RETURNING id, title, description, quiz_data, questions_count, is_published, is_expired, created_at, updated_at`,
		quiz.ID, quiz.Title, quiz.Description, data, quiz.QuestionsCount, quiz.IsPublished, quiz.IsExpired))
	if err != nil {
		if isNoQuizRow(err) {
			return domain.RawQuiz{}, domain.ErrQuizNotFound
		}
		return domain.RawQuiz{}, fmt.Errorf("update quiz: %w", err)
	}
	return raw, nil
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, quizID)
	if err != nil {
		if isNoQuizRow(err) {
			return domain.ErrQuizNotFound
		}
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context, publishedOnly bool) ([]domain.RawQuiz, error) {
	query := `SELECT id, title, description, quiz_data, questions_count, is_published, is_expired, created_at, updated_at
		 FROM quizzes ORDER BY created_at DESC`
	if publishedOnly {
		query = `SELECT id, title, description, quiz_data, questions_count, is_published, is_expired, created_at, updated_at
		 FROM quizzes WHERE is_published ORDER BY created_at DESC`
	}
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var out []domain.RawQuiz
	for rows.Next() {
		raw, err := s.scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		out = append(out, raw)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *QuizStore) scanQuiz(row rowScanner) (domain.RawQuiz, error) {
	var raw domain.RawQuiz
	var data []byte
	err := row.Scan(&raw.ID, &raw.Title, &raw.Description, &data, &raw.QuestionsCount,
		&raw.IsPublished, &raw.IsExpired, &raw.CreatedAt, &raw.UpdatedAt)
	if err != nil {
		return domain.RawQuiz{}, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw.QuizData); err != nil {
			return domain.RawQuiz{}, fmt.Errorf("unmarshal quiz data: %w", err)
		}
	}
	return raw, nil
}
