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

// uniqueViolation is the Postgres error code raised by the
// (quiz_id, student_id) constraint on quiz_submissions.
const uniqueViolation = "23505"

// SubmissionLedger is the Postgres submission store. The table carries a
// UNIQUE (quiz_id, student_id) constraint; that constraint, not any
// application pre-check, is what makes concurrent duplicate submits safe.
type SubmissionLedger struct {
	pool *pgxpool.Pool
}

func NewSubmissionLedger(pool *pgxpool.Pool) *SubmissionLedger {
	return &SubmissionLedger{pool: pool}
}

func (l *SubmissionLedger) Insert(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("marshal answers: %w", err)
	}
	err = l.pool.QueryRow(ctx,
		`INSERT INTO quiz_submissions (quiz_id, student_id, answers, score, total_questions, percentage, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		sub.QuizID, sub.StudentID, answers, sub.Score, sub.TotalQuestions, sub.Percentage, sub.SubmittedAt,
	).Scan(&sub.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Submission{}, domain.ErrDuplicateSubmission
		}
		return domain.Submission{}, fmt.Errorf("insert submission: %w", err)
	}
	return sub, nil
}

func (l *SubmissionLedger) Get(ctx context.Context, quizID, studentID string) (domain.Submission, error) {
	sub, err := scanSubmission(l.pool.QueryRow(ctx,
		`SELECT id, quiz_id, student_id, answers, score, total_questions, percentage, submitted_at
		 FROM quiz_submissions WHERE quiz_id=$1 AND student_id=$2`, quizID, studentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Submission{}, domain.ErrSubmissionNotFound
		}
		return domain.Submission{}, fmt.Errorf("load submission: %w", err)
	}
	return sub, nil
}

func (l *SubmissionLedger) ListByStudent(ctx context.Context, studentID string) ([]domain.Submission, error) {
	return l.list(ctx,
		`SELECT id, quiz_id, student_id, answers, score, total_questions, percentage, submitted_at
		 FROM quiz_submissions WHERE student_id=$1 ORDER BY submitted_at DESC`, studentID)
}

func (l *SubmissionLedger) ListByQuiz(ctx context.Context, quizID string) ([]domain.Submission, error) {
	return l.list(ctx,
		`SELECT id, quiz_id, student_id, answers, score, total_questions, percentage, submitted_at
		 FROM quiz_submissions WHERE quiz_id=$1 ORDER BY submitted_at DESC`, quizID)
}

func (l *SubmissionLedger) list(ctx context.Context, query, arg string) ([]domain.Submission, error) {
	rows, err := l.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanSubmission(row rowScanner) (domain.Submission, error) {
	var sub domain.Submission
	var answers []byte
	err := row.Scan(&sub.ID, &sub.QuizID, &sub.StudentID, &answers,
		&sub.Score, &sub.TotalQuestions, &sub.Percentage, &sub.SubmittedAt)
	if err != nil {
		return domain.Submission{}, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &sub.Answers); err != nil {
			return domain.Submission{}, fmt.Errorf("unmarshal answers: %w", err)
		}
	}
	return sub, nil
}
