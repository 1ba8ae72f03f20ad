package memory

import (
	"context"
	"sort"
	"sync"

	"eduquiz-service/internal/domain"
	"github.com/google/uuid"
)

// SubmissionLedger is the in-memory append-only submission store. Entries
// are never updated or deleted; the composite key guards duplicates the way
// the Postgres uniqueness constraint does.
type SubmissionLedger struct {
	mu      sync.RWMutex
	entries map[ledgerKey]domain.Submission
}

type ledgerKey struct {
	quizID    string
	studentID string
}

func NewSubmissionLedger() *SubmissionLedger {
	return &SubmissionLedger{entries: make(map[ledgerKey]domain.Submission)}
}

func (l *SubmissionLedger) Insert(_ context.Context, sub domain.Submission) (domain.Submission, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey{quizID: sub.QuizID, studentID: sub.StudentID}
	if _, ok := l.entries[key]; ok {
		return domain.Submission{}, domain.ErrDuplicateSubmission
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	l.entries[key] = sub
	return sub, nil
}

func (l *SubmissionLedger) Get(_ context.Context, quizID, studentID string) (domain.Submission, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	sub, ok := l.entries[ledgerKey{quizID: quizID, studentID: studentID}]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return sub, nil
}

func (l *SubmissionLedger) ListByStudent(_ context.Context, studentID string) ([]domain.Submission, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Submission, 0)
	for key, sub := range l.entries {
		if key.studentID == studentID {
			out = append(out, sub)
		}
	}
	sortSubmissions(out)
	return out, nil
}

func (l *SubmissionLedger) ListByQuiz(_ context.Context, quizID string) ([]domain.Submission, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Submission, 0)
	for key, sub := range l.entries {
		if key.quizID == quizID {
			out = append(out, sub)
		}
	}
	sortSubmissions(out)
	return out, nil
}

func sortSubmissions(subs []domain.Submission) {
	sort.Slice(subs, func(i, j int) bool {
		if !subs[i].SubmittedAt.Equal(subs[j].SubmittedAt) {
			return subs[i].SubmittedAt.After(subs[j].SubmittedAt)
		}
		return subs[i].ID < subs[j].ID
	})
}
