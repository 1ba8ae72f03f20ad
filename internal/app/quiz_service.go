package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"eduquiz-service/internal/domain"
)

// QuizRepository serves canonical quizzes (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// CacheInvalidator is implemented by QuizRepository backends that cache
// quizzes. Admin writes drop the cached copy so reads and scoring never see
// a stale answer key.
type CacheInvalidator interface {
	Invalidate(quizID string)
}

// QuizCatalog is the admin-facing store for raw quiz records.
type QuizCatalog interface {
	CreateQuiz(ctx context.Context, quiz domain.RawQuiz) (domain.RawQuiz, error)
	UpdateQuiz(ctx context.Context, quiz domain.RawQuiz) (domain.RawQuiz, error)
	DeleteQuiz(ctx context.Context, quizID string) error
	ListQuizzes(ctx context.Context, publishedOnly bool) ([]domain.RawQuiz, error)
}

// SubmissionLedger is the append-only store of submissions. Insert must
// surface a second write for the same (quiz, student) pair as
// domain.ErrDuplicateSubmission; the storage uniqueness constraint, not the
// service pre-check, is the authoritative guard.
type SubmissionLedger interface {
	Insert(ctx context.Context, sub domain.Submission) (domain.Submission, error)
	Get(ctx context.Context, quizID, studentID string) (domain.Submission, error)
	ListByStudent(ctx context.Context, studentID string) ([]domain.Submission, error)
	ListByQuiz(ctx context.Context, quizID string) ([]domain.Submission, error)
}

// Roster resolves a login email to a stable student identity.
type Roster interface {
	ResolveStudent(ctx context.Context, email string) (domain.Student, error)
}

// EventPublisher pushes submission events to an external broker.
type EventPublisher interface {
	PublishSubmission(ev domain.SubmissionEvent) error
}

// QuizService contains the quiz-core use cases: normalization-backed reads,
// one-shot submission scoring, and per-student status reporting.
type QuizService struct {
	catalog QuizCatalog
	quizzes QuizRepository
	ledger  SubmissionLedger
	roster  Roster

	events     EventPublisher
	feed       *ResultsFeed
	trustScore bool
	now        func() time.Time
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithEventPublisher wires a broker publisher for submission events.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *QuizService) { s.events = p }
}

// WithResultsFeed wires the in-process live results feed.
func WithResultsFeed(f *ResultsFeed) Option {
	return func(s *QuizService) { s.feed = f }
}

// WithTrustedClientScore switches scoring to the legacy behavior: the
// client-computed score is clamped and persisted instead of being
// recomputed from the answer key.
func WithTrustedClientScore() Option {
	return func(s *QuizService) { s.trustScore = true }
}

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

func NewQuizService(catalog QuizCatalog, quizzes QuizRepository, ledger SubmissionLedger, roster Roster, opts ...Option) *QuizService {
	s := &QuizService{
		catalog: catalog,
		quizzes: quizzes,
		ledger:  ledger,
		roster:  roster,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveStudent maps a login email to a roster entry. There is no fallback
// identity: an unknown email is an error, never a shared placeholder.
func (s *QuizService) ResolveStudent(ctx context.Context, email string) (domain.Student, error) {
	if email == "" {
		return domain.Student{}, fmt.Errorf("%w: email", domain.ErrMissingField)
	}
	return s.roster.ResolveStudent(ctx, email)
}

// SubmitCommand carries one submission attempt. Score and TotalQuestions are
// pointers so that absent and zero are distinguishable.
type SubmitCommand struct {
	QuizID         string
	StudentID      string
	Answers        domain.AnswerSet
	Score          *int
	TotalQuestions *int
}

// SubmitAnswers validates, scores and persists one submission. At most one
// submission per (quiz, student) ever exists; a repeat attempt fails with
// domain.ErrDuplicateSubmission whether it is caught by the fast-path
// pre-check or by the ledger's uniqueness constraint.
func (s *QuizService) SubmitAnswers(ctx context.Context, cmd SubmitCommand) (domain.Submission, error) {
	if err := cmd.validate(); err != nil {
		return domain.Submission{}, err
	}

	// Fast path; the storage constraint still guards the race.
	if _, err := s.ledger.Get(ctx, cmd.QuizID, cmd.StudentID); err == nil {
		return domain.Submission{}, domain.ErrDuplicateSubmission
	} else if !errors.Is(err, domain.ErrSubmissionNotFound) {
		return domain.Submission{}, fmt.Errorf("check submission: %w", err)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, cmd.QuizID)
	if err != nil {
		return domain.Submission{}, err
	}
	if !quiz.IsPublished {
		return domain.Submission{}, domain.ErrQuizNotFound
	}
	if quiz.IsExpired {
		return domain.Submission{}, domain.ErrQuizClosed
	}

	score, total := s.computeScore(quiz, cmd)

	sub := domain.Submission{
		QuizID:         cmd.QuizID,
		StudentID:      cmd.StudentID,
		Answers:        cmd.Answers,
		Score:          score,
		TotalQuestions: total,
		Percentage:     percentage(score, total),
		SubmittedAt:    s.now().UTC(),
	}
	sub, err = s.ledger.Insert(ctx, sub)
	if err != nil {
		return domain.Submission{}, err
	}

	ev := domain.SubmissionEvent{
		QuizID:      sub.QuizID,
		StudentID:   sub.StudentID,
		Score:       sub.Score,
		Total:       sub.TotalQuestions,
		Percentage:  sub.Percentage,
		SubmittedAt: sub.SubmittedAt,
	}
	if s.events != nil {
		if err := s.events.PublishSubmission(ev); err != nil {
			log.Printf("publish submission event: %v", err)
		}
	}
	if s.feed != nil {
		s.feed.Broadcast(ev)
	}
	return sub, nil
}

func (cmd SubmitCommand) validate() error {
	switch {
	case cmd.QuizID == "":
		return fmt.Errorf("%w: quizId", domain.ErrMissingField)
	case cmd.StudentID == "":
		return fmt.Errorf("%w: studentId", domain.ErrMissingField)
	case cmd.Answers == nil:
		return fmt.Errorf("%w: answers", domain.ErrMissingField)
	case cmd.Score == nil:
		return fmt.Errorf("%w: score", domain.ErrMissingField)
	case cmd.TotalQuestions == nil:
		return fmt.Errorf("%w: totalQuestions", domain.ErrMissingField)
	}
	return nil
}

// computeScore derives the persisted score. Default mode recomputes from the
// canonical answer key and treats the client score as a cross-check; legacy
// mode clamps whatever the client sent.
func (s *QuizService) computeScore(quiz domain.Quiz, cmd SubmitCommand) (score, total int) {
	if s.trustScore {
		total = *cmd.TotalQuestions
		return clampScore(*cmd.Score, total), total
	}

	total = len(quiz.Questions)
	score = countCorrect(quiz.Questions, cmd.Answers)
	if claimed := clampScore(*cmd.Score, total); claimed != score {
		log.Printf("quiz %s student %s: client score %d disagrees with computed %d", cmd.QuizID, cmd.StudentID, claimed, score)
	}
	return score, total
}

// countCorrect awards one point per answer that matches the canonical
// correct index. Answers are looked up by question id first, then by the
// question's position for older clients that key by index.
func countCorrect(questions []domain.Question, answers domain.AnswerSet) int {
	correct := 0
	for i, q := range questions {
		chosen, ok := answers[q.ID]
		if !ok {
			chosen, ok = answers[strconv.Itoa(i)]
		}
		if ok && chosen == q.CorrectAnswerIndex {
			correct++
		}
	}
	return correct
}

func clampScore(score, total int) int {
	if score < 0 {
		return 0
	}
	if score > total {
		return total
	}
	return score
}

func percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// GetQuizStatus reports the per-student state of one quiz. Unpublished
// quizzes are invisible to students and read as not found.
func (s *QuizService) GetQuizStatus(ctx context.Context, quizID, studentID string) (domain.StatusReport, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.StatusReport{}, err
	}
	if !quiz.IsPublished {
		return domain.StatusReport{}, domain.ErrQuizNotFound
	}
	return s.statusFor(ctx, quiz, studentID)
}

func (s *QuizService) statusFor(ctx context.Context, quiz domain.Quiz, studentID string) (domain.StatusReport, error) {
	report := domain.StatusReport{
		QuizID:         quiz.ID,
		Title:          quiz.Title,
		QuestionsCount: quiz.QuestionsCount,
	}

	sub, err := s.ledger.Get(ctx, quiz.ID, studentID)
	switch {
	case err == nil:
		// Submitted is terminal, even after expiry.
		report.Status = domain.StatusSubmitted
		report.Percentage = sub.Percentage
		at := sub.SubmittedAt
		report.SubmittedAt = &at
	case errors.Is(err, domain.ErrSubmissionNotFound):
		if quiz.IsExpired {
			report.Status = domain.StatusMissed
		} else {
			report.Status = domain.StatusActive
		}
	default:
		return domain.StatusReport{}, fmt.Errorf("load submission: %w", err)
	}
	return report, nil
}

// ListQuizStatuses returns the status of every published quiz for one
// student, newest first (catalog order).
func (s *QuizService) ListQuizStatuses(ctx context.Context, studentID string) ([]domain.StatusReport, error) {
	raws, err := s.catalog.ListQuizzes(ctx, true)
	if err != nil {
		return nil, err
	}
	subs, err := s.ledger.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	byQuiz := make(map[string]domain.Submission, len(subs))
	for _, sub := range subs {
		byQuiz[sub.QuizID] = sub
	}

	reports := make([]domain.StatusReport, 0, len(raws))
	for _, raw := range raws {
		quiz := domain.NormalizeQuiz(raw)
		report := domain.StatusReport{
			QuizID:         quiz.ID,
			Title:          quiz.Title,
			QuestionsCount: quiz.QuestionsCount,
		}
		if sub, ok := byQuiz[quiz.ID]; ok {
			report.Status = domain.StatusSubmitted
			report.Percentage = sub.Percentage
			at := sub.SubmittedAt
			report.SubmittedAt = &at
		} else if quiz.IsExpired {
			report.Status = domain.StatusMissed
		} else {
			report.Status = domain.StatusActive
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// GetQuizForStudent returns a published, unexpired quiz together with an
// already-submitted flag so clients can short-circuit to the results view.
func (s *QuizService) GetQuizForStudent(ctx context.Context, quizID, studentID string) (domain.Quiz, bool, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, false, err
	}
	if !quiz.IsPublished || quiz.IsExpired {
		return domain.Quiz{}, false, domain.ErrQuizNotFound
	}

	_, err = s.ledger.Get(ctx, quizID, studentID)
	if err == nil {
		return quiz, true, nil
	}
	if !errors.Is(err, domain.ErrSubmissionNotFound) {
		return domain.Quiz{}, false, fmt.Errorf("check submission: %w", err)
	}
	return quiz, false, nil
}

// Review returns a quiz with the student's stored submission, if any, for
// the post-submit answer review view.
func (s *QuizService) Review(ctx context.Context, quizID, studentID string) (domain.Quiz, *domain.Submission, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, err
	}
	sub, err := s.ledger.Get(ctx, quizID, studentID)
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			return quiz, nil, nil
		}
		return domain.Quiz{}, nil, fmt.Errorf("load submission: %w", err)
	}
	return quiz, &sub, nil
}

// ListSubmissions returns every ledger entry for a quiz (admin results view).
func (s *QuizService) ListSubmissions(ctx context.Context, quizID string) ([]domain.Submission, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.ledger.ListByQuiz(ctx, quizID)
}
