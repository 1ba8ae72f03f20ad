package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/infra/memory"
)

func TestSubmitScoresFromAnswerKey(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	// Correct indices are [0,1,1,3]; the student answers [0,1,2,3].
	sub, err := service.SubmitAnswers(ctx, app.SubmitCommand{
		QuizID:         "quiz-1",
		StudentID:      "stu-1",
		Answers:        domain.AnswerSet{"q_0": 0, "q_1": 1, "q_2": 2, "q_3": 3},
		Score:          intp(4), // inflated client score must be ignored
		TotalQuestions: intp(4),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Score != 3 || sub.TotalQuestions != 4 || sub.Percentage != 75 {
		t.Fatalf("expected 3/4 = 75%%, got %d/%d = %d%%", sub.Score, sub.TotalQuestions, sub.Percentage)
	}
	if sub.SubmittedAt.IsZero() {
		t.Fatalf("expected submittedAt set")
	}
}

func TestSubmitAcceptsIndexKeyedAnswers(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	sub, err := service.SubmitAnswers(ctx, app.SubmitCommand{
		QuizID:         "quiz-1",
		StudentID:      "stu-1",
		Answers:        domain.AnswerSet{"0": 0, "1": 1, "2": 1, "3": 3},
		Score:          intp(4),
		TotalQuestions: intp(4),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Score != 4 || sub.Percentage != 100 {
		t.Fatalf("expected perfect score via index keys, got %d (%d%%)", sub.Score, sub.Percentage)
	}
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	service, ledger := newTestService(t)

	cmd := app.SubmitCommand{
		QuizID:         "quiz-1",
		StudentID:      "stu-1",
		Answers:        domain.AnswerSet{"q_0": 0},
		Score:          intp(1),
		TotalQuestions: intp(4),
	}
	if _, err := service.SubmitAnswers(ctx, cmd); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := service.SubmitAnswers(ctx, cmd); !errors.Is(err, domain.ErrDuplicateSubmission) {
		t.Fatalf("expected duplicate error, got %v", err)
	}

	subs, _ := ledger.ListByQuiz(ctx, "quiz-1")
	if len(subs) != 1 {
		t.Fatalf("expected exactly one persisted submission, got %d", len(subs))
	}
}

func TestSubmitMissingFields(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	complete := func() app.SubmitCommand {
		return app.SubmitCommand{
			QuizID:         "quiz-1",
			StudentID:      "stu-1",
			Answers:        domain.AnswerSet{},
			Score:          intp(0),
			TotalQuestions: intp(4),
		}
	}

	cases := map[string]func(*app.SubmitCommand){
		"quizId":         func(c *app.SubmitCommand) { c.QuizID = "" },
		"studentId":      func(c *app.SubmitCommand) { c.StudentID = "" },
		"answers":        func(c *app.SubmitCommand) { c.Answers = nil },
		"score":          func(c *app.SubmitCommand) { c.Score = nil },
		"totalQuestions": func(c *app.SubmitCommand) { c.TotalQuestions = nil },
	}
	for name, blank := range cases {
		cmd := complete()
		blank(&cmd)
		if _, err := service.SubmitAnswers(ctx, cmd); !errors.Is(err, domain.ErrMissingField) {
			t.Fatalf("%s: expected missing field error, got %v", name, err)
		}
	}
}

func TestSubmitLegacyModeClampsClientScore(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		student string
		score   int
		want    int
	}{
		{"stu-neg", -5, 0},
		{"stu-high", 99, 10},
		{"stu-mid", 7, 7},
	} {
		service, _ := newTestService(t, app.WithTrustedClientScore())
		sub, err := service.SubmitAnswers(ctx, app.SubmitCommand{
			QuizID:         "quiz-1",
			StudentID:      tc.student,
			Answers:        domain.AnswerSet{},
			Score:          intp(tc.score),
			TotalQuestions: intp(10),
		})
		if err != nil {
			t.Fatalf("submit score=%d: %v", tc.score, err)
		}
		if sub.Score != tc.want {
			t.Fatalf("score %d: expected clamp to %d, got %d", tc.score, tc.want, sub.Score)
		}
	}
}

func TestSubmitZeroTotalYieldsZeroPercentage(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, app.WithTrustedClientScore())

	sub, err := service.SubmitAnswers(ctx, app.SubmitCommand{
		QuizID:         "quiz-1",
		StudentID:      "stu-1",
		Answers:        domain.AnswerSet{},
		Score:          intp(5),
		TotalQuestions: intp(0),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Percentage != 0 {
		t.Fatalf("expected 0%% for zero questions, got %d", sub.Percentage)
	}
}

func TestStatusTransitions(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	report, err := service.GetQuizStatus(ctx, "quiz-1", "stu-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if report.Status != domain.StatusActive {
		t.Fatalf("expected active, got %s", report.Status)
	}

	if _, err := service.SubmitAnswers(ctx, app.SubmitCommand{
		QuizID:         "quiz-1",
		StudentID:      "stu-1",
		Answers:        domain.AnswerSet{"q_0": 0},
		Score:          intp(1),
		TotalQuestions: intp(4),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	report, err = service.GetQuizStatus(ctx, "quiz-1", "stu-1")
	if err != nil {
		t.Fatalf("status after submit: %v", err)
	}
	if report.Status != domain.StatusSubmitted {
		t.Fatalf("expected submitted, got %s", report.Status)
	}
	if report.Percentage != 25 || report.SubmittedAt == nil {
		t.Fatalf("expected stored score on report, got %+v", report)
	}
}

func TestStatusMissedAndSubmittedAfterExpiry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQuizStore(map[string]domain.RawQuiz{
		"quiz-exp": {
			Title:       "Expired quiz",
			IsPublished: true,
			IsExpired:   true,
			QuizData: domain.QuizData{Questions: []domain.RawQuestion{
				{Options: []string{"a", "b"}, CorrectAnswerIndex: json.RawMessage(`0`)},
			}},
		},
	})
	ledger := memory.NewSubmissionLedger()
	service := app.NewQuizService(store, memory.NewQuizRepository(store, time.Minute), ledger, memory.NewRoster())

	report, err := service.GetQuizStatus(ctx, "quiz-exp", "stu-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if report.Status != domain.StatusMissed {
		t.Fatalf("expected missed on expired quiz, got %s", report.Status)
	}

	// A submission that predates the expiry still reads submitted.
	if _, err := ledger.Insert(ctx, domain.Submission{
		QuizID: "quiz-exp", StudentID: "stu-2",
		Answers: domain.AnswerSet{}, Percentage: 50, SubmittedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	report, err = service.GetQuizStatus(ctx, "quiz-exp", "stu-2")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if report.Status != domain.StatusSubmitted || report.Percentage != 50 {
		t.Fatalf("expected submitted to survive expiry, got %+v", report)
	}
}

func TestStatusUnknownQuiz(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.GetQuizStatus(context.Background(), "quiz-unknown", "stu-1"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestGetQuizForStudent(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	quiz, submitted, err := service.GetQuizForStudent(ctx, "quiz-1", "stu-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if submitted {
		t.Fatalf("expected not yet submitted")
	}
	if len(quiz.Questions) != 4 || quiz.Questions[2].CorrectAnswerIndex != 1 {
		t.Fatalf("expected canonical questions, got %+v", quiz.Questions)
	}

	if _, err := service.SubmitAnswers(ctx, app.SubmitCommand{
		QuizID: "quiz-1", StudentID: "stu-1",
		Answers: domain.AnswerSet{}, Score: intp(0), TotalQuestions: intp(4),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, submitted, err = service.GetQuizForStudent(ctx, "quiz-1", "stu-1")
	if err != nil {
		t.Fatalf("get quiz after submit: %v", err)
	}
	if !submitted {
		t.Fatalf("expected alreadySubmitted flag")
	}
}

func TestReviewReturnsStoredSubmission(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	_, sub, err := service.Review(ctx, "quiz-1", "stu-1")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if sub != nil {
		t.Fatalf("expected no submission yet")
	}

	if _, err := service.SubmitAnswers(ctx, app.SubmitCommand{
		QuizID: "quiz-1", StudentID: "stu-1",
		Answers: domain.AnswerSet{"q_0": 0}, Score: intp(1), TotalQuestions: intp(4),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	quiz, sub, err := service.Review(ctx, "quiz-1", "stu-1")
	if err != nil {
		t.Fatalf("review after submit: %v", err)
	}
	if sub == nil || sub.Score != 1 {
		t.Fatalf("expected stored submission, got %+v", sub)
	}
	if quiz.ID != "quiz-1" {
		t.Fatalf("expected quiz alongside submission")
	}
}

func TestListQuizStatuses(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQuizStore(nil)

	published := rawTestQuiz()
	published.Title = "open"
	expired := rawTestQuiz()
	expired.Title = "closed"
	expired.IsExpired = true
	draft := rawTestQuiz()
	draft.Title = "draft"
	draft.IsPublished = false

	for _, raw := range []domain.RawQuiz{published, expired, draft} {
		if _, err := store.CreateQuiz(ctx, raw); err != nil {
			t.Fatalf("seed quiz: %v", err)
		}
	}

	ledger := memory.NewSubmissionLedger()
	service := app.NewQuizService(store, memory.NewQuizRepository(store, time.Minute), ledger, memory.NewRoster())

	reports, err := service.ListQuizStatuses(ctx, "stu-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected drafts hidden, got %d reports", len(reports))
	}
	statuses := map[string]domain.QuizStatus{}
	for _, r := range reports {
		statuses[r.Title] = r.Status
	}
	if statuses["open"] != domain.StatusActive || statuses["closed"] != domain.StatusMissed {
		t.Fatalf("unexpected statuses: %v", statuses)
	}
}

func TestSubmitBroadcastsToFeed(t *testing.T) {
	ctx := context.Background()
	feed := app.NewResultsFeed()
	service, _ := newTestService(t, app.WithResultsFeed(feed))

	events, cancel := feed.Subscribe("quiz-1")
	defer cancel()

	if _, err := service.SubmitAnswers(ctx, app.SubmitCommand{
		QuizID: "quiz-1", StudentID: "stu-1",
		Answers: domain.AnswerSet{"q_0": 0}, Score: intp(1), TotalQuestions: intp(4),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case ev := <-events:
		if ev.StudentID != "stu-1" || ev.Score != 1 {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected feed event")
	}
}

func TestSubmitPublishesEvent(t *testing.T) {
	ctx := context.Background()
	pub := &capturingPublisher{}
	service, _ := newTestService(t, app.WithEventPublisher(pub))

	if _, err := service.SubmitAnswers(ctx, app.SubmitCommand{
		QuizID: "quiz-1", StudentID: "stu-1",
		Answers: domain.AnswerSet{"q_0": 0}, Score: intp(1), TotalQuestions: intp(4),
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(pub.events) != 1 || pub.events[0].QuizID != "quiz-1" {
		t.Fatalf("expected one published event, got %+v", pub.events)
	}
}

func TestResolveStudent(t *testing.T) {
	service, _ := newTestService(t)

	student, err := service.ResolveStudent(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if student.ID != "stu-1" {
		t.Fatalf("expected stu-1, got %q", student.ID)
	}

	if _, err := service.ResolveStudent(context.Background(), ""); !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("expected missing field for empty email, got %v", err)
	}
	if _, err := service.ResolveStudent(context.Background(), "nobody@example.com"); !errors.Is(err, domain.ErrUnknownStudent) {
		t.Fatalf("expected unknown student, got %v", err)
	}
}

func TestAdminUpdateInvalidatesCachedQuiz(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	// Warm the cache with the original answer key.
	if _, err := service.GetQuizStatus(ctx, "quiz-1", "stu-1"); err != nil {
		t.Fatalf("status: %v", err)
	}

	// Admin corrects the first answer from index 0 to index 1.
	updated := rawTestQuiz()
	updated.ID = "quiz-1"
	updated.QuizData.Questions[0].CorrectAnswerIndex = json.RawMessage(`1`)
	if _, err := service.UpdateQuiz(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	sub, err := service.SubmitAnswers(ctx, app.SubmitCommand{
		QuizID:         "quiz-1",
		StudentID:      "stu-1",
		Answers:        domain.AnswerSet{"q_0": 1, "q_1": 1, "q_2": 1, "q_3": 3},
		Score:          intp(4),
		TotalQuestions: intp(4),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Score != 4 || sub.Percentage != 100 {
		t.Fatalf("expected scoring against the corrected key, got %d/%d (%d%%)", sub.Score, sub.TotalQuestions, sub.Percentage)
	}
}

func TestAdminDeleteInvalidatesCachedQuiz(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t)

	if _, err := service.GetQuizStatus(ctx, "quiz-1", "stu-1"); err != nil {
		t.Fatalf("status: %v", err)
	}
	if err := service.DeleteQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	_, err := service.SubmitAnswers(ctx, app.SubmitCommand{
		QuizID:         "quiz-1",
		StudentID:      "stu-1",
		Answers:        domain.AnswerSet{"q_0": 0},
		Score:          intp(1),
		TotalQuestions: intp(4),
	})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestSubmitRejectsExpiredQuiz(t *testing.T) {
	ctx := context.Background()
	raw := rawTestQuiz()
	raw.IsExpired = true
	store := memory.NewQuizStore(map[string]domain.RawQuiz{"quiz-exp": raw})
	service := app.NewQuizService(store, memory.NewQuizRepository(store, time.Minute), memory.NewSubmissionLedger(), memory.NewRoster())

	_, err := service.SubmitAnswers(ctx, app.SubmitCommand{
		QuizID:         "quiz-exp",
		StudentID:      "stu-1",
		Answers:        domain.AnswerSet{"q_0": 0},
		Score:          intp(1),
		TotalQuestions: intp(4),
	})
	if !errors.Is(err, domain.ErrQuizClosed) {
		t.Fatalf("expected quiz closed, got %v", err)
	}
}

func TestSubmitRejectsUnpublishedQuiz(t *testing.T) {
	ctx := context.Background()
	raw := rawTestQuiz()
	raw.IsPublished = false
	store := memory.NewQuizStore(map[string]domain.RawQuiz{"quiz-draft": raw})
	// Legacy trust mode goes through the same gate.
	service := app.NewQuizService(store, memory.NewQuizRepository(store, time.Minute), memory.NewSubmissionLedger(), memory.NewRoster(), app.WithTrustedClientScore())

	_, err := service.SubmitAnswers(ctx, app.SubmitCommand{
		QuizID:         "quiz-draft",
		StudentID:      "stu-1",
		Answers:        domain.AnswerSet{},
		Score:          intp(1),
		TotalQuestions: intp(4),
	})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found for unpublished quiz, got %v", err)
	}
}

type capturingPublisher struct {
	events []domain.SubmissionEvent
}

func (p *capturingPublisher) PublishSubmission(ev domain.SubmissionEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func rawTestQuiz() domain.RawQuiz {
	return domain.RawQuiz{
		Title:       "Weekly current affairs",
		IsPublished: true,
		QuizData: domain.QuizData{Questions: []domain.RawQuestion{
			{Text: "one", Options: []string{"a", "b"}, CorrectAnswerIndex: json.RawMessage(`0`)},
			{Text: "two", Options: []string{"a", "b"}, CorrectAnswerIndex: json.RawMessage(`1`)},
			{Text: "three", Options: []string{"a", "b", "c"}, CorrectAnswer: json.RawMessage(`"1"`)},
			{Text: "four", Options: []string{"a", "b", "c", "d"}, CorrectAnswerIndex: json.RawMessage(`3`)},
		}},
	}
}

func newTestService(t *testing.T, opts ...app.Option) (*app.QuizService, *memory.SubmissionLedger) {
	t.Helper()
	store := memory.NewQuizStore(map[string]domain.RawQuiz{"quiz-1": rawTestQuiz()})
	ledger := memory.NewSubmissionLedger()
	roster := memory.NewRoster(domain.Student{ID: "stu-1", Email: "alice@example.com", FullName: "Alice"})
	service := app.NewQuizService(store, memory.NewQuizRepository(store, 5*time.Minute), ledger, roster, opts...)
	return service, ledger
}

func intp(v int) *int { return &v }
