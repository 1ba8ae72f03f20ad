package app

import (
	"sync"

	"eduquiz-service/internal/domain"
)

// ResultsFeed fans submission events out to in-process subscribers, one
// topic per quiz. Admin dashboards subscribe to watch results arrive live.
type ResultsFeed struct {
	mu     sync.Mutex
	topics map[string]map[chan domain.SubmissionEvent]struct{}
}

func NewResultsFeed() *ResultsFeed {
	return &ResultsFeed{
		topics: make(map[string]map[chan domain.SubmissionEvent]struct{}),
	}
}

// Subscribe returns a channel of submission events for one quiz. The caller
// must invoke the returned cancel function to avoid leaks.
func (f *ResultsFeed) Subscribe(quizID string) (<-chan domain.SubmissionEvent, func()) {
	ch := make(chan domain.SubmissionEvent, 8)

	f.mu.Lock()
	subs, ok := f.topics[quizID]
	if !ok {
		subs = make(map[chan domain.SubmissionEvent]struct{})
		f.topics[quizID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if subs, ok := f.topics[quizID]; ok {
			if _, ok := subs[ch]; ok {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(f.topics, quizID)
			}
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast delivers an event to every subscriber of its quiz. Slow
// subscribers lose their oldest buffered event rather than blocking the
// submit path.
func (f *ResultsFeed) Broadcast(ev domain.SubmissionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.topics[ev.QuizID] {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
