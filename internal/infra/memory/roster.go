package memory

import (
	"context"
	"strings"
	"sync"

	"eduquiz-service/internal/domain"
)

// Roster maps login emails to student identities in memory.
type Roster struct {
	mu       sync.RWMutex
	students map[string]domain.Student
}

func NewRoster(students ...domain.Student) *Roster {
	r := &Roster{students: make(map[string]domain.Student, len(students))}
	for _, s := range students {
		r.students[strings.ToLower(s.Email)] = s
	}
	return r
}

func (r *Roster) ResolveStudent(_ context.Context, email string) (domain.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	student, ok := r.students[strings.ToLower(email)]
	if !ok {
		return domain.Student{}, domain.ErrUnknownStudent
	}
	return student, nil
}
