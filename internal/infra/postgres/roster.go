package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eduquiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Roster resolves login emails against the student_invitations table.
type Roster struct {
	pool *pgxpool.Pool
}

func NewRoster(pool *pgxpool.Pool) *Roster {
	return &Roster{pool: pool}
}

func (r *Roster) ResolveStudent(ctx context.Context, email string) (domain.Student, error) {
	student := domain.Student{Email: strings.ToLower(email)}
	err := r.pool.QueryRow(ctx,
		`SELECT student_id, full_name FROM student_invitations WHERE email=$1`,
		student.Email,
	).Scan(&student.ID, &student.FullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Student{}, domain.ErrUnknownStudent
		}
		return domain.Student{}, fmt.Errorf("resolve student: %w", err)
	}
	return student, nil
}

// Invite upserts a roster entry; used by seeding and admin tooling.
func (r *Roster) Invite(ctx context.Context, student domain.Student) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO student_invitations (email, student_id, full_name)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE SET student_id=EXCLUDED.student_id, full_name=EXCLUDED.full_name`,
		strings.ToLower(student.Email), student.ID, student.FullName)
	if err != nil {
		return fmt.Errorf("invite student: %w", err)
	}
	return nil
}
