// Package pg provides the PostgreSQL-backed stores.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"gradebook.org/internal/grades"
	"gradebook.org/internal/ids"
)

type Store struct {
	db *sql.DB
}

var _ grades.Service = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing handle, used by tests with sqlmock.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const scoreColumns = `id, student_id, subject_id, subject_name, class_name,
	ex1_score, ex2_score, exam_score, final_score, gpa, letter_grade,
	semester, created_at, updated_at`

func scanScore(row interface{ Scan(...any) error }) (grades.Score, error) {
	var sc grades.Score
	var subjectName, className sql.NullString
	err := row.Scan(
		&sc.ID, &sc.StudentID, &sc.SubjectID, &subjectName, &className,
		&sc.Ex1Score, &sc.Ex2Score, &sc.ExamScore, &sc.FinalScore, &sc.GPA,
		&sc.LetterGrade, &sc.Semester, &sc.CreatedAt, &sc.UpdatedAt,
	)
	if err != nil {
		return grades.Score{}, err
	}
	sc.SubjectName = subjectName.String
	sc.ClassName = className.String
	return sc, nil
}

func (s *Store) SubmitScore(ctx context.Context, sub grades.Submission) (grades.Score, error) {
	if err := sub.Validate(); err != nil {
		return grades.Score{}, err
	}
	student, err := s.Students().Find(ctx, sub.StudentID)
	if err != nil {
		return grades.Score{}, fmt.Errorf("%w: %s", grades.ErrUnknownStudent, sub.StudentID)
	}
	subject, err := s.Subjects().Find(ctx, sub.SubjectID)
	if err != nil {
		return grades.Score{}, fmt.Errorf("%w: %s", grades.ErrUnknownSubject, sub.SubjectID)
	}
	if _, err := s.Semesters().Find(ctx, sub.Semester); err != nil {
		return grades.Score{}, fmt.Errorf("%w: %s", grades.ErrUnknownSemester, sub.Semester)
	}

	derived := grades.Derive(sub.Ex1Score, sub.Ex2Score, sub.ExamScore)

	// Single-statement upsert so concurrent submissions for the same triple
	// cannot create duplicates. Snapshots and timestamps from the original
	// insert survive the conflict branch.
	row := s.db.QueryRowContext(ctx, `
		insert into scores(
			id, student_id, subject_id, subject_name, class_name,
			ex1_score, ex2_score, exam_score, final_score, gpa, letter_grade,
			semester, created_at, updated_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now(),now())
		on conflict (student_id, subject_id, semester) do update set
			ex1_score   = excluded.ex1_score,
			ex2_score   = excluded.ex2_score,
			exam_score  = excluded.exam_score,
			final_score = excluded.final_score,
			gpa         = excluded.gpa,
			letter_grade = excluded.letter_grade,
			updated_at  = now()
		returning `+scoreColumns,
		ids.New(), sub.StudentID, sub.SubjectID, subject.SubjectName, student.ClassName,
		sub.Ex1Score, sub.Ex2Score, sub.ExamScore, derived.FinalScore, derived.GPA,
		derived.LetterGrade, sub.Semester,
	)
	return scanScore(row)
}

func (s *Store) GetScore(ctx context.Context, id string) (grades.Score, error) {
	row := s.db.QueryRowContext(ctx, `select `+scoreColumns+` from scores where id=$1`, id)
	sc, err := scanScore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return grades.Score{}, grades.ErrNotFound
	}
	return sc, err
}

func (s *Store) ListScores(ctx context.Context, f grades.Filter) ([]grades.Score, error) {
	query := `select ` + scoreColumns + ` from scores`
	var conds []string
	var args []any
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		conds = append(conds, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	add("student_id", f.StudentID)
	add("subject_id", f.SubjectID)
	add("semester", f.Semester)
	add("class_name", f.ClassName)
	if len(conds) > 0 {
		query += " where " + strings.Join(conds, " and ")
	}
	query += " order by created_at desc, id desc"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []grades.Score
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, sc)
	}
	return res, rows.Err()
}

func (s *Store) UpdateScore(ctx context.Context, id string, c grades.Components) (grades.Score, error) {
	if err := c.Validate(); err != nil {
		return grades.Score{}, err
	}
	derived := grades.Derive(c.Ex1Score, c.Ex2Score, c.ExamScore)
	row := s.db.QueryRowContext(ctx, `
		update scores set
			ex1_score=$2, ex2_score=$3, exam_score=$4,
			final_score=$5, gpa=$6, letter_grade=$7, updated_at=now()
		where id=$1
		returning `+scoreColumns,
		id, c.Ex1Score, c.Ex2Score, c.ExamScore,
		derived.FinalScore, derived.GPA, derived.LetterGrade,
	)
	sc, err := scanScore(row)
	if errors.Is(err, sql.ErrNoRows) {
		return grades.Score{}, grades.ErrNotFound
	}
	return sc, err
}

func (s *Store) DeleteScore(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from scores where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return grades.ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
