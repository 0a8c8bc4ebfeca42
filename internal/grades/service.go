package grades

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gradebook.org/internal/ids"
	"gradebook.org/internal/registry"
)

// Service defines score ledger operations.
type Service interface {
	// SubmitScore creates the record for the submission's triple or, if one
	// already exists, overwrites its components in place. Derived fields are
	// recomputed on every call.
	SubmitScore(ctx context.Context, sub Submission) (Score, error)
	GetScore(ctx context.Context, id string) (Score, error)
	// ListScores returns matching records ordered newest-first by creation
	// time. Empty filter fields are ignored.
	ListScores(ctx context.Context, f Filter) ([]Score, error)
	// UpdateScore replaces the components of an existing record by identity
	// and re-runs the derivation.
	UpdateScore(ctx context.Context, id string, c Components) (Score, error)
	DeleteScore(ctx context.Context, id string) error
}

// StudentLookup resolves a student by business key.
type StudentLookup interface {
	Find(ctx context.Context, studentID string) (registry.Student, error)
}

// SubjectLookup resolves a subject by business key.
type SubjectLookup interface {
	Find(ctx context.Context, subjectID string) (registry.Subject, error)
}

// SemesterLookup resolves a semester by business key.
type SemesterLookup interface {
	Find(ctx context.Context, semesterID string) (registry.Semester, error)
}

// InMemory implements Service with in-process concurrency safety.
type InMemory struct {
	students  StudentLookup
	subjects  SubjectLookup
	semesters SemesterLookup
	now       func() time.Time

	mu       sync.RWMutex
	byID     map[string]*Score
	byTriple map[tripleKey]string // triple -> record id
}

type tripleKey struct {
	studentID string
	subjectID string
	semester  string
}

// NewInMemory creates an empty ledger backed by the given directories.
func NewInMemory(students StudentLookup, subjects SubjectLookup, semesters SemesterLookup) *InMemory {
	return &InMemory{
		students:  students,
		subjects:  subjects,
		semesters: semesters,
		now:       time.Now,
		byID:      make(map[string]*Score),
		byTriple:  make(map[tripleKey]string),
	}
}

var _ Service = (*InMemory)(nil)

func (s *InMemory) SubmitScore(ctx context.Context, sub Submission) (Score, error) {
	if err := sub.Validate(); err != nil {
		return Score{}, err
	}
	student, err := s.students.Find(ctx, sub.StudentID)
	if err != nil {
		return Score{}, fmt.Errorf("%w: %s", ErrUnknownStudent, sub.StudentID)
	}
	subject, err := s.subjects.Find(ctx, sub.SubjectID)
	if err != nil {
		return Score{}, fmt.Errorf("%w: %s", ErrUnknownSubject, sub.SubjectID)
	}
	if _, err := s.semesters.Find(ctx, sub.Semester); err != nil {
		return Score{}, fmt.Errorf("%w: %s", ErrUnknownSemester, sub.Semester)
	}

	derived := Derive(sub.Ex1Score, sub.Ex2Score, sub.ExamScore)
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	key := tripleKey{sub.StudentID, sub.SubjectID, sub.Semester}
	if id, ok := s.byTriple[key]; ok {
		rec := s.byID[id]
		rec.Ex1Score = sub.Ex1Score
		rec.Ex2Score = sub.Ex2Score
		rec.ExamScore = sub.ExamScore
		rec.FinalScore = derived.FinalScore
		rec.GPA = derived.GPA
		rec.LetterGrade = derived.LetterGrade
		rec.UpdatedAt = now
		return *rec, nil
	}

	rec := &Score{
		ID:          ids.New(),
		StudentID:   sub.StudentID,
		SubjectID:   sub.SubjectID,
		SubjectName: subject.SubjectName,
		ClassName:   student.ClassName,
		Ex1Score:    sub.Ex1Score,
		Ex2Score:    sub.Ex2Score,
		ExamScore:   sub.ExamScore,
		FinalScore:  derived.FinalScore,
		GPA:         derived.GPA,
		LetterGrade: derived.LetterGrade,
		Semester:    sub.Semester,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.byID[rec.ID] = rec
	s.byTriple[key] = rec.ID
	return *rec, nil
}

func (s *InMemory) GetScore(ctx context.Context, id string) (Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return Score{}, ErrNotFound
	}
	return *rec, nil
}

func (s *InMemory) ListScores(ctx context.Context, f Filter) ([]Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Score
	for _, rec := range s.byID {
		if f.StudentID != "" && rec.StudentID != f.StudentID {
			continue
		}
		if f.SubjectID != "" && rec.SubjectID != f.SubjectID {
			continue
		}
		if f.Semester != "" && rec.Semester != f.Semester {
			continue
		}
		if f.ClassName != "" && rec.ClassName != f.ClassName {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *InMemory) UpdateScore(ctx context.Context, id string, c Components) (Score, error) {
	if err := c.Validate(); err != nil {
		return Score{}, err
	}
	derived := Derive(c.Ex1Score, c.Ex2Score, c.ExamScore)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return Score{}, ErrNotFound
	}
	rec.Ex1Score = c.Ex1Score
	rec.Ex2Score = c.Ex2Score
	rec.ExamScore = c.ExamScore
	rec.FinalScore = derived.FinalScore
	rec.GPA = derived.GPA
	rec.LetterGrade = derived.LetterGrade
	rec.UpdatedAt = s.now().UTC()
	return *rec, nil
}

func (s *InMemory) DeleteScore(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byTriple, tripleKey{rec.StudentID, rec.SubjectID, rec.Semester})
	delete(s.byID, id)
	return nil
}
