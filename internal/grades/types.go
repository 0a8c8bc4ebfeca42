package grades

import (
	"errors"
	"fmt"
	"time"
)

// Score is one persisted academic record, unique per
// (studentId, subjectId, semester).
type Score struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"studentId"`
	SubjectID   string    `json:"subjectId"`
	SubjectName string    `json:"subjectName,omitempty"`
	ClassName   string    `json:"className,omitempty"`
	Ex1Score    float64   `json:"ex1Score"`
	Ex2Score    float64   `json:"ex2Score"`
	ExamScore   float64   `json:"examScore"`
	FinalScore  float64   `json:"finalScore"`
	GPA         float64   `json:"GPA"`
	LetterGrade string    `json:"letterGrade"`
	Semester    string    `json:"semester"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Components are the three raw exam components a caller submits. Derived
// fields are never part of this input.
type Components struct {
	Ex1Score  float64 `json:"ex1Score"`
	Ex2Score  float64 `json:"ex2Score"`
	ExamScore float64 `json:"examScore"`
}

// Submission identifies the target triple plus its raw components.
type Submission struct {
	StudentID string `json:"studentId"`
	SubjectID string `json:"subjectId"`
	Semester  string `json:"semester"`
	Components
}

// Filter narrows ListScores. Empty fields are ignored.
type Filter struct {
	StudentID string
	SubjectID string
	Semester  string
	ClassName string
}

var (
	ErrNotFound        = errors.New("score record not found")
	ErrUnknownStudent  = errors.New("unknown student")
	ErrUnknownSubject  = errors.New("unknown subject")
	ErrUnknownSemester = errors.New("unknown semester")
	ErrOutOfRange      = errors.New("component scores must be within [0,10]")
	ErrMissingKey      = errors.New("studentId, subjectId and semester are required")
)

// Validate checks the submission shape before any lookup or write.
func (s Submission) Validate() error {
	if s.StudentID == "" || s.SubjectID == "" || s.Semester == "" {
		return ErrMissingKey
	}
	return s.Components.Validate()
}

// Validate checks the component range invariant.
func (c Components) Validate() error {
	for _, v := range []float64{c.Ex1Score, c.Ex2Score, c.ExamScore} {
		if v < 0 || v > 10 {
			return fmt.Errorf("%w: got %g", ErrOutOfRange, v)
		}
	}
	return nil
}
