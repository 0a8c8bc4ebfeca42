package registry

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("registry: not found")
	ErrAlreadyExists = errors.New("registry: already exists")
	ErrInvalidInput  = errors.New("registry: invalid input")
)

// Student is an enrolled student referenced by its institutional identifier.
type Student struct {
	StudentID   string    `json:"studentId"`
	StudentName string    `json:"studentName"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	Email       string    `json:"email"`
	ClassID     string    `json:"classId"`
	ClassName   string    `json:"className,omitempty"`
}

// Teacher is a staff member referenced by its institutional identifier.
type Teacher struct {
	TeacherID    string `json:"teacherId"`
	TeacherName  string `json:"teacherName"`
	TeacherEmail string `json:"teacherEmail"`
	Department   string `json:"department,omitempty"`
}

// Admin is an administrative staff member.
type Admin struct {
	AdminID   string `json:"adminId"`
	AdminName string `json:"adminName"`
	Email     string `json:"email"`
}

// Subject is a course unit referenced by business key.
type Subject struct {
	SubjectID   string `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	Credits     int    `json:"credits,omitempty"`
}

// Semester is an academic term referenced by business key.
type Semester struct {
	SemesterID   string `json:"semesterId"`
	SemesterName string `json:"semesterName,omitempty"`
}

// Class groups students under a major.
type Class struct {
	ClassID   string `json:"classId"`
	ClassName string `json:"className"`
	MajorID   string `json:"majorId,omitempty"`
}

// Major is a field of study.
type Major struct {
	MajorID   string `json:"majorId"`
	MajorName string `json:"majorName"`
}
