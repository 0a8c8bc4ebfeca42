package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// InMemory bundles in-process implementations of every directory, one
// sub-store per concern. Used by tests and when the service runs without a
// database.
type InMemory struct {
	Students  *MemStudents
	Teachers  *MemTeachers
	Admins    *MemAdmins
	Subjects  *MemSubjects
	Semesters *MemSemesters
	Classes   *MemClasses
	Majors    *MemMajors
}

// NewInMemory creates an empty directory set.
func NewInMemory() *InMemory {
	classes := &MemClasses{items: make(map[string]Class)}
	return &InMemory{
		Students:  &MemStudents{items: make(map[string]Student), classes: classes},
		Teachers:  &MemTeachers{items: make(map[string]Teacher)},
		Admins:    &MemAdmins{items: make(map[string]Admin)},
		Subjects:  &MemSubjects{items: make(map[string]Subject)},
		Semesters: &MemSemesters{items: make(map[string]Semester)},
		Classes:   classes,
		Majors:    &MemMajors{items: make(map[string]Major)},
	}
}

var (
	_ StudentDirectory  = (*MemStudents)(nil)
	_ TeacherDirectory  = (*MemTeachers)(nil)
	_ AdminDirectory    = (*MemAdmins)(nil)
	_ SubjectDirectory  = (*MemSubjects)(nil)
	_ SemesterDirectory = (*MemSemesters)(nil)
	_ ClassDirectory    = (*MemClasses)(nil)
)

// MemStudents ---------------------------------------------------------------

type MemStudents struct {
	mu      sync.RWMutex
	items   map[string]Student
	classes *MemClasses
}

func (d *MemStudents) Find(ctx context.Context, studentID string) (Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.items[studentID]
	if !ok {
		return Student{}, fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	return s, nil
}

func (d *MemStudents) List(ctx context.Context) ([]Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Student, 0, len(d.items))
	for _, s := range d.items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (d *MemStudents) ListByClass(ctx context.Context, classID string) ([]Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Student
	for _, s := range d.items {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (d *MemStudents) Create(ctx context.Context, s Student) (Student, error) {
	if strings.TrimSpace(s.StudentID) == "" {
		return Student{}, fmt.Errorf("studentId: %w", ErrInvalidInput)
	}
	if s.ClassID != "" {
		cls, err := d.classes.Find(ctx, s.ClassID)
		if err != nil {
			return Student{}, err
		}
		s.ClassName = cls.ClassName
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.items[s.StudentID]; ok {
		return Student{}, fmt.Errorf("student %s: %w", s.StudentID, ErrAlreadyExists)
	}
	d.items[s.StudentID] = s
	return s, nil
}

func (d *MemStudents) Update(ctx context.Context, s Student) (Student, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.items[s.StudentID]; !ok {
		return Student{}, fmt.Errorf("student %s: %w", s.StudentID, ErrNotFound)
	}
	d.items[s.StudentID] = s
	return s, nil
}

func (d *MemStudents) Delete(ctx context.Context, studentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.items[studentID]; !ok {
		return fmt.Errorf("student %s: %w", studentID, ErrNotFound)
	}
	delete(d.items, studentID)
	return nil
}

// MemTeachers ---------------------------------------------------------------

type MemTeachers struct {
	mu    sync.RWMutex
	items map[string]Teacher
}

func (d *MemTeachers) Find(ctx context.Context, teacherID string) (Teacher, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.items[teacherID]
	if !ok {
		return Teacher{}, fmt.Errorf("teacher %s: %w", teacherID, ErrNotFound)
	}
	return t, nil
}

func (d *MemTeachers) List(ctx context.Context) ([]Teacher, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Teacher, 0, len(d.items))
	for _, t := range d.items {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeacherID < out[j].TeacherID })
	return out, nil
}

func (d *MemTeachers) Create(ctx context.Context, t Teacher) (Teacher, error) {
	if strings.TrimSpace(t.TeacherID) == "" {
		return Teacher{}, fmt.Errorf("teacherId: %w", ErrInvalidInput)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.items[t.TeacherID]; ok {
		return Teacher{}, fmt.Errorf("teacher %s: %w", t.TeacherID, ErrAlreadyExists)
	}
	d.items[t.TeacherID] = t
	return t, nil
}

func (d *MemTeachers) Update(ctx context.Context, t Teacher) (Teacher, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.items[t.TeacherID]; !ok {
		return Teacher{}, fmt.Errorf("teacher %s: %w", t.TeacherID, ErrNotFound)
	}
	d.items[t.TeacherID] = t
	return t, nil
}

func (d *MemTeachers) Delete(ctx context.Context, teacherID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.items[teacherID]; !ok {
		return fmt.Errorf("teacher %s: %w", teacherID, ErrNotFound)
	}
	delete(d.items, teacherID)
	return nil
}

// MemAdmins -----------------------------------------------------------------

type MemAdmins struct {
	mu    sync.RWMutex
	items map[string]Admin
}

func (d *MemAdmins) Find(ctx context.Context, adminID string) (Admin, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.items[adminID]
	if !ok {
		return Admin{}, fmt.Errorf("admin %s: %w", adminID, ErrNotFound)
	}
	return a, nil
}

func (d *MemAdmins) List(ctx context.Context) ([]Admin, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Admin, 0, len(d.items))
	for _, a := range d.items {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdminID < out[j].AdminID })
	return out, nil
}

func (d *MemAdmins) Create(ctx context.Context, a Admin) (Admin, error) {
	if strings.TrimSpace(a.AdminID) == "" {
		return Admin{}, fmt.Errorf("adminId: %w", ErrInvalidInput)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.items[a.AdminID]; ok {
		return Admin{}, fmt.Errorf("admin %s: %w", a.AdminID, ErrAlreadyExists)
	}
	d.items[a.AdminID] = a
	return a, nil
}

func (d *MemAdmins) Update(ctx context.Context, a Admin) (Admin, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.items[a.AdminID]; !ok {
		return Admin{}, fmt.Errorf("admin %s: %w", a.AdminID, ErrNotFound)
	}
	d.items[a.AdminID] = a
	return a, nil
}

func (d *MemAdmins) Delete(ctx context.Context, adminID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.items[adminID]; !ok {
		return fmt.Errorf("admin %s: %w", adminID, ErrNotFound)
	}
	delete(d.items, adminID)
	return nil
}

// Lookup-only stores --------------------------------------------------------

type MemSubjects struct {
	mu    sync.RWMutex
	items map[string]Subject
}

func (d *MemSubjects) Find(ctx context.Context, subjectID string) (Subject, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.items[subjectID]
	if !ok {
		return Subject{}, fmt.Errorf("subject %s: %w", subjectID, ErrNotFound)
	}
	return s, nil
}

func (d *MemSubjects) Put(s Subject) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items[s.SubjectID] = s
}

type MemSemesters struct {
	mu    sync.RWMutex
	items map[string]Semester
}

func (d *MemSemesters) Find(ctx context.Context, semesterID string) (Semester, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.items[semesterID]
	if !ok {
		return Semester{}, fmt.Errorf("semester %s: %w", semesterID, ErrNotFound)
	}
	return s, nil
}

func (d *MemSemesters) Put(s Semester) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items[s.SemesterID] = s
}

type MemClasses struct {
	mu    sync.RWMutex
	items map[string]Class
}

func (d *MemClasses) Find(ctx context.Context, classID string) (Class, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.items[classID]
	if !ok {
		return Class{}, fmt.Errorf("class %s: %w", classID, ErrNotFound)
	}
	return c, nil
}

func (d *MemClasses) Put(c Class) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items[c.ClassID] = c
}

type MemMajors struct {
	mu    sync.RWMutex
	items map[string]Major
}

func (d *MemMajors) Find(ctx context.Context, majorID string) (Major, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.items[majorID]
	if !ok {
		return Major{}, fmt.Errorf("major %s: %w", majorID, ErrNotFound)
	}
	return m, nil
}

func (d *MemMajors) Put(m Major) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items[m.MajorID] = m
}
