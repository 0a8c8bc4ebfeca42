package registry

import "context"

// StudentDirectory manages student records keyed by studentId.
type StudentDirectory interface {
	Find(ctx context.Context, studentID string) (Student, error)
	List(ctx context.Context) ([]Student, error)
	ListByClass(ctx context.Context, classID string) ([]Student, error)
	Create(ctx context.Context, s Student) (Student, error)
	Update(ctx context.Context, s Student) (Student, error)
	Delete(ctx context.Context, studentID string) error
}

// TeacherDirectory manages teacher records keyed by teacherId.
type TeacherDirectory interface {
	Find(ctx context.Context, teacherID string) (Teacher, error)
	List(ctx context.Context) ([]Teacher, error)
	Create(ctx context.Context, t Teacher) (Teacher, error)
	Update(ctx context.Context, t Teacher) (Teacher, error)
	Delete(ctx context.Context, teacherID string) error
}

// AdminDirectory manages admin records keyed by adminId.
type AdminDirectory interface {
	Find(ctx context.Context, adminID string) (Admin, error)
	List(ctx context.Context) ([]Admin, error)
	Create(ctx context.Context, a Admin) (Admin, error)
	Update(ctx context.Context, a Admin) (Admin, error)
	Delete(ctx context.Context, adminID string) error
}

// SubjectDirectory resolves subjects by business key. Subject CRUD lives
// outside this service; the ledger only needs lookups.
type SubjectDirectory interface {
	Find(ctx context.Context, subjectID string) (Subject, error)
}

// SemesterDirectory resolves semesters by business key.
type SemesterDirectory interface {
	Find(ctx context.Context, semesterID string) (Semester, error)
}

// ClassDirectory resolves classes by business key.
type ClassDirectory interface {
	Find(ctx context.Context, classID string) (Class, error)
}
