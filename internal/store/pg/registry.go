package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gradebook.org/internal/registry"
)

// Students returns the student directory backed by this database.
func (s *Store) Students() registry.StudentDirectory { return &studentDir{db: s.db} }

// Teachers returns the teacher directory backed by this database.
func (s *Store) Teachers() registry.TeacherDirectory { return &teacherDir{db: s.db} }

// Admins returns the admin directory backed by this database.
func (s *Store) Admins() registry.AdminDirectory { return &adminDir{db: s.db} }

// Subjects returns the subject lookup backed by this database.
func (s *Store) Subjects() registry.SubjectDirectory { return &subjectDir{db: s.db} }

// Semesters returns the semester lookup backed by this database.
func (s *Store) Semesters() registry.SemesterDirectory { return &semesterDir{db: s.db} }

// Classes returns the class lookup backed by this database.
func (s *Store) Classes() registry.ClassDirectory { return &classDir{db: s.db} }

// Student directory --------------------------------------------------------

type studentDir struct{ db *sql.DB }

var _ registry.StudentDirectory = (*studentDir)(nil)

const studentColumns = `s.student_id, s.student_name, s.date_of_birth, s.email,
	s.class_id, coalesce(c.class_name,'')`

const studentFrom = ` from students s left join classes c on c.class_id = s.class_id`

func scanStudent(row interface{ Scan(...any) error }) (registry.Student, error) {
	var st registry.Student
	err := row.Scan(&st.StudentID, &st.StudentName, &st.DateOfBirth, &st.Email,
		&st.ClassID, &st.ClassName)
	return st, err
}

func (d *studentDir) Find(ctx context.Context, studentID string) (registry.Student, error) {
	row := d.db.QueryRowContext(ctx,
		`select `+studentColumns+studentFrom+` where s.student_id=$1`, studentID)
	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.Student{}, registry.ErrNotFound
	}
	return st, err
}

func (d *studentDir) List(ctx context.Context) ([]registry.Student, error) {
	return d.list(ctx, `select `+studentColumns+studentFrom+` order by s.student_id asc`)
}

func (d *studentDir) ListByClass(ctx context.Context, classID string) ([]registry.Student, error) {
	return d.list(ctx,
		`select `+studentColumns+studentFrom+` where s.class_id=$1 order by s.student_id asc`,
		classID)
}

func (d *studentDir) list(ctx context.Context, query string, args ...any) ([]registry.Student, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []registry.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, st)
	}
	return res, rows.Err()
}

func (d *studentDir) Create(ctx context.Context, st registry.Student) (registry.Student, error) {
	if st.StudentID == "" || st.StudentName == "" || st.Email == "" {
		return registry.Student{}, fmt.Errorf("studentId, studentName and email are required: %w", registry.ErrInvalidInput)
	}
	_, err := d.db.ExecContext(ctx, `
		insert into students(student_id, student_name, date_of_birth, email, class_id)
		values ($1,$2,$3,$4,nullif($5,''))
	`, st.StudentID, st.StudentName, st.DateOfBirth, st.Email, st.ClassID)
	if isUniqueViolation(err) {
		return registry.Student{}, fmt.Errorf("student %s: %w", st.StudentID, registry.ErrAlreadyExists)
	}
	if err != nil {
		return registry.Student{}, err
	}
	return d.Find(ctx, st.StudentID)
}

func (d *studentDir) Update(ctx context.Context, st registry.Student) (registry.Student, error) {
	res, err := d.db.ExecContext(ctx, `
		update students set
			student_name  = coalesce(nullif($2,''), student_name),
			email         = coalesce(nullif($3,''), email),
			class_id      = coalesce(nullif($4,''), class_id)
		where student_id=$1
	`, st.StudentID, st.StudentName, st.Email, st.ClassID)
	if err != nil {
		return registry.Student{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return registry.Student{}, registry.ErrNotFound
	}
	return d.Find(ctx, st.StudentID)
}

func (d *studentDir) Delete(ctx context.Context, studentID string) error {
	res, err := d.db.ExecContext(ctx, `delete from students where student_id=$1`, studentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return registry.ErrNotFound
	}
	return nil
}

// Teacher directory --------------------------------------------------------

type teacherDir struct{ db *sql.DB }

var _ registry.TeacherDirectory = (*teacherDir)(nil)

const teacherColumns = `teacher_id, teacher_name, teacher_email, coalesce(department,'')`

func scanTeacher(row interface{ Scan(...any) error }) (registry.Teacher, error) {
	var t registry.Teacher
	err := row.Scan(&t.TeacherID, &t.TeacherName, &t.TeacherEmail, &t.Department)
	return t, err
}

func (d *teacherDir) Find(ctx context.Context, teacherID string) (registry.Teacher, error) {
	row := d.db.QueryRowContext(ctx,
		`select `+teacherColumns+` from teachers where teacher_id=$1`, teacherID)
	t, err := scanTeacher(row)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.Teacher{}, registry.ErrNotFound
	}
	return t, err
}

func (d *teacherDir) List(ctx context.Context) ([]registry.Teacher, error) {
	rows, err := d.db.QueryContext(ctx,
		`select `+teacherColumns+` from teachers order by teacher_id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []registry.Teacher
	for rows.Next() {
		t, err := scanTeacher(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (d *teacherDir) Create(ctx context.Context, t registry.Teacher) (registry.Teacher, error) {
	if t.TeacherID == "" || t.TeacherName == "" || t.TeacherEmail == "" {
		return registry.Teacher{}, fmt.Errorf("teacherId, teacherName and teacherEmail are required: %w", registry.ErrInvalidInput)
	}
	_, err := d.db.ExecContext(ctx, `
		insert into teachers(teacher_id, teacher_name, teacher_email, department)
		values ($1,$2,$3,nullif($4,''))
	`, t.TeacherID, t.TeacherName, t.TeacherEmail, t.Department)
	if isUniqueViolation(err) {
		return registry.Teacher{}, fmt.Errorf("teacher %s: %w", t.TeacherID, registry.ErrAlreadyExists)
	}
	if err != nil {
		return registry.Teacher{}, err
	}
	return d.Find(ctx, t.TeacherID)
}

func (d *teacherDir) Update(ctx context.Context, t registry.Teacher) (registry.Teacher, error) {
	res, err := d.db.ExecContext(ctx, `
		update teachers set
			teacher_name  = coalesce(nullif($2,''), teacher_name),
			teacher_email = coalesce(nullif($3,''), teacher_email),
			department    = coalesce(nullif($4,''), department)
		where teacher_id=$1
	`, t.TeacherID, t.TeacherName, t.TeacherEmail, t.Department)
	if err != nil {
		return registry.Teacher{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return registry.Teacher{}, registry.ErrNotFound
	}
	return d.Find(ctx, t.TeacherID)
}

func (d *teacherDir) Delete(ctx context.Context, teacherID string) error {
	res, err := d.db.ExecContext(ctx, `delete from teachers where teacher_id=$1`, teacherID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return registry.ErrNotFound
	}
	return nil
}

// Admin directory ----------------------------------------------------------

type adminDir struct{ db *sql.DB }

var _ registry.AdminDirectory = (*adminDir)(nil)

func scanAdmin(row interface{ Scan(...any) error }) (registry.Admin, error) {
	var a registry.Admin
	err := row.Scan(&a.AdminID, &a.AdminName, &a.Email)
	return a, err
}

func (d *adminDir) Find(ctx context.Context, adminID string) (registry.Admin, error) {
	row := d.db.QueryRowContext(ctx,
		`select admin_id, admin_name, email from admins where admin_id=$1`, adminID)
	a, err := scanAdmin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.Admin{}, registry.ErrNotFound
	}
	return a, err
}

func (d *adminDir) List(ctx context.Context) ([]registry.Admin, error) {
	rows, err := d.db.QueryContext(ctx,
		`select admin_id, admin_name, email from admins order by admin_id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []registry.Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (d *adminDir) Create(ctx context.Context, a registry.Admin) (registry.Admin, error) {
	if a.AdminID == "" || a.AdminName == "" || a.Email == "" {
		return registry.Admin{}, fmt.Errorf("adminId, adminName and email are required: %w", registry.ErrInvalidInput)
	}
	_, err := d.db.ExecContext(ctx, `
		insert into admins(admin_id, admin_name, email) values ($1,$2,$3)
	`, a.AdminID, a.AdminName, a.Email)
	if isUniqueViolation(err) {
		return registry.Admin{}, fmt.Errorf("admin %s: %w", a.AdminID, registry.ErrAlreadyExists)
	}
	if err != nil {
		return registry.Admin{}, err
	}
	return d.Find(ctx, a.AdminID)
}

func (d *adminDir) Update(ctx context.Context, a registry.Admin) (registry.Admin, error) {
	res, err := d.db.ExecContext(ctx, `
		update admins set
			admin_name = coalesce(nullif($2,''), admin_name),
			email      = coalesce(nullif($3,''), email)
		where admin_id=$1
	`, a.AdminID, a.AdminName, a.Email)
	if err != nil {
		return registry.Admin{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return registry.Admin{}, registry.ErrNotFound
	}
	return d.Find(ctx, a.AdminID)
}

func (d *adminDir) Delete(ctx context.Context, adminID string) error {
	res, err := d.db.ExecContext(ctx, `delete from admins where admin_id=$1`, adminID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return registry.ErrNotFound
	}
	return nil
}

// Reference lookups --------------------------------------------------------

type subjectDir struct{ db *sql.DB }

func (d *subjectDir) Find(ctx context.Context, subjectID string) (registry.Subject, error) {
	var sub registry.Subject
	err := d.db.QueryRowContext(ctx,
		`select subject_id, subject_name, coalesce(credits,0) from subjects where subject_id=$1`,
		subjectID).Scan(&sub.SubjectID, &sub.SubjectName, &sub.Credits)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.Subject{}, registry.ErrNotFound
	}
	return sub, err
}

type semesterDir struct{ db *sql.DB }

func (d *semesterDir) Find(ctx context.Context, semesterID string) (registry.Semester, error) {
	var sem registry.Semester
	err := d.db.QueryRowContext(ctx,
		`select semester_id, coalesce(semester_name,'') from semesters where semester_id=$1`,
		semesterID).Scan(&sem.SemesterID, &sem.SemesterName)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.Semester{}, registry.ErrNotFound
	}
	return sem, err
}

type classDir struct{ db *sql.DB }

func (d *classDir) Find(ctx context.Context, classID string) (registry.Class, error) {
	var cl registry.Class
	err := d.db.QueryRowContext(ctx,
		`select class_id, class_name, coalesce(major_id,'') from classes where class_id=$1`,
		classID).Scan(&cl.ClassID, &cl.ClassName, &cl.MajorID)
	if errors.Is(err, sql.ErrNoRows) {
		return registry.Class{}, registry.ErrNotFound
	}
	return cl, err
}
