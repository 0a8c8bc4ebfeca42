package registry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStudentCreateSnapshotsClassName(t *testing.T) {
	reg := NewInMemory()
	ctx := context.Background()
	reg.Classes.Put(Class{ClassID: "SE01", ClassName: "SE1501", MajorID: "SE"})

	st, err := reg.Students.Create(ctx, Student{
		StudentID:   "SV001",
		StudentName: "An Tran",
		DateOfBirth: time.Date(2004, 5, 1, 0, 0, 0, 0, time.UTC),
		Email:       "an@example.edu",
		ClassID:     "SE01",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if st.ClassName != "SE1501" {
		t.Fatalf("ClassName = %q", st.ClassName)
	}
}

func TestStudentCreateUnknownClass(t *testing.T) {
	reg := NewInMemory()
	_, err := reg.Students.Create(context.Background(), Student{
		StudentID: "SV001", StudentName: "An", Email: "an@example.edu", ClassID: "XX",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStudentCreateDuplicate(t *testing.T) {
	reg := NewInMemory()
	ctx := context.Background()
	if _, err := reg.Students.Create(ctx, Student{StudentID: "SV001", StudentName: "An", Email: "an@example.edu"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := reg.Students.Create(ctx, Student{StudentID: "SV001", StudentName: "An", Email: "an@example.edu"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestListByClassFilters(t *testing.T) {
	reg := NewInMemory()
	ctx := context.Background()
	reg.Classes.Put(Class{ClassID: "SE01", ClassName: "SE1501"})
	reg.Classes.Put(Class{ClassID: "SE02", ClassName: "SE1502"})

	for _, st := range []Student{
		{StudentID: "SV002", StudentName: "B", Email: "b@example.edu", ClassID: "SE01"},
		{StudentID: "SV001", StudentName: "A", Email: "a@example.edu", ClassID: "SE01"},
		{StudentID: "SV003", StudentName: "C", Email: "c@example.edu", ClassID: "SE02"},
	} {
		if _, err := reg.Students.Create(ctx, st); err != nil {
			t.Fatalf("Create %s: %v", st.StudentID, err)
		}
	}

	out, err := reg.Students.ListByClass(ctx, "SE01")
	if err != nil {
		t.Fatalf("ListByClass: %v", err)
	}
	if len(out) != 2 || out[0].StudentID != "SV001" || out[1].StudentID != "SV002" {
		t.Fatalf("unexpected list: %+v", out)
	}
}

func TestTeacherLifecycle(t *testing.T) {
	reg := NewInMemory()
	ctx := context.Background()

	created, err := reg.Teachers.Create(ctx, Teacher{
		TeacherID: "GV001", TeacherName: "Minh Ho", TeacherEmail: "minh@example.edu", Department: "CS",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	created.Department = "SE"
	if _, err := reg.Teachers.Update(ctx, created); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := reg.Teachers.Find(ctx, "GV001")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.Department != "SE" {
		t.Fatalf("Department = %q", got.Department)
	}

	if err := reg.Teachers.Delete(ctx, "GV001"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := reg.Teachers.Find(ctx, "GV001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err after delete = %v", err)
	}
}
