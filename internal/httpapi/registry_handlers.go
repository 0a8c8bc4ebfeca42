package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gradebook.org/internal/audit"
	"gradebook.org/internal/auth"
	"gradebook.org/internal/registry"
)

type createStudentRequest struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	DateOfBirth string `json:"dateOfBirth"`
	Email       string `json:"email"`
	ClassID     string `json:"classId"`
}

type studentResponse struct {
	registry.Student
	AccountID string `json:"accountId,omitempty"`
}

// Students -----------------------------------------------------------------

func (a *API) handleStudentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listStudents(w, r)
	case http.MethodPost:
		a.createStudent(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleStudentResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/students/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getStudent(w, r, id)
	case http.MethodPut:
		a.updateStudent(w, r, id)
	case http.MethodDelete:
		a.deleteStudent(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listStudents(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireStaff(w, r); !ok {
		return
	}
	var (
		items []registry.Student
		err   error
	)
	if classID := strings.TrimSpace(r.URL.Query().Get("classId")); classID != "" {
		items, err = a.students.ListByClass(r.Context(), classID)
	} else {
		items, err = a.students.List(r.Context())
	}
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}
	if items == nil {
		items = []registry.Student{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// createStudent registers the student and provisions its login account from
// the email and institutional identifier.
func (a *API) createStudent(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	var req createStudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	dob, err := time.Parse("2006-01-02", strings.TrimSpace(req.DateOfBirth))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "dateOfBirth must be YYYY-MM-DD")
		return
	}

	st, err := a.students.Create(r.Context(), registry.Student{
		StudentID:   strings.TrimSpace(req.StudentID),
		StudentName: strings.TrimSpace(req.StudentName),
		DateOfBirth: dob.UTC(),
		Email:       strings.TrimSpace(req.Email),
		ClassID:     strings.TrimSpace(req.ClassID),
	})
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}

	account, err := a.provisioner.Provision(r.Context(), st.Email, st.StudentID, auth.RoleStudent)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "account provisioning failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "registry.student.create", map[string]any{
		"student_id": st.StudentID,
		"account_id": account.AccountID,
	})
	w.Header().Set("Location", "/v1/students/"+st.StudentID)
	writeJSON(w, http.StatusCreated, studentResponse{Student: st, AccountID: account.AccountID})
}

func (a *API) getStudent(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	// Students may look up their own registry record.
	if err := auth.AuthorizeOwnData(claims, id); err != nil {
		writeError(w, r, http.StatusForbidden, "students may only view their own record")
		return
	}
	st, err := a.students.Find(r.Context(), id)
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) updateStudent(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	var req createStudentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	st, err := a.students.Update(r.Context(), registry.Student{
		StudentID:   id,
		StudentName: strings.TrimSpace(req.StudentName),
		Email:       strings.TrimSpace(req.Email),
		ClassID:     strings.TrimSpace(req.ClassID),
	})
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "registry.student.update", map[string]any{"student_id": id})
	writeJSON(w, http.StatusOK, st)
}

func (a *API) deleteStudent(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	if err := a.students.Delete(r.Context(), id); err != nil {
		handleRegistryError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "registry.student.delete", map[string]any{"student_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// Teachers -----------------------------------------------------------------

type createTeacherRequest struct {
	TeacherID    string `json:"teacherId"`
	TeacherName  string `json:"teacherName"`
	TeacherEmail string `json:"teacherEmail"`
	Department   string `json:"department"`
}

type teacherResponse struct {
	registry.Teacher
	AccountID string `json:"accountId,omitempty"`
}

func (a *API) handleTeachersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listTeachers(w, r)
	case http.MethodPost:
		a.createTeacher(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleTeacherResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/teachers/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getTeacher(w, r, id)
	case http.MethodPut:
		a.updateTeacher(w, r, id)
	case http.MethodDelete:
		a.deleteTeacher(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listTeachers(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireStaff(w, r); !ok {
		return
	}
	items, err := a.teachers.List(r.Context())
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}
	if items == nil {
		items = []registry.Teacher{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// createTeacher registers the teacher and provisions its login account from
// the email and institutional identifier.
func (a *API) createTeacher(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	var req createTeacherRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := a.teachers.Create(r.Context(), registry.Teacher{
		TeacherID:    strings.TrimSpace(req.TeacherID),
		TeacherName:  strings.TrimSpace(req.TeacherName),
		TeacherEmail: strings.TrimSpace(req.TeacherEmail),
		Department:   strings.TrimSpace(req.Department),
	})
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}

	account, err := a.provisioner.Provision(r.Context(), t.TeacherEmail, t.TeacherID, auth.RoleTeacher)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "account provisioning failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "registry.teacher.create", map[string]any{
		"teacher_id": t.TeacherID,
		"account_id": account.AccountID,
	})
	w.Header().Set("Location", "/v1/teachers/"+t.TeacherID)
	writeJSON(w, http.StatusCreated, teacherResponse{Teacher: t, AccountID: account.AccountID})
}

func (a *API) getTeacher(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireStaff(w, r); !ok {
		return
	}
	t, err := a.teachers.Find(r.Context(), id)
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) updateTeacher(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	var req createTeacherRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	t, err := a.teachers.Update(r.Context(), registry.Teacher{
		TeacherID:    id,
		TeacherName:  strings.TrimSpace(req.TeacherName),
		TeacherEmail: strings.TrimSpace(req.TeacherEmail),
		Department:   strings.TrimSpace(req.Department),
	})
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "registry.teacher.update", map[string]any{"teacher_id": id})
	writeJSON(w, http.StatusOK, t)
}

func (a *API) deleteTeacher(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	if err := a.teachers.Delete(r.Context(), id); err != nil {
		handleRegistryError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "registry.teacher.delete", map[string]any{"teacher_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// Admins -------------------------------------------------------------------

type createAdminRequest struct {
	AdminID   string `json:"adminId"`
	AdminName string `json:"adminName"`
	Email     string `json:"email"`
}

type adminResponse struct {
	registry.Admin
	AccountID string `json:"accountId,omitempty"`
}

func (a *API) handleAdminsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listAdmins(w, r)
	case http.MethodPost:
		a.createAdmin(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleAdminResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/admins/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getAdmin(w, r, id)
	case http.MethodPut:
		a.updateAdmin(w, r, id)
	case http.MethodDelete:
		a.deleteAdmin(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listAdmins(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	items, err := a.admins.List(r.Context())
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}
	if items == nil {
		items = []registry.Admin{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// createAdmin registers the admin and provisions its login account from the
// email and institutional identifier.
func (a *API) createAdmin(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	var req createAdminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	adm, err := a.admins.Create(r.Context(), registry.Admin{
		AdminID:   strings.TrimSpace(req.AdminID),
		AdminName: strings.TrimSpace(req.AdminName),
		Email:     strings.TrimSpace(req.Email),
	})
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}

	account, err := a.provisioner.Provision(r.Context(), adm.Email, adm.AdminID, auth.RoleAdmin)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "account provisioning failed")
		return
	}

	_ = audit.LogEvent(r.Context(), "registry.admin.create", map[string]any{
		"admin_id":   adm.AdminID,
		"account_id": account.AccountID,
	})
	w.Header().Set("Location", "/v1/admins/"+adm.AdminID)
	writeJSON(w, http.StatusCreated, adminResponse{Admin: adm, AccountID: account.AccountID})
}

func (a *API) getAdmin(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	adm, err := a.admins.Find(r.Context(), id)
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, adm)
}

func (a *API) updateAdmin(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	var req createAdminRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	adm, err := a.admins.Update(r.Context(), registry.Admin{
		AdminID:   id,
		AdminName: strings.TrimSpace(req.AdminName),
		Email:     strings.TrimSpace(req.Email),
	})
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "registry.admin.update", map[string]any{"admin_id": id})
	writeJSON(w, http.StatusOK, adm)
}

func (a *API) deleteAdmin(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	if err := a.admins.Delete(r.Context(), id); err != nil {
		handleRegistryError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "registry.admin.delete", map[string]any{"admin_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func handleRegistryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, registry.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, registry.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, registry.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
