package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"gradebook.org/internal/audit"
	"gradebook.org/internal/auth"
	"gradebook.org/internal/grades"
	"gradebook.org/internal/obs"
	"gradebook.org/internal/stream"
)

type listScoresResponse struct {
	Items []grades.Score `json:"items"`
	Count int            `json:"count"`
	AsOf  time.Time      `json:"asOf"`
}

func (a *API) handleScoresCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.submitScore(w, r)
	case http.MethodGet:
		a.listScores(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleScoreResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/scores/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getScore(w, r, id)
	case http.MethodPut:
		a.updateScore(w, r, id)
	case http.MethodDelete:
		a.deleteScore(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) submitScore(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireStaff(w, r); !ok {
		return
	}
	var sub grades.Submission
	if err := decodeJSON(w, r, &sub); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	sc, err := a.scores.SubmitScore(r.Context(), sub)
	if err != nil {
		obs.CountScoreSubmission("failed")
		handleGradesError(w, r, err)
		return
	}

	obs.CountScoreSubmission("ok")
	a.publishScoreEvent("submitted", sc)
	_ = audit.LogEvent(r.Context(), "scores.submit", map[string]any{
		"score_id":   sc.ID,
		"student_id": sc.StudentID,
		"subject_id": sc.SubjectID,
		"semester":   sc.Semester,
	})

	w.Header().Set("Location", "/v1/scores/"+sc.ID)
	writeJSON(w, http.StatusCreated, sc)
}

func (a *API) listScores(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	q := r.URL.Query()
	f := grades.Filter{
		StudentID: strings.TrimSpace(q.Get("studentId")),
		SubjectID: strings.TrimSpace(q.Get("subjectId")),
		Semester:  strings.TrimSpace(q.Get("semester")),
		ClassName: strings.TrimSpace(q.Get("className")),
	}

	if err := auth.AuthorizeOwnData(claims, f.StudentID); err != nil {
		writeError(w, r, http.StatusForbidden, "students may only view their own scores")
		return
	}
	// A student query without an explicit studentId is scoped to the caller.
	if claims.Role == auth.RoleStudent && f.StudentID == "" {
		f.StudentID = claims.AccountID()
	}

	items, err := a.scores.ListScores(r.Context(), f)
	if err != nil {
		handleGradesError(w, r, err)
		return
	}
	if items == nil {
		items = []grades.Score{}
	}
	writeJSON(w, http.StatusOK, listScoresResponse{
		Items: items,
		Count: len(items),
		AsOf:  time.Now().UTC(),
	})
}

func (a *API) getScore(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	sc, err := a.scores.GetScore(r.Context(), id)
	if err != nil {
		handleGradesError(w, r, err)
		return
	}
	if err := auth.AuthorizeOwnData(claims, sc.StudentID); err != nil {
		writeError(w, r, http.StatusForbidden, "students may only view their own scores")
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (a *API) updateScore(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireStaff(w, r); !ok {
		return
	}
	var c grades.Components
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sc, err := a.scores.UpdateScore(r.Context(), id, c)
	if err != nil {
		handleGradesError(w, r, err)
		return
	}
	a.publishScoreEvent("updated", sc)
	_ = audit.LogEvent(r.Context(), "scores.update", map[string]any{
		"score_id":   sc.ID,
		"student_id": sc.StudentID,
	})
	writeJSON(w, http.StatusOK, sc)
}

func (a *API) deleteScore(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireStaff(w, r); !ok {
		return
	}
	sc, err := a.scores.GetScore(r.Context(), id)
	if err != nil {
		handleGradesError(w, r, err)
		return
	}
	if err := a.scores.DeleteScore(r.Context(), id); err != nil {
		handleGradesError(w, r, err)
		return
	}
	a.publishScoreEvent("deleted", sc)
	_ = audit.LogEvent(r.Context(), "scores.delete", map[string]any{
		"score_id":   id,
		"student_id": sc.StudentID,
	})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (a *API) publishScoreEvent(action string, sc grades.Score) {
	if a.stream == nil {
		return
	}
	a.stream.Publish(stream.ScoreEvent{
		Action:      action,
		StudentID:   sc.StudentID,
		SubjectID:   sc.SubjectID,
		SubjectName: sc.SubjectName,
		Semester:    sc.Semester,
		FinalScore:  sc.FinalScore,
		LetterGrade: sc.LetterGrade,
	})
}

func handleGradesError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, grades.ErrMissingKey), errors.Is(err, grades.ErrOutOfRange):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, grades.ErrUnknownStudent),
		errors.Is(err, grades.ErrUnknownSubject),
		errors.Is(err, grades.ErrUnknownSemester):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, grades.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
