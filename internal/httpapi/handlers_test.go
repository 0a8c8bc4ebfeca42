package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"gradebook.org/internal/auth"
	"gradebook.org/internal/grades"
	"gradebook.org/internal/identity"
	"gradebook.org/internal/registry"
	"gradebook.org/internal/stream"
)

type apiClient struct {
	baseURL string
	client  *http.Client
	t       *testing.T

	accounts *auth.InMemoryStore
	registry *registry.InMemory
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	signer, err := auth.NewTokenSigner("test-secret", "gradebook-test")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	accounts := auth.NewInMemoryStore()
	authSvc := auth.NewService(accounts, signer)

	reg := registry.NewInMemory()
	seedRegistry(t, reg)

	api := New(Config{
		Scores:      grades.NewInMemory(reg.Students, reg.Subjects, reg.Semesters),
		Auth:        authSvc,
		Provisioner: identity.NewProvisioner(accounts, fastHash),
		Students:    reg.Students,
		Teachers:    reg.Teachers,
		Admins:      reg.Admins,
		Accounts:    accounts,
		Stream:      stream.New(),
		Ready:       ReadyProbe{},
		Version:     "test",
	})

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	return &apiClient{
		baseURL:  srv.URL,
		client:   srv.Client(),
		t:        t,
		accounts: accounts,
		registry: reg,
	}
}

// fastHash stands in for bcrypt so the suite does not burn CPU on hashing.
func fastHash(plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

func seedRegistry(t *testing.T, reg *registry.InMemory) {
	t.Helper()
	ctx := context.Background()
	reg.Classes.Put(registry.Class{ClassID: "SE01", ClassName: "SE1501", MajorID: "SE"})
	reg.Subjects.Put(registry.Subject{SubjectID: "CS101", SubjectName: "Algorithms", Credits: 3})
	reg.Semesters.Put(registry.Semester{SemesterID: "2025A", SemesterName: "Spring 2025"})
	students := []registry.Student{
		{StudentID: "SV001", StudentName: "An Tran", DateOfBirth: time.Date(2004, 5, 1, 0, 0, 0, 0, time.UTC), Email: "an@example.edu", ClassID: "SE01"},
		{StudentID: "SV002", StudentName: "Binh Le", DateOfBirth: time.Date(2004, 8, 20, 0, 0, 0, 0, time.UTC), Email: "binh@example.edu", ClassID: "SE01"},
	}
	for _, st := range students {
		if _, err := reg.Students.Create(ctx, st); err != nil {
			t.Fatalf("seed student: %v", err)
		}
	}
}

// tokenFor provisions an account with a known password and logs it in.
func (c *apiClient) tokenFor(accountID, role string) string {
	c.t.Helper()
	hash, err := auth.HashPassword("pass-" + accountID)
	if err != nil {
		c.t.Fatalf("hash: %v", err)
	}
	_, err = c.accounts.Create(context.Background(), auth.Account{
		AccountID:    accountID,
		Username:     accountID + "@example.edu",
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		c.t.Fatalf("create account: %v", err)
	}
	resp := c.post("/v1/auth/login", map[string]any{
		"username": accountID + "@example.edu",
		"password": "pass-" + accountID,
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("login status: %d", resp.StatusCode)
	}
	var payload auth.LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.t.Fatalf("decode login: %v", err)
	}
	return payload.Token
}

func bearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (c *apiClient) do(method, path string, body any, headers map[string]string) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) post(path string, body any, headers map[string]string) *http.Response {
	return c.do(http.MethodPost, path, body, headers)
}

func (c *apiClient) get(path string, params url.Values, headers map[string]string) *http.Response {
	c.t.Helper()
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("parse url: %v", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestHealthAndInfoPublic(t *testing.T) {
	c := newTestAPI(t)
	for _, path := range []string{"/healthz", "/readyz", "/v1/info"} {
		resp := c.get(path, nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestLoginFailureIsIndistinguishable(t *testing.T) {
	c := newTestAPI(t)
	c.tokenFor("SV001", auth.RoleStudent)

	unknown := c.post("/v1/auth/login", map[string]any{"username": "nobody@example.edu", "password": "x"}, nil)
	wrongPass := c.post("/v1/auth/login", map[string]any{"username": "SV001@example.edu", "password": "wrong"}, nil)

	var bodyUnknown, bodyWrong map[string]any
	decodeBody(t, unknown, &bodyUnknown)
	decodeBody(t, wrongPass, &bodyWrong)

	if unknown.StatusCode != http.StatusUnauthorized || wrongPass.StatusCode != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d", unknown.StatusCode, wrongPass.StatusCode)
	}
	if bodyUnknown["error"] != bodyWrong["error"] {
		t.Fatalf("error messages differ: %v vs %v", bodyUnknown["error"], bodyWrong["error"])
	}
}

func TestSubmitScoreRequiresStaff(t *testing.T) {
	c := newTestAPI(t)
	studentTok := c.tokenFor("SV001", auth.RoleStudent)
	teacherTok := c.tokenFor("GV001", auth.RoleTeacher)

	body := map[string]any{
		"studentId": "SV001", "subjectId": "CS101", "semester": "2025A",
		"ex1Score": 8.0, "ex2Score": 7.0, "examScore": 9.0,
	}

	resp := c.post("/v1/scores", body, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous submit status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.post("/v1/scores", body, bearerHeader(studentTok))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("student submit status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.post("/v1/scores", body, bearerHeader(teacherTok))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("teacher submit status = %d", resp.StatusCode)
	}
	var sc grades.Score
	decodeBody(t, resp, &sc)
	if sc.FinalScore != 8.3 || sc.LetterGrade != "B+" || sc.GPA != 3.3 {
		t.Fatalf("derived fields: %+v", sc)
	}
	if sc.ClassName != "SE1501" || sc.SubjectName != "Algorithms" {
		t.Fatalf("snapshots: %+v", sc)
	}
}

func TestResubmitSameTripleKeepsOneRecord(t *testing.T) {
	c := newTestAPI(t)
	teacherTok := c.tokenFor("GV001", auth.RoleTeacher)

	first := map[string]any{
		"studentId": "SV001", "subjectId": "CS101", "semester": "2025A",
		"ex1Score": 5.0, "ex2Score": 5.0, "examScore": 5.0,
	}
	second := map[string]any{
		"studentId": "SV001", "subjectId": "CS101", "semester": "2025A",
		"ex1Score": 10.0, "ex2Score": 10.0, "examScore": 10.0,
	}

	resp := c.post("/v1/scores", first, bearerHeader(teacherTok))
	var sc1 grades.Score
	decodeBody(t, resp, &sc1)

	resp = c.post("/v1/scores", second, bearerHeader(teacherTok))
	var sc2 grades.Score
	decodeBody(t, resp, &sc2)

	if sc1.ID != sc2.ID {
		t.Fatalf("expected same record id, got %s and %s", sc1.ID, sc2.ID)
	}
	if sc2.FinalScore != 10.0 || sc2.LetterGrade != "A+" {
		t.Fatalf("second submission values: %+v", sc2)
	}

	list := c.get("/v1/scores", url.Values{"studentId": {"SV001"}}, bearerHeader(teacherTok))
	var lr listScoresResponse
	decodeBody(t, list, &lr)
	if lr.Count != 1 {
		t.Fatalf("count = %d, want 1", lr.Count)
	}
}

func TestStudentScoreOwnership(t *testing.T) {
	c := newTestAPI(t)
	teacherTok := c.tokenFor("GV001", auth.RoleTeacher)
	studentTok := c.tokenFor("SV001", auth.RoleStudent)

	for _, sid := range []string{"SV001", "SV002"} {
		resp := c.post("/v1/scores", map[string]any{
			"studentId": sid, "subjectId": "CS101", "semester": "2025A",
			"ex1Score": 8.0, "ex2Score": 7.0, "examScore": 9.0,
		}, bearerHeader(teacherTok))
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("submit for %s: %d", sid, resp.StatusCode)
		}
		resp.Body.Close()
	}

	// Explicit foreign studentId is forbidden.
	resp := c.get("/v1/scores", url.Values{"studentId": {"SV002"}}, bearerHeader(studentTok))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign filter status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Absent studentId is scoped to the caller, not the full ledger.
	resp = c.get("/v1/scores", nil, bearerHeader(studentTok))
	var lr listScoresResponse
	decodeBody(t, resp, &lr)
	if lr.Count != 1 || lr.Items[0].StudentID != "SV001" {
		t.Fatalf("student list: %+v", lr)
	}

	// Fetch by id follows the same rule.
	foreign := c.get("/v1/scores", url.Values{"studentId": {"SV002"}}, bearerHeader(teacherTok))
	var foreignList listScoresResponse
	decodeBody(t, foreign, &foreignList)
	resp = c.get("/v1/scores/"+foreignList.Items[0].ID, nil, bearerHeader(studentTok))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign get status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Staff sees everything.
	resp = c.get("/v1/scores", nil, bearerHeader(teacherTok))
	decodeBody(t, resp, &lr)
	if lr.Count != 2 {
		t.Fatalf("staff list count = %d", lr.Count)
	}
}

func TestSubmitScoreUnknownReferences(t *testing.T) {
	c := newTestAPI(t)
	teacherTok := c.tokenFor("GV001", auth.RoleTeacher)

	cases := []struct {
		name string
		body map[string]any
		code int
	}{
		{"unknown student", map[string]any{"studentId": "SV404", "subjectId": "CS101", "semester": "2025A", "ex1Score": 5.0, "ex2Score": 5.0, "examScore": 5.0}, http.StatusNotFound},
		{"unknown subject", map[string]any{"studentId": "SV001", "subjectId": "XX999", "semester": "2025A", "ex1Score": 5.0, "ex2Score": 5.0, "examScore": 5.0}, http.StatusNotFound},
		{"unknown semester", map[string]any{"studentId": "SV001", "subjectId": "CS101", "semester": "1999Z", "ex1Score": 5.0, "ex2Score": 5.0, "examScore": 5.0}, http.StatusNotFound},
		{"score out of range", map[string]any{"studentId": "SV001", "subjectId": "CS101", "semester": "2025A", "ex1Score": 11.0, "ex2Score": 5.0, "examScore": 5.0}, http.StatusBadRequest},
		{"missing key", map[string]any{"subjectId": "CS101", "semester": "2025A", "ex1Score": 5.0, "ex2Score": 5.0, "examScore": 5.0}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp := c.post("/v1/scores", tc.body, bearerHeader(teacherTok))
		if resp.StatusCode != tc.code {
			t.Fatalf("%s: status = %d, want %d", tc.name, resp.StatusCode, tc.code)
		}
		resp.Body.Close()
	}
}

func TestUpdateAndDeleteScore(t *testing.T) {
	c := newTestAPI(t)
	teacherTok := c.tokenFor("GV001", auth.RoleTeacher)

	resp := c.post("/v1/scores", map[string]any{
		"studentId": "SV001", "subjectId": "CS101", "semester": "2025A",
		"ex1Score": 5.0, "ex2Score": 5.0, "examScore": 5.0,
	}, bearerHeader(teacherTok))
	var sc grades.Score
	decodeBody(t, resp, &sc)

	resp = c.do(http.MethodPut, "/v1/scores/"+sc.ID, map[string]any{
		"ex1Score": 9.0, "ex2Score": 9.0, "examScore": 9.0,
	}, bearerHeader(teacherTok))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}
	var updated grades.Score
	decodeBody(t, resp, &updated)
	if updated.FinalScore != 9.0 || updated.LetterGrade != "A+" {
		t.Fatalf("updated derivation: %+v", updated)
	}

	resp = c.do(http.MethodDelete, "/v1/scores/"+sc.ID, nil, bearerHeader(teacherTok))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.get("/v1/scores/"+sc.ID, nil, bearerHeader(teacherTok))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateStudentProvisionsAccount(t *testing.T) {
	c := newTestAPI(t)
	adminTok := c.tokenFor("AD001", auth.RoleAdmin)

	resp := c.post("/v1/students", map[string]any{
		"studentId":   "SV100",
		"studentName": "Chi Pham",
		"dateOfBirth": "2005-02-14",
		"email":       "chi@example.edu",
		"classId":     "SE01",
	}, bearerHeader(adminTok))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create student status = %d", resp.StatusCode)
	}
	var created studentResponse
	decodeBody(t, resp, &created)
	if created.AccountID != "SV100" {
		t.Fatalf("accountId = %q", created.AccountID)
	}

	account, err := c.accounts.FindByUsername(context.Background(), "chi@example.edu")
	if err != nil {
		t.Fatalf("provisioned account missing: %v", err)
	}
	if account.Role != auth.RoleStudent || account.AccountID != "SV100" {
		t.Fatalf("provisioned account: %+v", account)
	}

	// Re-creating the same student conflicts; the account stays intact.
	resp = c.post("/v1/students", map[string]any{
		"studentId":   "SV100",
		"studentName": "Chi Pham",
		"dateOfBirth": "2005-02-14",
		"email":       "chi@example.edu",
		"classId":     "SE01",
	}, bearerHeader(adminTok))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate create status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegistryWritesRequireAdmin(t *testing.T) {
	c := newTestAPI(t)
	teacherTok := c.tokenFor("GV001", auth.RoleTeacher)

	resp := c.post("/v1/students", map[string]any{
		"studentId": "SV200", "studentName": "X", "dateOfBirth": "2005-01-01", "email": "x@example.edu",
	}, bearerHeader(teacherTok))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("teacher create student status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Teachers can still read the roster.
	resp = c.get("/v1/students", nil, bearerHeader(teacherTok))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("teacher list students status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAccountsAdminOnly(t *testing.T) {
	c := newTestAPI(t)
	adminTok := c.tokenFor("AD001", auth.RoleAdmin)
	teacherTok := c.tokenFor("GV001", auth.RoleTeacher)

	resp := c.get("/v1/accounts", nil, bearerHeader(teacherTok))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("teacher list accounts status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.get("/v1/accounts", nil, bearerHeader(adminTok))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin list accounts status = %d", resp.StatusCode)
	}
	var lr struct {
		Items []auth.Account `json:"items"`
		Count int            `json:"count"`
	}
	decodeBody(t, resp, &lr)
	if lr.Count != 2 {
		t.Fatalf("accounts count = %d", lr.Count)
	}

	// An admin cannot delete its own account.
	resp = c.do(http.MethodDelete, "/v1/accounts/AD001", nil, bearerHeader(adminTok))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("self delete status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.do(http.MethodDelete, "/v1/accounts/GV001", nil, bearerHeader(adminTok))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete account status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTamperedTokenRejected(t *testing.T) {
	c := newTestAPI(t)
	tok := c.tokenFor("GV001", auth.RoleTeacher)

	resp := c.get("/v1/scores", nil, bearerHeader(tok+"x"))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("tampered token status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}
