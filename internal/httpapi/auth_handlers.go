package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"gradebook.org/internal/audit"
	"gradebook.org/internal/auth"
	"gradebook.org/internal/obs"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			obs.CountLogin("failed")
			// Same message for unknown user and wrong password.
			writeError(w, r, http.StatusUnauthorized, "invalid username or password")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	obs.CountLogin("ok")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"account_id": result.User.AccountID,
		"role":       result.User.Role,
		"username":   strings.TrimSpace(strings.ToLower(req.Username)),
	})
	writeJSON(w, http.StatusOK, result)
}
