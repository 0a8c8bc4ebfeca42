package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"gradebook.org/internal/audit"
	"gradebook.org/internal/auth"
)

type updateAccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (a *API) handleAccountsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listAccounts(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet)
	}
}

func (a *API) handleAccountResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/accounts/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getAccount(w, r, id)
	case http.MethodPut:
		a.updateAccount(w, r, id)
	case http.MethodDelete:
		a.deleteAccount(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listAccounts(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	items, err := a.accounts.List(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if items == nil {
		items = []auth.Account{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (a *API) getAccount(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	account, err := a.accounts.FindByAccountID(r.Context(), id)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (a *API) updateAccount(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	update := auth.Account{
		AccountID: id,
		Username:  strings.TrimSpace(req.Username),
		Role:      strings.TrimSpace(req.Role),
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		update.PasswordHash = hash
	}
	account, err := a.accounts.Update(r.Context(), update)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "accounts.update", map[string]any{"account_id": id})
	writeJSON(w, http.StatusOK, account)
}

func (a *API) deleteAccount(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	if claims.AccountID() == id {
		writeError(w, r, http.StatusBadRequest, "cannot delete the calling account")
		return
	}
	if err := a.accounts.Delete(r.Context(), id); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "accounts.delete", map[string]any{"account_id": id})
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
