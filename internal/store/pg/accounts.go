package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gradebook.org/internal/auth"
)

// Accounts returns the credential store backed by this database.
func (s *Store) Accounts() auth.AccountStore { return &accountStore{db: s.db} }

type accountStore struct{ db *sql.DB }

var _ auth.AccountStore = (*accountStore)(nil)

const accountColumns = `account_id, username, password_hash, role, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (auth.Account, error) {
	var a auth.Account
	err := row.Scan(&a.AccountID, &a.Username, &a.PasswordHash, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *accountStore) Create(ctx context.Context, a auth.Account) (auth.Account, error) {
	a.Username = strings.TrimSpace(strings.ToLower(a.Username))
	if a.AccountID == "" || a.Username == "" {
		return auth.Account{}, fmt.Errorf("accountId and username are required: %w", auth.ErrInvalidInput)
	}
	if !auth.ValidRole(a.Role) {
		return auth.Account{}, fmt.Errorf("role %q: %w", a.Role, auth.ErrInvalidInput)
	}
	row := s.db.QueryRowContext(ctx, `
		insert into accounts(account_id, username, password_hash, role, created_at, updated_at)
		values ($1,$2,$3,$4,now(),now())
		returning `+accountColumns,
		a.AccountID, a.Username, a.PasswordHash, a.Role,
	)
	created, err := scanAccount(row)
	if isUniqueViolation(err) {
		return auth.Account{}, fmt.Errorf("account %s: %w", a.AccountID, auth.ErrAlreadyExists)
	}
	if err != nil {
		return auth.Account{}, err
	}
	return created, nil
}

func (s *accountStore) FindByUsername(ctx context.Context, username string) (auth.Account, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where username=$1`, username)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Account{}, auth.ErrNotFound
	}
	return a, err
}

func (s *accountStore) FindByAccountID(ctx context.Context, accountID string) (auth.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where account_id=$1`, accountID)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Account{}, auth.ErrNotFound
	}
	return a, err
}

func (s *accountStore) List(ctx context.Context) ([]auth.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+accountColumns+` from accounts order by account_id asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []auth.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (s *accountStore) Update(ctx context.Context, a auth.Account) (auth.Account, error) {
	a.Username = strings.TrimSpace(strings.ToLower(a.Username))
	if a.Role != "" && !auth.ValidRole(a.Role) {
		return auth.Account{}, fmt.Errorf("role %q: %w", a.Role, auth.ErrInvalidInput)
	}
	row := s.db.QueryRowContext(ctx, `
		update accounts set
			username      = coalesce(nullif($2,''), username),
			password_hash = coalesce(nullif($3,''), password_hash),
			role          = coalesce(nullif($4,''), role),
			updated_at    = now()
		where account_id=$1
		returning `+accountColumns,
		a.AccountID, a.Username, a.PasswordHash, a.Role,
	)
	updated, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Account{}, auth.ErrNotFound
	}
	if isUniqueViolation(err) {
		return auth.Account{}, fmt.Errorf("username %s: %w", a.Username, auth.ErrAlreadyExists)
	}
	return updated, err
}

func (s *accountStore) Delete(ctx context.Context, accountID string) error {
	res, err := s.db.ExecContext(ctx, `delete from accounts where account_id=$1`, accountID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}
