package sqlxrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/shuleni/shule/core/user"
)

// roleTable maps a role to its backing table and primary key column.
func roleTable(role string) (table, pk string) {
	if role == user.RoleAdmin {
		return "admins", "admin_id"
	}
	return "students", "student_id"
}

// accountRow is the credential projection shared by both role tables.
type accountRow struct {
	ID           int         `db:"id"`
	Name         string      `db:"name"`
	Username     string      `db:"username"`
	Email        null.String `db:"email"`
	IsActive     bool        `db:"is_active"`
	PasswordHash []byte      `db:"password_hash"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (r accountRow) account(role string) user.Account {
	return user.Account{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email.String,
		Role:         role,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func accountQuery(table, pk string) string {
	return fmt.Sprintf(
		"SELECT %s AS id, name, username, email, is_active, password_hash, created_at, updated_at, last_login FROM %s",
		pk, table,
	)
}

func (repo *Repository) GetAccountByUsername(ctx context.Context, role, username string) (user.Account, error) {
	table, pk := roleTable(role)

	var row accountRow
	err := repo.db.GetContext(ctx, &row, accountQuery(table, pk)+" WHERE username = $1", username)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.Account{}, user.ErrNotFound
		}
		return user.Account{}, errors.Wrap(err, "getting account by username")
	}
	return row.account(role), nil
}

func (repo *Repository) GetAccountByID(ctx context.Context, role string, id int) (user.Account, error) {
	table, pk := roleTable(role)

	var row accountRow
	err := repo.db.GetContext(ctx, &row, accountQuery(table, pk)+fmt.Sprintf(" WHERE %s = $1", pk), id)
	if err != nil {
		if err == sql.ErrNoRows {
			return user.Account{}, user.ErrNotFound
		}
		return user.Account{}, errors.Wrap(err, "getting account by ID")
	}
	return row.account(role), nil
}

func (repo *Repository) CreateAdmin(ctx context.Context, acct user.Account) (user.Account, error) {
	query := `
	INSERT INTO admins (name, username, email, is_active, password_hash, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING admin_id`

	email := null.NewString(acct.Email, acct.Email != "")
	err := repo.db.QueryRowContext(
		ctx, query,
		acct.Name, acct.Username, email, acct.IsActive, acct.PasswordHash, acct.CreatedAt, acct.UpdatedAt,
	).Scan(&acct.ID)
	if err != nil {
		return user.Account{}, errors.Wrap(err, "creating admin")
	}
	return acct, nil
}

func (repo *Repository) UpdateAccountPassword(ctx context.Context, acct user.Account) error {
	table, pk := roleTable(acct.Role)

	query := fmt.Sprintf("UPDATE %s SET password_hash = $1, updated_at = $2 WHERE %s = $3", table, pk)
	res, err := repo.db.ExecContext(ctx, query, acct.PasswordHash, time.Now().UTC(), acct.ID)
	if err != nil {
		return errors.Wrap(err, "updating account password")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *Repository) SetLastLogin(ctx context.Context, acct user.Account) (user.Account, error) {
	table, pk := roleTable(acct.Role)

	acct.LastLogin = time.Now().UTC()
	query := fmt.Sprintf("UPDATE %s SET last_login = $1 WHERE %s = $2", table, pk)
	if _, err := repo.db.ExecContext(ctx, query, acct.LastLogin, acct.ID); err != nil {
		return user.Account{}, errors.Wrap(err, "setting last_login")
	}
	return acct, nil
}
