package dbgen

import (
	"context"
	"database/sql"
)

const countUsers = `-- name: CountUsers :one
SELECT COUNT(*) FROM users
WHERE (?1 = ''
    OR email LIKE '%' || ?1 || '%'
    OR first_name LIKE '%' || ?1 || '%'
    OR last_name LIKE '%' || ?1 || '%')
`

func (q *Queries) CountUsers(ctx context.Context, search string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsers, search)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (email, password_hash, first_name, last_name, phone, role)
VALUES (?1, ?2, ?3, ?4, ?5, ?6)
RETURNING id, email, password_hash, first_name, last_name, phone, role, status, clerk_user_id, created_at, updated_at
`

type CreateUserParams struct {
	Email        string
	PasswordHash sql.NullString
	FirstName    string
	LastName     string
	Phone        sql.NullString
	Role         string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Email,
		arg.PasswordHash,
		arg.FirstName,
		arg.LastName,
		arg.Phone,
		arg.Role,
	)
	return scanUser(row)
}

const getUserByClerkID = `-- name: GetUserByClerkID :one
SELECT id, email, password_hash, first_name, last_name, phone, role, status, clerk_user_id, created_at, updated_at FROM users WHERE clerk_user_id = ?1
`

func (q *Queries) GetUserByClerkID(ctx context.Context, clerkUserID sql.NullString) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByClerkID, clerkUserID)
	return scanUser(row)
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, email, password_hash, first_name, last_name, phone, role, status, clerk_user_id, created_at, updated_at FROM users WHERE email = ?1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	return scanUser(row)
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, email, password_hash, first_name, last_name, phone, role, status, clerk_user_id, created_at, updated_at FROM users WHERE id = ?1
`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	return scanUser(row)
}

const listUsers = `-- name: ListUsers :many
SELECT id, email, password_hash, first_name, last_name, phone, role, status, clerk_user_id, created_at, updated_at FROM users
WHERE (?1 = ''
    OR email LIKE '%' || ?1 || '%'
    OR first_name LIKE '%' || ?1 || '%'
    OR last_name LIKE '%' || ?1 || '%')
ORDER BY created_at DESC, id DESC
LIMIT ?2 OFFSET ?3
`

type ListUsersParams struct {
	Search string
	Limit  int64
	Offset int64
}

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	return queryMany(ctx, q.db, listUsers, scanUser, arg.Search, arg.Limit, arg.Offset)
}

const setUserClerkID = `-- name: SetUserClerkID :exec
UPDATE users SET clerk_user_id = ?1, updated_at = CURRENT_TIMESTAMP WHERE id = ?2
`

type SetUserClerkIDParams struct {
	ClerkUserID sql.NullString
	ID          int64
}

func (q *Queries) SetUserClerkID(ctx context.Context, arg SetUserClerkIDParams) error {
	_, err := q.db.ExecContext(ctx, setUserClerkID, arg.ClerkUserID, arg.ID)
	return err
}

const updateUserPassword = `-- name: UpdateUserPassword :exec
UPDATE users SET password_hash = ?1, updated_at = CURRENT_TIMESTAMP WHERE id = ?2
`

type UpdateUserPasswordParams struct {
	PasswordHash sql.NullString
	ID           int64
}

func (q *Queries) UpdateUserPassword(ctx context.Context, arg UpdateUserPasswordParams) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, arg.PasswordHash, arg.ID)
	return err
}

const updateUserRole = `-- name: UpdateUserRole :one
UPDATE users SET role = ?1, updated_at = CURRENT_TIMESTAMP WHERE id = ?2
RETURNING id, email, password_hash, first_name, last_name, phone, role, status, clerk_user_id, created_at, updated_at
`

type UpdateUserRoleParams struct {
	Role string
	ID   int64
}

func (q *Queries) UpdateUserRole(ctx context.Context, arg UpdateUserRoleParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserRole, arg.Role, arg.ID)
	return scanUser(row)
}

const updateUserStatus = `-- name: UpdateUserStatus :one
UPDATE users SET status = ?1, updated_at = CURRENT_TIMESTAMP WHERE id = ?2
RETURNING id, email, password_hash, first_name, last_name, phone, role, status, clerk_user_id, created_at, updated_at
`

type UpdateUserStatusParams struct {
	Status string
	ID     int64
}

func (q *Queries) UpdateUserStatus(ctx context.Context, arg UpdateUserStatusParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUserStatus, arg.Status, arg.ID)
	return scanUser(row)
}
