package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const ensureUserExists = `
INSERT INTO users (email) VALUES (?)
ON CONFLICT (email) DO NOTHING
`

func (q *Queries) EnsureUserExists(ctx context.Context, email string) error {
	_, err := q.db.ExecContext(ctx, ensureUserExists, email)
	return err
}

const createVerificationCode = `
INSERT INTO verification_codes (code, userEmail, expiresAt)
VALUES (?, ?, ?)
`

type CreateVerificationCodeParams struct {
	Code      string
	Useremail string
	Expiresat int64
}

func (q *Queries) CreateVerificationCode(ctx context.Context, arg CreateVerificationCodeParams) error {
	_, err := q.db.ExecContext(ctx, createVerificationCode, arg.Code, arg.Useremail, arg.Expiresat)
	return err
}

const getUserFromCode = `
SELECT userEmail FROM verification_codes
WHERE code = ? AND expiresAt > ?
`

type GetUserFromCodeParams struct {
	Code string
	Now  int64
}

func (q *Queries) GetUserFromCode(ctx context.Context, arg GetUserFromCodeParams) (string, error) {
	row := q.db.QueryRowContext(ctx, getUserFromCode, arg.Code, arg.Now)
	var email string
	err := row.Scan(&email)
	return email, err
}

const deleteVerificationCode = `
DELETE FROM verification_codes WHERE code = ?
`

func (q *Queries) DeleteVerificationCode(ctx context.Context, code string) error {
	_, err := q.db.ExecContext(ctx, deleteVerificationCode, code)
	return err
}

const deleteExpiredCodes = `
DELETE FROM verification_codes WHERE expiresAt <= ?
`

func (q *Queries) DeleteExpiredCodes(ctx context.Context, now int64) error {
	_, err := q.db.ExecContext(ctx, deleteExpiredCodes, now)
	return err
}

const createToken = `
INSERT INTO tokens (token, userEmail) VALUES (?, ?)
`

type CreateTokenParams struct {
	Token     string
	Useremail string
}

func (q *Queries) CreateToken(ctx context.Context, arg CreateTokenParams) error {
	_, err := q.db.ExecContext(ctx, createToken, arg.Token, arg.Useremail)
	return err
}

const getUserFromToken = `
SELECT userEmail FROM tokens WHERE token = ?
`

func (q *Queries) GetUserFromToken(ctx context.Context, token string) (string, error) {
	row := q.db.QueryRowContext(ctx, getUserFromToken, token)
	var email string
	err := row.Scan(&email)
	return email, err
}
