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

const getPrompt = `
SELECT prompt FROM analysis_prompt WHERE id = 1
`

func (q *Queries) GetPrompt(ctx context.Context) (string, error) {
	row := q.db.QueryRowContext(ctx, getPrompt)
	var prompt string
	err := row.Scan(&prompt)
	return prompt, err
}

const setPrompt = `
INSERT INTO analysis_prompt (id, prompt, updatedAt)
VALUES (1, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    prompt = excluded.prompt,
    updatedAt = excluded.updatedAt
`

type SetPromptParams struct {
	Prompt    string
	Updatedat int64
}

func (q *Queries) SetPrompt(ctx context.Context, arg SetPromptParams) error {
	_, err := q.db.ExecContext(ctx, setPrompt, arg.Prompt, arg.Updatedat)
	return err
}
