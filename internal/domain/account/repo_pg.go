package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const userCols = `id, username, email, first_name, last_name, password_hash, role, activated,
	invite_token, invite_token_expires, reset_token, reset_token_expires, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.Role, &u.Activated,
		&u.InviteToken, &u.InviteTokenExpires, &u.ResetToken, &u.ResetTokenExpires,
		&u.CreatedAt)
	return &u, err
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, username, email, first_name, last_name, password_hash, role, activated,
			invite_token, invite_token_expires, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.Role, u.Activated,
		u.InviteToken, u.InviteTokenExpires, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *repoPG) getBy(ctx context.Context, where string, arg interface{}) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE `+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *repoPG) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, `email = $1`, email)
}

func (r *repoPG) GetByInviteToken(ctx context.Context, token string) (*User, error) {
	return r.getBy(ctx, `invite_token = $1`, token)
}

func (r *repoPG) GetByResetToken(ctx context.Context, token string) (*User, error) {
	return r.getBy(ctx, `reset_token = $1`, token)
}

func (r *repoPG) Update(ctx context.Context, u *User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET username = $2, email = $3, first_name = $4, last_name = $5,
			password_hash = $6, role = $7, activated = $8,
			invite_token = $9, invite_token_expires = $10,
			reset_token = $11, reset_token_expires = $12
		 WHERE id = $1`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName,
		u.PasswordHash, u.Role, u.Activated,
		u.InviteToken, u.InviteTokenExpires, u.ResetToken, u.ResetTokenExpires)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
