package models

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type sqlUserRepo struct{ db *sql.DB }

func NewSQLUserRepository(db *sql.DB) UserRepository { return &sqlUserRepo{db} }

const userColumns = `id, name, email, image, password, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var (
		u  User
		pw sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Image, &pw, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, NotFound("User not found")
		}
		return User{}, Infrastructure("could not read user", err)
	}
	u.Password = pw.String
	return u, nil
}

func (r *sqlUserRepo) Create(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pw := sql.NullString{String: u.Password, Valid: u.Password != ""}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users(name, email, image, password) VALUES ($1,$2,$3,$4) RETURNING id, created_at`,
		u.Name, u.Email, u.Image, pw,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return Conflict("An account with this email already exists")
		}
		return Infrastructure("could not save user", err)
	}
	return nil
}

func (r *sqlUserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *sqlUserRepo) GetByID(ctx context.Context, id int64) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *sqlUserRepo) UpdateProfile(ctx context.Context, email string, name, image *string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return scanUser(r.db.QueryRowContext(ctx,
		`UPDATE users SET name = COALESCE($2::text, name), image = COALESCE($3::text, image)
		 WHERE email=$1 RETURNING `+userColumns,
		email, name, image,
	))
}
