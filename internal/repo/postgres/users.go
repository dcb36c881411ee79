package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/ahburgess22/expense-tracker/internal/domain/user"
	"github.com/ahburgess22/expense-tracker/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create inserts a new user. The unique index on email arbitrates duplicate
// registrations: a conflicting insert affects zero rows and is reported as
// ErrEmailAlreadyUsed, with no separate existence check to race against.
func (r *UsersRepo) Create(ctx context.Context, email, passwordHash string) (user.User, error) {
	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	var tagRows int64

	err := r.observe("users.create", func() error {
		tag, e := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, created_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (email) DO NOTHING`,
			u.ID, u.Email, u.PasswordHash, u.CreatedAt)

		if e != nil {
			return e
		}

		tagRows = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return user.User{}, err
	}

	if tagRows != 1 {
		return user.User{}, user.ErrEmailAlreadyUsed
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, email, password_hash, created_at
			 FROM users
			 WHERE email = $1`,
			email,
		).Scan(
			&u.ID,
			&u.Email,
			&u.PasswordHash,
			&u.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]user.Summary, error) {
	var out []user.Summary

	err := r.observe("users.list", func() error {
		rows, e := r.pool.Query(ctx,
			`SELECT id, email, created_at FROM users ORDER BY created_at`)

		if e != nil {
			return e
		}

		defer rows.Close()

		out = make([]user.Summary, 0)

		for rows.Next() {
			var s user.Summary

			if e := rows.Scan(&s.UserID, &s.Email, &s.CreatedAt); e != nil {
				return e
			}

			out = append(out, s)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *UsersRepo) DeleteByEmail(ctx context.Context, email string) error {
	var tagRows int64

	err := r.observe("users.delete_by_email", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)

		if e != nil {
			return e
		}

		tagRows = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	if tagRows == 0 {
		return user.ErrNotFound
	}

	return nil
}
