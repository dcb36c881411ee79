package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/ahburgess22/expense-tracker/internal/domain/budget"
	"github.com/ahburgess22/expense-tracker/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BudgetsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewBudgetsRepo(pool *pgxpool.Pool, prom *observability.Prom) *BudgetsRepo {
	return &BudgetsRepo{pool: pool, prom: prom}
}

func (r *BudgetsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Upsert keeps the one-budget-per-owner invariant without a read-then-write
// race. The insert defers to the unique index on owner_id; when it loses the
// conflict the row already exists and a single UPDATE finishes the job. Two
// concurrent first-time upserts therefore cannot both insert.
func (r *BudgetsRepo) Upsert(ctx context.Context, ownerID string, amount float64) (budget.Budget, bool, error) {
	b := budget.New(ownerID, amount)

	var inserted int64

	err := r.observe("budgets.upsert.insert", func() error {
		tag, e := r.pool.Exec(ctx,
			`INSERT INTO budgets (id, owner_id, amount, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (owner_id) DO NOTHING`,
			b.ID, b.OwnerID, b.Amount, b.CreatedAt, b.UpdatedAt)

		if e != nil {
			return e
		}

		inserted = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return budget.Budget{}, false, err
	}

	if inserted == 1 {
		return b, true, nil
	}

	now := time.Now().UTC()
	var existing budget.Budget

	err = r.observe("budgets.upsert.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE budgets
			 SET amount = $2, updated_at = $3
			 WHERE owner_id = $1
			 RETURNING id, owner_id, amount, created_at, updated_at`,
			ownerID, amount, now,
		).Scan(&existing.ID, &existing.OwnerID, &existing.Amount, &existing.CreatedAt, &existing.UpdatedAt)
	})

	if err != nil {
		// The row was present a moment ago; losing it here means a delete
		// raced us, which current scope never does.
		if errors.Is(err, pgx.ErrNoRows) {
			return budget.Budget{}, false, budget.ErrNotFound
		}

		return budget.Budget{}, false, err
	}

	return existing, false, nil
}

func (r *BudgetsRepo) GetByOwner(ctx context.Context, ownerID string) (budget.Budget, error) {
	var b budget.Budget

	err := r.observe("budgets.get_by_owner", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, owner_id, amount, created_at, updated_at
			 FROM budgets
			 WHERE owner_id = $1`,
			ownerID,
		).Scan(&b.ID, &b.OwnerID, &b.Amount, &b.CreatedAt, &b.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return budget.Budget{}, budget.ErrNotFound
		}

		return budget.Budget{}, err
	}

	return b, nil
}
