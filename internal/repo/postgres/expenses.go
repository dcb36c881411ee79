package postgres

import (
	"context"
	"errors"

	"github.com/ahburgess22/expense-tracker/internal/domain/expense"
	"github.com/ahburgess22/expense-tracker/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExpensesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewExpensesRepo(pool *pgxpool.Pool, prom *observability.Prom) *ExpensesRepo {
	return &ExpensesRepo{pool: pool, prom: prom}
}

func (r *ExpensesRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *ExpensesRepo) Create(ctx context.Context, e expense.Expense) (expense.Expense, error) {
	err := r.observe("expenses.create", func() error {
		_, execErr := r.pool.Exec(ctx,
			`INSERT INTO expenses (id, owner_id, amount, category, description, date)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, e.OwnerID, e.Amount, e.Category, e.Description, e.Date)
		return execErr
	})

	if err != nil {
		return expense.Expense{}, err
	}

	return e, nil
}

func (r *ExpensesRepo) ListByOwner(ctx context.Context, ownerID string) ([]expense.Expense, error) {
	var out []expense.Expense

	err := r.observe("expenses.list_by_owner", func() error {
		rows, e := r.pool.Query(ctx,
			`SELECT id, owner_id, amount, category, description, date
			 FROM expenses
			 WHERE owner_id = $1
			 ORDER BY date`,
			ownerID)

		if e != nil {
			return e
		}

		defer rows.Close()

		out = make([]expense.Expense, 0)

		for rows.Next() {
			var exp expense.Expense

			e = rows.Scan(&exp.ID, &exp.OwnerID, &exp.Amount, &exp.Category, &exp.Description, &exp.Date)

			if e != nil {
				return e
			}

			out = append(out, exp)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// GetForOwner scopes the lookup by owner in the query itself, so an expense
// belonging to someone else is indistinguishable from one that never existed.
func (r *ExpensesRepo) GetForOwner(ctx context.Context, ownerID, id string) (expense.Expense, error) {
	var exp expense.Expense

	err := r.observe("expenses.get_for_owner", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, owner_id, amount, category, description, date
			 FROM expenses
			 WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		).Scan(&exp.ID, &exp.OwnerID, &exp.Amount, &exp.Category, &exp.Description, &exp.Date)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return expense.Expense{}, expense.ErrNotFound
		}

		return expense.Expense{}, err
	}

	return exp, nil
}

// UpdateAmount touches only the amount column; everything else is immutable
// after creation.
func (r *ExpensesRepo) UpdateAmount(ctx context.Context, ownerID, id string, amount float64) (float64, error) {
	var updated float64

	err := r.observe("expenses.update_amount", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE expenses
			 SET amount = $3
			 WHERE id = $1 AND owner_id = $2
			 RETURNING amount`,
			id, ownerID, amount,
		).Scan(&updated)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, expense.ErrNotFound
		}

		return 0, err
	}

	return updated, nil
}

func (r *ExpensesRepo) Delete(ctx context.Context, id string) error {
	var tagRows int64

	err := r.observe("expenses.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)

		if e != nil {
			return e
		}

		tagRows = tag.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	// a concurrent delete can leave nothing to remove
	if tagRows == 0 {
		return expense.ErrNotFound
	}

	return nil
}

// SumByOwner is the ledger aggregation behind the budget view: current spend
// is always computed here, never stored.
func (r *ExpensesRepo) SumByOwner(ctx context.Context, ownerID string) (float64, error) {
	var total float64

	err := r.observe("expenses.sum_by_owner", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE owner_id = $1`,
			ownerID,
		).Scan(&total)
	})

	if err != nil {
		return 0, err
	}

	return total, nil
}
