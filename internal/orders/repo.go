package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DBPool is the subset of *pgxpool.Pool used by PgLedger.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// PgLedger stores one row per order. Status changes lock only the row of
// the order being updated.
type PgLedger struct{ DB DBPool }

func NewPgLedger(db DBPool) *PgLedger {
	return &PgLedger{DB: db}
}

const selectOrder = `SELECT id, items, total::text, status, customer, created_at, updated_at FROM orders`

const uniqueViolation = "23505"

func (r *PgLedger) Append(ctx context.Context, o Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	customer, err := json.Marshal(customerOrEmpty(o.Customer))
	if err != nil {
		return fmt.Errorf("encode customer: %w", err)
	}

	_, err = r.DB.Exec(ctx, `
		INSERT INTO orders(id, items, total, status, customer, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $6)`,
		o.ID, items, o.Total.String(), string(o.Status), customer, o.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateOrder, o.ID)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *PgLedger) Get(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx, selectOrder+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("select order: %w", err)
	}
	return o, nil
}

func (r *PgLedger) List(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, selectOrder+` ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PgLedger) MarkPaid(ctx context.Context, id string) (Order, bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := scanOrder(tx.QueryRow(ctx, selectOrder+` WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, fmt.Errorf("lock order: %w", err)
	}
	if o.Status == StatusPaid {
		return o, true, nil
	}
	if !CanTransition(o.Status, StatusPaid) {
		return Order{}, true, fmt.Errorf("order %s: invalid transition %s -> %s", id, o.Status, StatusPaid)
	}

	err = tx.QueryRow(ctx, `
		UPDATE orders SET status=$2, version=version+1, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`, id, string(StatusPaid),
	).Scan(&o.UpdatedAt)
	if err != nil {
		return Order{}, true, fmt.Errorf("update order: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, true, fmt.Errorf("commit: %w", err)
	}
	o.Status = StatusPaid
	return o, true, nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o               Order
		items, customer []byte
		total, status   string
	)
	if err := row.Scan(&o.ID, &items, &total, &status, &customer, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return Order{}, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return Order{}, fmt.Errorf("decode customer: %w", err)
	}
	d, err := decimal.NewFromString(total)
	if err != nil {
		return Order{}, fmt.Errorf("decode total: %w", err)
	}
	o.Total = d
	o.Status = Status(status)
	return o, nil
}

func customerOrEmpty(c map[string]any) map[string]any {
	if c == nil {
		return map[string]any{}
	}
	return c
}
