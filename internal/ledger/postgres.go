package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tonermart/backend/internal/models"
)

// Postgres is the SQL-backed ledger. Atomicity of purchase and cancel comes
// from a transaction that locks the customer row before the check-then-act,
// so concurrent operations on the same customer serialize on the row lock
// while other customers proceed.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps db and creates the shop tables when they do not exist.
func NewPostgres(db *sql.DB) (*Postgres, error) {
	p := &Postgres{db: db}
	if err := p.migrate(); err != nil {
		return nil, fmt.Errorf("ledger migration: %w", err)
	}
	return p, nil
}

func (p *Postgres) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS customer (
			name VARCHAR(64) PRIMARY KEY,
			balance BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS article (
			name VARCHAR(64) PRIMARY KEY,
			price BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS purchase (
			id BIGSERIAL PRIMARY KEY,
			customer VARCHAR(64) NOT NULL REFERENCES customer(name),
			article VARCHAR(64) NOT NULL REFERENCES article(name),
			quantity BIGINT NOT NULL,
			price BIGINT NOT NULL,
			purchased_at TIMESTAMP NOT NULL,
			cancelled BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) articlePrice(ctx context.Context, q queryer, article string) (int64, error) {
	var price int64
	err := q.QueryRowContext(ctx,
		`SELECT price FROM article WHERE name = $1`, article).Scan(&price)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &models.NotFoundError{Entity: "article", Name: article}
	}
	return price, err
}

func (p *Postgres) lockCustomer(ctx context.Context, tx *sql.Tx, customer string) (int64, error) {
	var balance int64
	err := tx.QueryRowContext(ctx,
		`SELECT balance FROM customer WHERE name = $1 FOR UPDATE`, customer).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &models.NotFoundError{Entity: "customer", Name: customer}
	}
	return balance, err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (p *Postgres) Purchase(ctx context.Context, customer, article string, quantity int64) (bool, error) {
	if quantity <= 0 {
		return false, ErrQuantityIncorrect
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	price, err := p.articlePrice(ctx, tx, article)
	if err != nil {
		return false, err
	}
	balance, err := p.lockCustomer(ctx, tx, customer)
	if err != nil {
		return false, err
	}

	cost := price * quantity
	if balance < cost {
		// No state change; the rollback discards the row lock only.
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE customer SET balance = balance - $1 WHERE name = $2`,
		cost, customer); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO purchase (customer, article, quantity, price, purchased_at) VALUES ($1, $2, $3, $4, NOW())`,
		customer, article, quantity, price); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (p *Postgres) Cancel(ctx context.Context, customer, article string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := p.articlePrice(ctx, tx, article); err != nil {
		return err
	}
	if _, err := p.lockCustomer(ctx, tx, customer); err != nil {
		return err
	}

	var (
		id       int64
		quantity int64
		price    int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, quantity, price FROM purchase WHERE customer = $1 AND article = $2 AND NOT cancelled ORDER BY id DESC LIMIT 1 FOR UPDATE`,
		customer, article).Scan(&id, &quantity, &price)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNothingToCancel
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE purchase SET cancelled = TRUE WHERE id = $1`, id); err != nil {
		return err
	}
	// Refund at the captured price, not the current catalog price.
	if _, err := tx.ExecContext(ctx,
		`UPDATE customer SET balance = balance + $1 WHERE name = $2`,
		quantity*price, customer); err != nil {
		return err
	}

	return tx.Commit()
}

func (p *Postgres) Balance(ctx context.Context, customer string) (int64, error) {
	var balance int64
	err := p.db.QueryRowContext(ctx,
		`SELECT balance FROM customer WHERE name = $1`, customer).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &models.NotFoundError{Entity: "customer", Name: customer}
	}
	return balance, err
}

func (p *Postgres) History(ctx context.Context, customer string) ([]models.HistoryRow, error) {
	return p.selectHistory(ctx, customer,
		`SELECT id, purchased_at, article, quantity, price FROM purchase WHERE customer = $1 AND NOT cancelled ORDER BY id ASC`)
}

func (p *Postgres) HistoryToday(ctx context.Context, customer string) ([]models.HistoryRow, error) {
	return p.selectHistory(ctx, customer,
		`SELECT id, purchased_at, article, quantity, price FROM purchase WHERE customer = $1 AND NOT cancelled AND purchased_at::date = CURRENT_DATE ORDER BY id DESC`)
}

func (p *Postgres) selectHistory(ctx context.Context, customer, query string) ([]models.HistoryRow, error) {
	if _, err := p.Balance(ctx, customer); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, query, customer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []models.HistoryRow
	for rows.Next() {
		var row models.HistoryRow
		if err := rows.Scan(&row.PurchaseID, &row.PurchasedAt, &row.Article, &row.Quantity, &row.Price); err != nil {
			return nil, err
		}
		history = append(history, row)
	}
	return history, rows.Err()
}

func (p *Postgres) CustomerNames(ctx context.Context) ([]string, error) {
	return p.selectNames(ctx, `SELECT name FROM customer ORDER BY name`)
}

func (p *Postgres) ArticleNames(ctx context.Context) ([]string, error) {
	return p.selectNames(ctx, `SELECT name FROM article ORDER BY name`)
}

func (p *Postgres) selectNames(ctx context.Context, query string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (p *Postgres) PurchaseIDs(ctx context.Context) ([]int64, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id FROM purchase ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *Postgres) LoadCustomers(ctx context.Context, customers []models.Customer) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, c := range customers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO customer (name, balance) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			c.Name, c.Balance); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) LoadArticles(ctx context.Context, articles []models.Article) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, a := range articles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article (name, price) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			a.Name, a.Price); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) LoadPurchases(ctx context.Context, purchases []models.Purchase) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, pr := range purchases {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO purchase (id, customer, article, quantity, price, purchased_at, cancelled) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`,
			pr.ID, pr.Customer, pr.Article, pr.Quantity, pr.Price, pr.PurchasedAt, pr.Cancelled); err != nil {
			return err
		}
	}
	// Seeded rows carry explicit ids; keep the sequence ahead of them.
	if _, err := tx.ExecContext(ctx,
		`SELECT setval('purchase_id_seq', (SELECT COALESCE(MAX(id), 1) FROM purchase))`); err != nil {
		return err
	}
	return tx.Commit()
}

var _ Ledger = (*Postgres)(nil)
