package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/phurits/ordermind/agent/contract"
	orderx "github.com/phurits/ordermind/agent/order"
)

type orderRow struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID           string     `bun:"id,pk"`
	CustomerID   string     `bun:"customer_id,notnull"`
	Status       string     `bun:"status,notnull"`
	CreatedAt    time.Time  `bun:"created_at,notnull"`
	DeletedAt    *time.Time `bun:"deleted_at"`
	DeletedBy    string     `bun:"deleted_by,nullzero"`
	DeleteReason string     `bun:"delete_reason,nullzero"`
	Version      int64      `bun:"version,notnull"`
}

func rowFromOrder(o *orderx.Order) *orderRow {
	return &orderRow{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
		DeletedAt:    o.DeletedAt,
		DeletedBy:    o.DeletedBy,
		DeleteReason: o.DeleteReason,
		Version:      o.Version,
	}
}

func (r *orderRow) toOrder() orderx.Order {
	return orderx.Order{
		ID:           r.ID,
		CustomerID:   r.CustomerID,
		Status:       orderx.Status(r.Status),
		CreatedAt:    r.CreatedAt,
		DeletedAt:    r.DeletedAt,
		DeletedBy:    r.DeletedBy,
		DeleteReason: r.DeleteReason,
		Version:      r.Version,
	}
}

// Postgres persists orders through bun. Concurrency control is a
// compare-and-swap on the version column, not row locking.
type Postgres struct {
	db *bun.DB
}

var _ OrderStore = (*Postgres)(nil)

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &Postgres{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Postgres) Close() error {
	return s.db.Close()
}

func (s *Postgres) initSchema(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*orderRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create orders table: %w", err)
	}

	indexes := []struct {
		name   string
		column string
	}{
		{"idx_orders_customer", "customer_id"},
		{"idx_orders_status", "status"},
	}
	for _, idx := range indexes {
		if _, err := s.db.NewCreateIndex().
			Model((*orderRow)(nil)).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

func (s *Postgres) Exists(ctx context.Context, id string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*orderRow)(nil)).
		Where("id = ?", id).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("order exists: %w", err)
	}
	return exists, nil
}

func (s *Postgres) Save(ctx context.Context, o *orderx.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("%w: order id is required", contractx.ErrValidation)
	}

	if o.Version == 0 {
		o.Version = 1
		row := rowFromOrder(o)
		if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
			o.Version = 0
			return fmt.Errorf("insert order: %w", err)
		}
		return nil
	}

	readVersion := o.Version
	o.Version++
	row := rowFromOrder(o)
	res, err := s.db.NewUpdate().
		Model(row).
		WherePK().
		Where("version = ?", readVersion).
		Exec(ctx)
	if err != nil {
		o.Version = readVersion
		return fmt.Errorf("update order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if affected == 0 {
		o.Version = readVersion
		exists, existsErr := s.Exists(ctx, o.ID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id string) (*orderx.Order, error) {
	row := new(orderRow)
	err := s.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order by id: %w", err)
	}
	o := row.toOrder()
	return &o, nil
}

func (s *Postgres) FindByCustomer(ctx context.Context, customerID string) ([]orderx.Order, error) {
	var rows []orderRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("find orders by customer: %w", err)
	}
	return rowsToOrders(rows), nil
}

func (s *Postgres) FindByStatus(ctx context.Context, status orderx.Status) ([]orderx.Order, error) {
	var rows []orderRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("status = ?", string(status)).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("find orders by status: %w", err)
	}
	return rowsToOrders(rows), nil
}

func (s *Postgres) Count(ctx context.Context) (int64, error) {
	n, err := s.db.NewSelect().Model((*orderRow)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return int64(n), nil
}

func (s *Postgres) All(ctx context.Context) ([]orderx.Order, error) {
	var rows []orderRow
	err := s.db.NewSelect().
		Model(&rows).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return rowsToOrders(rows), nil
}

func rowsToOrders(rows []orderRow) []orderx.Order {
	out := make([]orderx.Order, len(rows))
	for i := range rows {
		out[i] = rows[i].toOrder()
	}
	return out
}
