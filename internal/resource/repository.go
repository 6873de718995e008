package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/evently-backend/internal/db"
	"github.com/nekogravitycat/evently-backend/internal/pkg/errs"
)

type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	GetMany(ctx context.Context, ids []string) (map[string]*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, error)
	// Update applies p atomically. A quantity change is rejected with
	// ErrQuantityBelowReserved when it would push Available below zero.
	Update(ctx context.Context, id string, p Patch) (*Resource, error)
	// Delete fails with ErrInUse while any booking line item references the resource.
	Delete(ctx context.Context, id string) error
}

const resourceColumns = "id, name, type, description, quantity, available, created_at, updated_at"

type pgxRepository struct {
	pool *pgxpool.Pool
	psql squirrel.StatementBuilderType
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{
		pool: pool,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ScanResource reads one row selected with resourceColumns.
func ScanResource(row pgx.Row) (*Resource, error) {
	var res Resource
	if err := row.Scan(
		&res.ID, &res.Name, &res.Type, &res.Description,
		&res.Quantity, &res.Available, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *pgxRepository) Create(ctx context.Context, res *Resource) error {
	query := `
		INSERT INTO public.resources (name, type, description, quantity, available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + resourceColumns

	created, err := ScanResource(r.pool.QueryRow(ctx, query, res.Name, res.Type, res.Description, res.Quantity, res.Available))
	if err != nil {
		if db.ConstraintName(err) == "resources_available_range" {
			return ErrInvalidAvailable
		}
		return errs.Wrap(err, "create resource failed")
	}
	*res = *created
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	return GetByIDTx(ctx, r.pool, id)
}

// GetByIDTx loads a resource through q, which may be a pool or an open transaction.
func GetByIDTx(ctx context.Context, q db.DBTX, id string) (*Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM public.resources WHERE id = $1`

	res, err := ScanResource(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errs.Wrap(err, "get resource failed")
	}
	return res, nil
}

func (r *pgxRepository) GetMany(ctx context.Context, ids []string) (map[string]*Resource, error) {
	out := make(map[string]*Resource, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := r.psql.Select(resourceColumns).
		From("public.resources").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get resources query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(err, "get resources failed")
	}
	defer rows.Close()

	for rows.Next() {
		res, err := ScanResource(rows)
		if err != nil {
			return nil, errs.Wrap(err, "scan resource failed")
		}
		out[res.ID] = res
	}
	return out, rows.Err()
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Resource, error) {
	q := r.psql.Select(resourceColumns).From("public.resources")

	if filter.Type != "" {
		q = q.Where(squirrel.Eq{"type": filter.Type})
	}
	if filter.Query != "" {
		q = q.Where(squirrel.ILike{"name": "%" + filter.Query + "%"})
	}
	q = q.OrderBy("created_at DESC", "id")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list resources query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(err, "list resources failed")
	}
	defer rows.Close()

	var result []*Resource
	for rows.Next() {
		res, err := ScanResource(rows)
		if err != nil {
			return nil, errs.Wrap(err, "scan resource failed")
		}
		result = append(result, res)
	}
	return result, rows.Err()
}

func (r *pgxRepository) Update(ctx context.Context, id string, p Patch) (*Resource, error) {
	q := r.psql.Update("public.resources").
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id})

	if p.Name != nil {
		q = q.Set("name", *p.Name)
	}
	if p.Type != nil {
		q = q.Set("type", *p.Type)
	}
	if p.Description != nil {
		q = q.Set("description", *p.Description)
	}
	if p.Quantity != nil {
		// The reserved amount (quantity - available) is carried over unchanged.
		q = q.Set("available", squirrel.Expr("available + (? - quantity)", *p.Quantity)).
			Set("quantity", *p.Quantity).
			Where(squirrel.Expr("? >= quantity - available", *p.Quantity))
	}

	query, args, err := q.Suffix("RETURNING " + resourceColumns).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update resource query failed: %w", err)
	}

	res, err := ScanResource(r.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		if db.ConstraintName(err) == "resources_available_range" {
			return nil, ErrQuantityBelowReserved
		}
		return nil, errs.Wrap(err, "update resource failed")
	}

	// No row matched: either the id is unknown or the reserved guard failed.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrQuantityBelowReserved
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM public.resources WHERE id = $1`
	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		if db.PgErrorCode(err) == pgerrcode.ForeignKeyViolation {
			return ErrInUse
		}
		return errs.Wrap(err, "delete resource failed")
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
