package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/evently-backend/internal/pkg/errs"
)

type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	GetMany(ctx context.Context, ids []string) (map[string]*Event, error)
	List(ctx context.Context, filter Filter) ([]*Event, int, error)
}

var eventColumns = []string{
	"id", "organizer_id", "title", "description", "location", "image_url",
	"start_date_time", "end_date_time", "price", "is_free", "url", "created_at", "updated_at",
}

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

func scanEvent(row pgx.Row, extra ...any) (*Event, error) {
	var e Event
	dest := []any{
		&e.ID, &e.OrganizerID, &e.Title, &e.Description, &e.Location, &e.ImageURL,
		&e.StartDateTime, &e.EndDateTime, &e.Price, &e.IsFree, &e.URL, &e.CreatedAt, &e.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *pgxRepository) Create(ctx context.Context, e *Event) error {
	query, args, err := r.psql.Insert("public.events").
		Columns("organizer_id", "title", "description", "location", "image_url",
			"start_date_time", "end_date_time", "price", "is_free", "url").
		Values(e.OrganizerID, e.Title, e.Description, e.Location, e.ImageURL,
			e.StartDateTime, e.EndDateTime, e.Price, e.IsFree, e.URL).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create event query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return errs.Wrap(err, "create event failed")
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Event, error) {
	query, args, err := r.psql.Select(eventColumns...).
		From("public.events").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get event query failed: %w", err)
	}

	e, err := scanEvent(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errs.Wrap(err, "get event failed")
	}
	return e, nil
}

func (r *pgxRepository) GetMany(ctx context.Context, ids []string) (map[string]*Event, error) {
	out := make(map[string]*Event, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := r.psql.Select(eventColumns...).
		From("public.events").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get events query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(err, "get events failed")
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, errs.Wrap(err, "scan event failed")
		}
		out[e.ID] = e
	}
	return out, rows.Err()
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Event, int, error) {
	q := r.psql.Select(append(eventColumns, "count(*) OVER() AS total_count")...).
		From("public.events")

	if filter.Query != "" {
		q = q.Where(squirrel.ILike{"title": "%" + filter.Query + "%"})
	}
	if filter.OrganizerID != "" {
		q = q.Where(squirrel.Eq{"organizer_id": filter.OrganizerID})
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query, args, err := q.OrderBy("start_date_time ASC", "id").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list events query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errs.Wrap(err, "list events failed")
	}
	defer rows.Close()

	var events []*Event
	var total int
	for rows.Next() {
		e, err := scanEvent(rows, &total)
		if err != nil {
			return nil, 0, errs.Wrap(err, "scan event failed")
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}
