package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/evently-backend/internal/db"
	"github.com/nekogravitycat/evently-backend/internal/pkg/errs"
)

type Repository interface {
	// Register inserts a confirmed registration or re-confirms a cancelled one.
	// It returns ErrAlreadyRegistered when a confirmed one exists.
	Register(ctx context.Context, reg *Registration) error
	Get(ctx context.Context, eventID, userID string) (*Registration, error)
	Cancel(ctx context.Context, eventID, userID string) (*Registration, error)
	ListByUser(ctx context.Context, userID string, status Status) ([]*Registration, error)
}

const registrationColumns = "id, event_id, user_id, user_email, user_name, status, created_at, updated_at"

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

func scanRegistration(row pgx.Row, extra ...any) (*Registration, error) {
	var r Registration
	dest := append([]any{
		&r.ID, &r.EventID, &r.UserID, &r.UserEmail, &r.UserName, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *pgxRepository) Register(ctx context.Context, reg *Registration) error {
	query := `
		INSERT INTO public.registrations (event_id, user_id, user_email, user_name, status)
		VALUES ($1, $2, $3, $4, 'confirmed')
		ON CONFLICT ON CONSTRAINT registrations_event_user_key
		DO UPDATE SET status = 'confirmed',
			user_email = EXCLUDED.user_email,
			user_name = EXCLUDED.user_name,
			updated_at = now()
		WHERE registrations.status = 'cancelled'
		RETURNING ` + registrationColumns

	created, err := scanRegistration(r.pool.QueryRow(ctx, query, reg.EventID, reg.UserID, reg.UserEmail, reg.UserName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAlreadyRegistered
		}
		if db.PgErrorCode(err) == pgerrcode.ForeignKeyViolation {
			return ErrEventNotFound
		}
		return errs.Wrap(err, "register failed")
	}
	*reg = *created
	return nil
}

func (r *pgxRepository) Get(ctx context.Context, eventID, userID string) (*Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM public.registrations WHERE event_id = $1 AND user_id = $2`

	reg, err := scanRegistration(r.pool.QueryRow(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotRegistered
		}
		return nil, errs.Wrap(err, "get registration failed")
	}
	return reg, nil
}

func (r *pgxRepository) Cancel(ctx context.Context, eventID, userID string) (*Registration, error) {
	query := `
		UPDATE public.registrations SET status = 'cancelled', updated_at = now()
		WHERE event_id = $1 AND user_id = $2 AND status = 'confirmed'
		RETURNING ` + registrationColumns

	reg, err := scanRegistration(r.pool.QueryRow(ctx, query, eventID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotRegistered
		}
		return nil, errs.Wrap(err, "cancel registration failed")
	}
	return reg, nil
}

func (r *pgxRepository) ListByUser(ctx context.Context, userID string, status Status) ([]*Registration, error) {
	q := r.psql.Select(
		"r.id", "r.event_id", "r.user_id", "r.user_email", "r.user_name", "r.status", "r.created_at", "r.updated_at",
		"e.title", "e.start_date_time", "e.end_date_time",
	).
		From("public.registrations r").
		Join("public.events e ON e.id = r.event_id").
		Where(squirrel.Eq{"r.user_id": userID})

	if status != "" {
		q = q.Where(squirrel.Eq{"r.status": status})
	}
	q = q.OrderBy("e.start_date_time", "r.id")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list registrations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(err, "list registrations failed")
	}
	defer rows.Close()

	var result []*Registration
	for rows.Next() {
		var (
			title      string
			start, end time.Time
		)
		reg, err := scanRegistration(rows, &title, &start, &end)
		if err != nil {
			return nil, errs.Wrap(err, "scan registration failed")
		}
		reg.EventTitle = title
		reg.EventStart = start
		reg.EventEnd = end
		result = append(result, reg)
	}
	return result, rows.Err()
}
