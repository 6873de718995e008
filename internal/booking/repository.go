package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/evently-backend/internal/db"
	"github.com/nekogravitycat/evently-backend/internal/pkg/errs"
	"github.com/nekogravitycat/evently-backend/internal/resource"
)

type BookParams struct {
	ResourceID string
	EventID    string
	UserID     string
	Quantity   int
}

type BookResult struct {
	Resource *resource.Resource
	Booking  *Booking
}

type UnbookParams struct {
	BookingID  string
	ResourceID string
	Quantity   int
	// Authorize is called with the booking before anything is changed.
	// A non-nil error aborts the operation.
	Authorize func(b *Booking) error
}

type UnbookResult struct {
	Resource *resource.Resource
	// Booking is the booking after the release. It still carries its ID
	// when Deleted is true, with no items left.
	Booking  *Booking
	Released int
	Deleted  bool
}

// Repository is the ledger. Book and Unbook move units between a resource's
// available count and a booking line item in one atomic step.
type Repository interface {
	Book(ctx context.Context, p BookParams) (*BookResult, error)
	Unbook(ctx context.Context, p UnbookParams) (*UnbookResult, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, error)
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

const resourceReturning = "id, name, type, description, quantity, available, created_at, updated_at"

func (r *pgxRepository) Book(ctx context.Context, p BookParams) (*BookResult, error) {
	var result BookResult

	err := db.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		const takeUnits = `
			UPDATE public.resources
			SET available = available - $2, updated_at = now()
			WHERE id = $1 AND available >= $2
			RETURNING ` + resourceReturning

		res, err := resource.ScanResource(tx.QueryRow(ctx, takeUnits, p.ResourceID, p.Quantity))
		if errors.Is(err, pgx.ErrNoRows) {
			current, getErr := resource.GetByIDTx(ctx, tx, p.ResourceID)
			if errors.Is(getErr, resource.ErrNotFound) {
				return ErrResourceNotFound
			}
			if getErr != nil {
				return getErr
			}
			return NewInsufficientAvailability(p.ResourceID, p.Quantity, current.Available)
		}
		if err != nil {
			return errs.Wrap(err, "decrement availability failed")
		}
		result.Resource = res

		const upsertBooking = `
			INSERT INTO public.bookings (event_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT ON CONSTRAINT bookings_event_user_key
			DO UPDATE SET updated_at = now()
			RETURNING id`

		var bookingID string
		if err := tx.QueryRow(ctx, upsertBooking, p.EventID, p.UserID).Scan(&bookingID); err != nil {
			if db.PgErrorCode(err) == pgerrcode.ForeignKeyViolation {
				return ErrEventNotFound
			}
			return errs.Wrap(err, "upsert booking failed")
		}

		const upsertItem = `
			INSERT INTO public.booking_items (booking_id, resource_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (booking_id, resource_id)
			DO UPDATE SET quantity = booking_items.quantity + EXCLUDED.quantity`

		if _, err := tx.Exec(ctx, upsertItem, bookingID, p.ResourceID, p.Quantity); err != nil {
			return errs.Wrap(err, "upsert booking item failed")
		}

		b, err := getBookingTx(ctx, tx, bookingID, false)
		if err != nil {
			return err
		}
		result.Booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *pgxRepository) Unbook(ctx context.Context, p UnbookParams) (*UnbookResult, error) {
	var result UnbookResult

	err := db.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		b, err := getBookingTx(ctx, tx, p.BookingID, false)
		if err != nil {
			return err
		}
		if p.Authorize != nil {
			if err := p.Authorize(b); err != nil {
				return err
			}
		}

		// Lock order is resource then booking, the same order Book takes them in.
		const lockResource = `SELECT ` + resourceReturning + ` FROM public.resources WHERE id = $1 FOR UPDATE`
		res, err := resource.ScanResource(tx.QueryRow(ctx, lockResource, p.ResourceID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrResourceNotFound
			}
			return errs.Wrap(err, "lock resource failed")
		}

		b, err = getBookingTx(ctx, tx, p.BookingID, true)
		if err != nil {
			return err
		}
		item, ok := b.Item(p.ResourceID)
		if !ok {
			return ErrLineItemNotFound
		}

		released := min(p.Quantity, item.Quantity)
		newAvailable := res.Available + released
		if newAvailable > res.Quantity {
			slog.WarnContext(ctx, "availability clamped to quantity on release",
				"resource_id", res.ID, "quantity", res.Quantity, "computed", newAvailable)
			newAvailable = res.Quantity
		}

		const releaseUnits = `
			UPDATE public.resources
			SET available = $2, updated_at = now()
			WHERE id = $1
			RETURNING ` + resourceReturning

		res, err = resource.ScanResource(tx.QueryRow(ctx, releaseUnits, res.ID, newAvailable))
		if err != nil {
			return errs.Wrap(err, "release availability failed")
		}

		if released == item.Quantity {
			const deleteItem = `DELETE FROM public.booking_items WHERE booking_id = $1 AND resource_id = $2`
			if _, err := tx.Exec(ctx, deleteItem, b.ID, p.ResourceID); err != nil {
				return errs.Wrap(err, "delete booking item failed")
			}
		} else {
			const decrementItem = `
				UPDATE public.booking_items SET quantity = quantity - $3
				WHERE booking_id = $1 AND resource_id = $2`
			if _, err := tx.Exec(ctx, decrementItem, b.ID, p.ResourceID, released); err != nil {
				return errs.Wrap(err, "decrement booking item failed")
			}
		}

		items, err := listItemsTx(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		b.Items = items

		if len(items) == 0 {
			const deleteBooking = `DELETE FROM public.bookings WHERE id = $1`
			if _, err := tx.Exec(ctx, deleteBooking, b.ID); err != nil {
				return errs.Wrap(err, "delete booking failed")
			}
			result.Deleted = true
		} else {
			const touchBooking = `UPDATE public.bookings SET updated_at = now() WHERE id = $1 RETURNING updated_at`
			if err := tx.QueryRow(ctx, touchBooking, b.ID).Scan(&b.UpdatedAt); err != nil {
				return errs.Wrap(err, "touch booking failed")
			}
		}

		result.Resource = res
		result.Booking = b
		result.Released = released
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	return getBookingTx(ctx, r.pool, id, false)
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, error) {
	q := r.psql.Select("b.id", "b.event_id", "b.user_id", "b.created_at", "b.updated_at").
		From("public.bookings b").
		Where("EXISTS (SELECT 1 FROM public.booking_items i WHERE i.booking_id = b.id)")

	if filter.EventID != "" {
		q = q.Where(squirrel.Eq{"b.event_id": filter.EventID})
	}
	if filter.UserID != "" {
		q = q.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.ResourceID != "" {
		q = q.Where("EXISTS (SELECT 1 FROM public.booking_items f WHERE f.booking_id = b.id AND f.resource_id = ?)", filter.ResourceID)
	}
	q = q.OrderBy("b.created_at DESC", "b.id")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(err, "list bookings failed")
	}

	var result []*Booking
	byID := make(map[string]*Booking)
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.EventID, &b.UserID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			rows.Close()
			return nil, errs.Wrap(err, "scan booking failed")
		}
		result = append(result, &b)
		byID[b.ID] = &b
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "list bookings failed")
	}
	if len(result) == 0 {
		return result, nil
	}

	ids := make([]string, len(result))
	for i, b := range result {
		ids[i] = b.ID
	}

	itemQuery, itemArgs, err := r.psql.Select("booking_id", "resource_id", "quantity", "created_at").
		From("public.booking_items").
		Where(squirrel.Eq{"booking_id": ids}).
		OrderBy("created_at", "resource_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list booking items query failed: %w", err)
	}

	itemRows, err := r.pool.Query(ctx, itemQuery, itemArgs...)
	if err != nil {
		return nil, errs.Wrap(err, "list booking items failed")
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var bookingID string
		var it LineItem
		if err := itemRows.Scan(&bookingID, &it.ResourceID, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, errs.Wrap(err, "scan booking item failed")
		}
		if b, ok := byID[bookingID]; ok {
			b.Items = append(b.Items, it)
		}
	}
	return result, itemRows.Err()
}

func getBookingTx(ctx context.Context, q db.DBTX, id string, forUpdate bool) (*Booking, error) {
	query := `SELECT id, event_id, user_id, created_at, updated_at FROM public.bookings WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var b Booking
	if err := q.QueryRow(ctx, query, id).Scan(&b.ID, &b.EventID, &b.UserID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errs.Wrap(err, "get booking failed")
	}

	items, err := listItemsTx(ctx, q, b.ID)
	if err != nil {
		return nil, err
	}
	b.Items = items
	return &b, nil
}

func listItemsTx(ctx context.Context, q db.DBTX, bookingID string) ([]LineItem, error) {
	const query = `
		SELECT resource_id, quantity, created_at FROM public.booking_items
		WHERE booking_id = $1
		ORDER BY created_at, resource_id`

	rows, err := q.Query(ctx, query, bookingID)
	if err != nil {
		return nil, errs.Wrap(err, "list booking items failed")
	}
	defer rows.Close()

	var items []LineItem
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ResourceID, &it.Quantity, &it.CreatedAt); err != nil {
			return nil, errs.Wrap(err, "scan booking item failed")
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
