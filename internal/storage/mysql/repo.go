package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/Meliodas1827/Pagsanjan-sub000/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func dateArg(t time.Time) string { return t.UTC().Format("2006-01-02") }

// querier is satisfied by both *sql.DB and *sql.Tx so reads share one
// implementation inside and outside the resource-locked transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- resources ----

func (r *Repo) UpsertResource(ctx context.Context, res domain.Resource) error {
	var rates any
	if len(res.Rates) > 0 {
		b, err := json.Marshal(res.Rates)
		if err != nil {
			return err
		}
		rates = string(b)
	}
	_, err := r.db.ExecContext(ctx, upsertResourceSQL,
		res.ID,
		string(res.Category),
		res.Name,
		res.Capacity,
		res.DayPrice,
		rates,
		res.Maintenance,
		res.Deleted,
	)
	return err
}

func (r *Repo) SetMaintenance(ctx context.Context, id int64, on bool) error {
	result, err := r.db.ExecContext(ctx, setMaintenanceSQL, on, id)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		// Already in the requested state or missing; disambiguate.
		if _, err := getResource(ctx, r.db, id, false); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) GetResource(ctx context.Context, id int64) (domain.Resource, error) {
	return getResource(ctx, r.db, id, false)
}

func (r *Repo) ListResources(ctx context.Context) ([]domain.Resource, error) {
	rows, err := r.db.QueryContext(ctx, listResourcesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanResource(row rowScanner) (domain.Resource, error) {
	var res domain.Resource
	var category string
	var ratesNull sql.NullString
	if err := row.Scan(
		&res.ID,
		&category,
		&res.Name,
		&res.Capacity,
		&res.DayPrice,
		&ratesNull,
		&res.Maintenance,
		&res.Deleted,
		&res.CreatedAt,
		&res.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Resource{}, domain.ErrNotFound
		}
		return domain.Resource{}, err
	}
	res.Category = domain.Category(category)
	if ratesNull.Valid && strings.TrimSpace(ratesNull.String) != "" {
		_ = json.Unmarshal([]byte(ratesNull.String), &res.Rates)
	}
	return res, nil
}

func getResource(ctx context.Context, q querier, id int64, forUpdate bool) (domain.Resource, error) {
	query := getResourceSQL
	if forUpdate {
		query = getResourceForUpdateSQL
	}
	return scanResource(q.QueryRowContext(ctx, query, id))
}

// ---- reservations ----

func (r *Repo) GetReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	return getReservation(ctx, r.db, id)
}

func (r *Repo) ListActive(ctx context.Context, resourceID int64, rng domain.DateRange) ([]domain.Reservation, error) {
	return listActive(ctx, r.db, resourceID, rng)
}

func (r *Repo) ListReservations(ctx context.Context, q domain.ReservationsQuery) ([]domain.Reservation, error) {
	sb := strings.Builder{}
	sb.WriteString(`SELECT` + reservationColumns + ` FROM reservations`)
	var conds []string
	var args []any
	if q.ResourceID != nil {
		conds = append(conds, "resource_id = ?")
		args = append(args, *q.ResourceID)
	}
	if q.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*q.Status))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ?")
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		rsv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rsv)
	}
	return out, rows.Err()
}

func scanReservation(row rowScanner) (domain.Reservation, error) {
	var rsv domain.Reservation
	var status string
	var paymentRef, notes sql.NullString
	if err := row.Scan(
		&rsv.ID,
		&rsv.ResourceID,
		&rsv.GuestName,
		&rsv.GuestContact,
		&rsv.Range.Start,
		&rsv.Range.End,
		&rsv.Guests.Adult,
		&rsv.Guests.Child,
		&rsv.Guests.Senior,
		&rsv.Guests.PWD,
		&rsv.TotalPrice,
		&rsv.DepositDue,
		&status,
		&paymentRef,
		&notes,
		&rsv.CreatedAt,
		&rsv.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Reservation{}, domain.ErrNotFound
		}
		return domain.Reservation{}, err
	}
	rsv.Status = domain.Status(status)
	rsv.PaymentRef = nullStr(paymentRef)
	rsv.Notes = nullStr(notes)
	// DATE columns come back at midnight in the session location; pin UTC.
	rsv.Range.Start = domain.Day(rsv.Range.Start)
	rsv.Range.End = domain.Day(rsv.Range.End)
	return rsv, nil
}

func getReservation(ctx context.Context, q querier, id int64) (domain.Reservation, error) {
	return scanReservation(q.QueryRowContext(ctx, getReservationSQL, id))
}

func listActive(ctx context.Context, q querier, resourceID int64, rng domain.DateRange) ([]domain.Reservation, error) {
	rows, err := q.QueryContext(ctx, listActiveSQL, resourceID, dateArg(rng.End), dateArg(rng.Start))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		rsv, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rsv)
	}
	return out, rows.Err()
}

// ---- resource-locked transaction ----

// WithResourceLock spans one transaction holding a row lock on the
// resource record, serializing capacity validation and reservation writes
// across every instance of the service.
func (r *Repo) WithResourceLock(ctx context.Context, resourceID int64, fn func(ctx context.Context, tx domain.BookingTx, res domain.Resource) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	res, err := getResource(ctx, tx, resourceID, true)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := fn(ctx, &lockedTx{tx: tx}, res); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type lockedTx struct{ tx *sql.Tx }

func (t *lockedTx) GetReservation(ctx context.Context, id int64) (domain.Reservation, error) {
	return getReservation(ctx, t.tx, id)
}

func (t *lockedTx) ListActive(ctx context.Context, resourceID int64, rng domain.DateRange) ([]domain.Reservation, error) {
	return listActive(ctx, t.tx, resourceID, rng)
}

func (t *lockedTx) InsertReservation(ctx context.Context, rsv *domain.Reservation) error {
	result, err := t.tx.ExecContext(ctx, insertReservationSQL,
		rsv.ResourceID,
		rsv.GuestName,
		rsv.GuestContact,
		dateArg(rsv.Range.Start),
		dateArg(rsv.Range.End),
		rsv.Guests.Adult,
		rsv.Guests.Child,
		rsv.Guests.Senior,
		rsv.Guests.PWD,
		rsv.TotalPrice,
		rsv.DepositDue,
		string(rsv.Status),
		valStr(rsv.PaymentRef),
		valStr(rsv.Notes),
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rsv.ID = id
	// Read back timestamps and column defaults.
	stored, err := getReservation(ctx, t.tx, id)
	if err != nil {
		return err
	}
	*rsv = stored
	return nil
}

func (t *lockedTx) UpdateReservation(ctx context.Context, rsv *domain.Reservation) error {
	result, err := t.tx.ExecContext(ctx, updateReservationSQL,
		string(rsv.Status),
		valStr(rsv.PaymentRef),
		valStr(rsv.Notes),
		rsv.ID,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		if _, err := getReservation(ctx, t.tx, rsv.ID); err != nil {
			return err
		}
	}
	stored, err := getReservation(ctx, t.tx, rsv.ID)
	if err != nil {
		return err
	}
	*rsv = stored
	return nil
}
