package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"idlookup/internal/holidays"
	"idlookup/internal/identity/models"
	"idlookup/pkg/domain"
	"idlookup/pkg/platform/sentinel"
	txcontext "idlookup/pkg/platform/tx"
	"idlookup/pkg/requestcontext"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists identities in PostgreSQL. Upsert holds the identity
// row lock from the counter increment until the holiday replacement commits.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) querier(ctx context.Context) dbtx {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// findIdentitySQL reads the identity and its ordered holidays in one
// statement, so the counter and the collection come from one snapshot.
const findIdentitySQL = `
SELECT i.birth_date, i.gender, i.resident_status, i.search_count, i.created_at, i.updated_at,
       COALESCE((
           SELECT json_agg(json_build_object(
                      'name', h.name,
                      'description', h.description,
                      'type', h.type,
                      'date', h.holiday_date
                  ) ORDER BY h.position)
             FROM identity_holidays h
            WHERE h.id_number = i.id_number
       ), '[]'::json)
  FROM identities i
 WHERE i.id_number = $1`

func (s *PostgresStore) Find(ctx context.Context, idNumber domain.IDNumber) (*models.Identity, error) {
	identity := &models.Identity{IDNumber: idNumber}
	var holidaysJSON []byte
	err := s.querier(ctx).QueryRowContext(ctx, findIdentitySQL, idNumber.String()).Scan(
		&identity.BirthDate,
		&identity.Gender,
		&identity.ResidentStatus,
		&identity.SearchCount,
		&identity.CreatedAt,
		&identity.UpdatedAt,
		&holidaysJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity: %w", err)
	}

	if err := json.Unmarshal(holidaysJSON, &identity.Holidays); err != nil {
		return nil, fmt.Errorf("decode identity holidays: %w: %w", sentinel.ErrCorrupt, err)
	}
	return identity, nil
}

// upsertIdentitySQL creates the row with search_count 1 or increments it.
// Decoded fields are only written on insert. xmax is 0 for a freshly
// inserted tuple, which distinguishes the two branches.
const upsertIdentitySQL = `
INSERT INTO identities (id_number, birth_date, gender, resident_status, search_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, 1, $5, $5)
ON CONFLICT (id_number) DO UPDATE
   SET search_count = identities.search_count + 1,
       updated_at   = EXCLUDED.updated_at
RETURNING birth_date, gender, resident_status, search_count, created_at, updated_at, (xmax = 0) AS created`

const deleteHolidaysSQL = `DELETE FROM identity_holidays WHERE id_number = $1`

const insertHolidaySQL = `
INSERT INTO identity_holidays (id_number, position, name, description, type, holiday_date)
VALUES ($1, $2, $3, $4, $5, $6)`

func (s *PostgresStore) Upsert(ctx context.Context, idNumber domain.IDNumber, fields models.Fields, hs []holidays.Holiday) (*models.Identity, bool, error) {
	var (
		identity *models.Identity
		created  bool
	)
	err := txcontext.Run(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		identity, created, err = upsertIdentity(ctx, tx, idNumber, fields, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := replaceHolidays(ctx, tx, idNumber, hs); err != nil {
			return err
		}
		identity.Holidays = append(make([]holidays.Holiday, 0, len(hs)), hs...)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("upsert identity: %w", err)
	}
	return identity, created, nil
}

func upsertIdentity(ctx context.Context, q dbtx, idNumber domain.IDNumber, fields models.Fields, now time.Time) (*models.Identity, bool, error) {
	identity := &models.Identity{IDNumber: idNumber}
	var created bool
	err := q.QueryRowContext(ctx, upsertIdentitySQL,
		idNumber.String(),
		fields.BirthDate,
		string(fields.Gender),
		string(fields.ResidentStatus),
		now,
	).Scan(
		&identity.BirthDate,
		&identity.Gender,
		&identity.ResidentStatus,
		&identity.SearchCount,
		&identity.CreatedAt,
		&identity.UpdatedAt,
		&created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("write identity row: %w", err)
	}
	return identity, created, nil
}

func replaceHolidays(ctx context.Context, q dbtx, idNumber domain.IDNumber, hs []holidays.Holiday) error {
	if _, err := q.ExecContext(ctx, deleteHolidaysSQL, idNumber.String()); err != nil {
		return fmt.Errorf("delete holidays: %w", err)
	}
	for i, h := range hs {
		if _, err := q.ExecContext(ctx, insertHolidaySQL,
			idNumber.String(), i, h.Name, h.Description, h.Type, h.Date,
		); err != nil {
			return fmt.Errorf("insert holiday %d: %w", i, err)
		}
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
