package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const (
	insertContactSQL = `INSERT INTO contacts (name, phone, profession, region)
VALUES ($1, $2, $3, $4)
RETURNING id`

	selectContactsSQL = `SELECT id, name, phone, profession, region, created_at FROM contacts`
)

// PostgresStore keeps contacts in the contacts table created by migration 000001.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert stores d and returns the identity assigned by the database.
func (s *PostgresStore) Insert(ctx context.Context, d Draft) (int64, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreWrite, ErrStoreUnavailable)
	}
	var id int64
	if err := s.db.QueryRowxContext(ctx, insertContactSQL, d.Name, d.Phone, d.Profession, d.Region).Scan(&id); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	return id, nil
}

// Query selects the contacts matching f in insertion order.
func (s *PostgresStore) Query(ctx context.Context, f Filter) ([]Contact, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreUnavailable
	}
	query, args := buildSelect(f)
	out := []Contact{}
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("%w: query contacts: %w", ErrStoreUnavailable, err)
	}
	return out, nil
}

// DistinctValues lists the non-null values stored in col.
func (s *PostgresStore) DistinctValues(ctx context.Context, col Column) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreUnavailable
	}
	switch col {
	case ColumnRegion, ColumnProfession:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	// col is one of the constants above, never user input.
	query := fmt.Sprintf("SELECT DISTINCT %[1]s FROM contacts WHERE %[1]s IS NOT NULL", col)
	out := []string{}
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("%w: distinct %s: %w", ErrStoreUnavailable, col, err)
	}
	return out, nil
}

func buildSelect(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Region != nil {
		args = append(args, *f.Region)
		conds = append(conds, fmt.Sprintf("region = $%d", len(args)))
	}
	if f.Profession != nil {
		args = append(args, *f.Profession)
		conds = append(conds, fmt.Sprintf("profession = $%d", len(args)))
	}
	var b strings.Builder
	b.WriteString(selectContactsSQL)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY id ASC")
	return b.String(), args
}
