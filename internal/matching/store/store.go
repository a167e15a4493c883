package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/payrecon/internal/payable"
	payableStore "github.com/MrJamesThe3rd/payrecon/internal/payable/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindByProviderPaymentID(ctx context.Context, providerPaymentID string) ([]*payable.Record, error) {
	query := `SELECT ` + payableStore.SelectRecordColumns + `
		FROM payable_records r
		WHERE r.provider_payment_id = $1
		ORDER BY r.created_at ASC`

	return s.find(ctx, query, providerPaymentID)
}

// FindByExternalReference matches exactly; references are case-sensitive.
func (s *Store) FindByExternalReference(ctx context.Context, ref string) ([]*payable.Record, error) {
	query := `SELECT ` + payableStore.SelectRecordColumns + `
		FROM payable_records r
		WHERE r.external_reference = $1
		ORDER BY r.created_at ASC`

	return s.find(ctx, query, ref)
}

func (s *Store) find(ctx context.Context, query string, arg string) ([]*payable.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("finding records: %w", err)
	}
	defer rows.Close()

	var recs []*payable.Record

	for rows.Next() {
		rec, err := payableStore.ScanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return recs, nil
}
